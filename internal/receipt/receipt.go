// Package receipt renders QR receipts for funding records.
package receipt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"localfund/internal/model"

	"github.com/skip2/go-qrcode"
)

// PNGSize is the edge length of exported receipt images.
const PNGSize = 200

// Payload is the JSON encoded in the QR code.
type Payload struct {
	FundingID      int64  `json:"fundingId"`
	RestaurantName string `json:"restaurantName"`
	ImpUID         string `json:"impUid"`
	TotalAmount    int64  `json:"totalAmount"`
	CreatedAt      string `json:"createdAt"`
}

// PayloadOf extracts the receipt payload from a funding.
func PayloadOf(f model.FundingRecord) Payload {
	return Payload{
		FundingID:      f.ID,
		RestaurantName: f.RestaurantName,
		ImpUID:         f.ImpUID,
		TotalAmount:    f.TotalAmount,
		CreatedAt:      f.CreatedAt,
	}
}

// Content returns the text encoded in the QR code.
func Content(f model.FundingRecord) (string, error) {
	data, err := json.Marshal(PayloadOf(f))
	if err != nil {
		return "", fmt.Errorf("failed to marshal receipt: %w", err)
	}
	return string(data), nil
}

func encode(f model.FundingRecord) (*qrcode.QRCode, error) {
	content, err := Content(f)
	if err != nil {
		return nil, err
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	return q, nil
}

// PNG renders the receipt as a PNG image.
func PNG(f model.FundingRecord) ([]byte, error) {
	q, err := encode(f)
	if err != nil {
		return nil, err
	}
	return q.PNG(PNGSize)
}

// DataURL renders the receipt as a data: URL.
func DataURL(f model.FundingRecord) (string, error) {
	png, err := PNG(f)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// WriteFile writes the PNG receipt to path.
func WriteFile(f model.FundingRecord, path string) error {
	q, err := encode(f)
	if err != nil {
		return err
	}
	if err := q.WriteFile(PNGSize, path); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// Terminal renders the receipt with block characters for the TUI.
// Failure is not fatal for the caller; an empty string is returned.
func Terminal(f model.FundingRecord) string {
	q, err := encode(f)
	if err != nil {
		return ""
	}
	return q.ToSmallString(false)
}

// Exists reports whether path already holds a file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
