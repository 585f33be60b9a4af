package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const kakaoAPIBase = "https://dapi.kakao.com"

// ErrNoAPIKey is returned when no Kakao REST key is configured.
var ErrNoAPIKey = errors.New("kakao: REST API key is not configured")

// KakaoClient wraps the Kakao Local API.
type KakaoClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewKakaoClient creates a new Kakao Local API client. An empty baseURL uses the public endpoint.
func NewKakaoClient(apiKey, baseURL string) *KakaoClient {
	if baseURL == "" {
		baseURL = kakaoAPIBase
	}
	return &KakaoClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether a key is set.
func (c *KakaoClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Place is an address or keyword search result.
type Place struct {
	Name        string
	Address     string
	RoadAddress string
	ZoneNo      string
	Category    string
	Phone       string
	PlaceURL    string
	PlaceID     string
	Sido        string
	Sigungu     string
	Lat         float64
	Lng         float64
}

// Label returns the best display address.
func (p Place) Label() string {
	if p.RoadAddress != "" {
		return p.RoadAddress
	}
	return p.Address
}

// SearchAddress resolves a free-form address.
func (c *KakaoClient) SearchAddress(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Place{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("size", "10")

	var result addressSearchResponse
	if err := c.get(ctx, "/v2/local/search/address.json", params, &result); err != nil {
		return []Place{}, err
	}

	places := make([]Place, 0, len(result.Documents))
	for _, doc := range result.Documents {
		place := Place{
			Name:    doc.AddressName,
			Address: doc.AddressName,
			Lng:     parseCoord(doc.X),
			Lat:     parseCoord(doc.Y),
		}
		if doc.RoadAddress != nil {
			place.RoadAddress = doc.RoadAddress.AddressName
			place.ZoneNo = doc.RoadAddress.ZoneNo
			place.Sido = doc.RoadAddress.Region1
			place.Sigungu = doc.RoadAddress.Region2
		}
		if doc.Address != nil && place.Sido == "" {
			place.Sido = doc.Address.Region1
			place.Sigungu = doc.Address.Region2
		}
		places = append(places, place)
	}

	return places, nil
}

// SearchKeyword searches places by keyword. When lat/lng are non-zero the
// results are limited to radius meters around them.
func (c *KakaoClient) SearchKeyword(ctx context.Context, query string, lat, lng float64, radius int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Place{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("size", "15")
	if lat != 0 || lng != 0 {
		params.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
		params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
		if radius > 0 {
			params.Set("radius", strconv.Itoa(min(radius, 20000)))
		}
	}

	var result keywordSearchResponse
	if err := c.get(ctx, "/v2/local/search/keyword.json", params, &result); err != nil {
		return []Place{}, err
	}

	places := make([]Place, 0, len(result.Documents))
	for _, doc := range result.Documents {
		places = append(places, Place{
			Name:        doc.PlaceName,
			Address:     doc.AddressName,
			RoadAddress: doc.RoadAddressName,
			Category:    doc.CategoryName,
			Phone:       doc.Phone,
			PlaceURL:    doc.PlaceURL,
			PlaceID:     doc.ID,
			Lng:         parseCoord(doc.X),
			Lat:         parseCoord(doc.Y),
		})
	}

	return places, nil
}

// ReverseGeocode returns the address at a coordinate.
func (c *KakaoClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*Place, error) {
	params := url.Values{}
	params.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))

	var result coordResponse
	if err := c.get(ctx, "/v2/local/geo/coord2address.json", params, &result); err != nil {
		return nil, err
	}
	if len(result.Documents) == 0 {
		return nil, fmt.Errorf("no address at %.5f,%.5f", lat, lng)
	}

	doc := result.Documents[0]
	place := &Place{Lat: lat, Lng: lng}
	if doc.Address != nil {
		place.Address = doc.Address.AddressName
		place.Sido = doc.Address.Region1
		place.Sigungu = doc.Address.Region2
	}
	if doc.RoadAddress != nil {
		place.RoadAddress = doc.RoadAddress.AddressName
		place.ZoneNo = doc.RoadAddress.ZoneNo
	}
	place.Name = place.Label()

	return place, nil
}

func (c *KakaoClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if !c.Configured() {
		return ErrNoAPIKey
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}

	// Kakao REST authentication
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	// Non-2xx response
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("JSON decode error: %w", err)
	}
	return nil
}

func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// API response types

type addressSearchResponse struct {
	Documents []addressDocument `json:"documents"`
}

type addressDocument struct {
	AddressName string       `json:"address_name"`
	X           string       `json:"x"`
	Y           string       `json:"y"`
	Address     *addressPart `json:"address"`
	RoadAddress *addressPart `json:"road_address"`
}

type addressPart struct {
	AddressName string `json:"address_name"`
	Region1     string `json:"region_1depth_name"`
	Region2     string `json:"region_2depth_name"`
	ZoneNo      string `json:"zone_no"`
}

type keywordSearchResponse struct {
	Documents []keywordDocument `json:"documents"`
}

type keywordDocument struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	CategoryName    string `json:"category_name"`
	Phone           string `json:"phone"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
	PlaceURL        string `json:"place_url"`
}

type coordResponse struct {
	Documents []struct {
		Address     *addressPart `json:"address"`
		RoadAddress *addressPart `json:"road_address"`
	} `json:"documents"`
}
