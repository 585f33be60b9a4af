// Package payment drives the external payment provider. The provider's
// checkout UI is a black box: a request goes in, one result comes back.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCancelled is reported when the buyer closed the provider checkout.
var ErrCancelled = errors.New("payment cancelled by user")

// Request is what the provider needs to open a checkout.
type Request struct {
	PG            string `json:"pg"`
	PayMethod     string `json:"pay_method"`
	MerchantUID   string `json:"merchant_uid"`
	Name          string `json:"name"`
	Amount        int64  `json:"amount"`
	BuyerEmail    string `json:"buyer_email"`
	BuyerName     string `json:"buyer_name"`
	BuyerTel      string `json:"buyer_tel"`
	BuyerAddr     string `json:"buyer_addr,omitempty"`
	BuyerPostcode string `json:"buyer_postcode,omitempty"`
}

// Result is the provider callback.
type Result struct {
	Success     bool   `json:"success"`
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	ErrorMsg    string `json:"error_msg"`
}

// Gateway relays checkouts to an HTTP payment gateway.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewGateway creates a gateway client. The timeout bounds the whole checkout,
// which includes the buyer interacting with the provider.
func NewGateway(baseURL string, timeout time.Duration, log *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// RequestPay opens a checkout and waits for its result.
func (g *Gateway) RequestPay(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments/request", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("request creation failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Result{}, fmt.Errorf("payment gateway error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("JSON decode error: %w", err)
	}
	if res.MerchantUID == "" {
		res.MerchantUID = req.MerchantUID
	}

	g.log.Info("payment result",
		zap.String("merchant_uid", res.MerchantUID),
		zap.Bool("success", res.Success),
		zap.String("pg", req.PG),
	)
	return res, nil
}

// Outcome scripts a Sandbox response.
type Outcome int

const (
	Approve Outcome = iota
	Decline
	Cancel
)

// Sandbox approves or declines deterministically without any network.
// It records every request it saw.
type Sandbox struct {
	mu       sync.Mutex
	outcome  Outcome
	reason   string
	requests []Request
}

// NewSandbox creates a sandbox answering with outcome.
func NewSandbox(outcome Outcome) *Sandbox {
	return &Sandbox{outcome: outcome, reason: "card declined"}
}

// SetOutcome changes the scripted outcome.
func (s *Sandbox) SetOutcome(o Outcome, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = o
	if reason != "" {
		s.reason = reason
	}
}

// Requests returns the requests seen so far.
func (s *Sandbox) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestPay answers with the scripted outcome.
func (s *Sandbox) RequestPay(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	switch s.outcome {
	case Approve:
		return Result{Success: true, ImpUID: "imp_" + uuid.NewString()[:12], MerchantUID: req.MerchantUID}, nil
	case Cancel:
		return Result{Success: false, MerchantUID: req.MerchantUID, ErrorMsg: ErrCancelled.Error()}, nil
	default:
		return Result{Success: false, MerchantUID: req.MerchantUID, ErrorMsg: s.reason}, nil
	}
}
