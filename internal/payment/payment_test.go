package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_RequestPay(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/request", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Result{Success: true, ImpUID: "imp_123"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL+"/", time.Second, nil)
	res, err := g.RequestPay(context.Background(), Request{
		PG: "kakaopay", PayMethod: "kakaopay", MerchantUID: "funding_abc", Amount: 15000, BuyerName: "김",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "imp_123", res.ImpUID)
	assert.Equal(t, "funding_abc", res.MerchantUID, "merchant uid defaults to the request's")
	assert.Equal(t, int64(15000), got.Amount)
	assert.Equal(t, "kakaopay", got.PG)
}

func TestGateway_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGateway(srv.URL, time.Second, nil).RequestPay(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSandbox_Outcomes(t *testing.T) {
	ctx := context.Background()
	s := NewSandbox(Approve)

	res, err := s.RequestPay(ctx, Request{MerchantUID: "m1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ImpUID)

	s.SetOutcome(Decline, "limit exceeded")
	res, err = s.RequestPay(ctx, Request{MerchantUID: "m2"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "limit exceeded", res.ErrorMsg)

	s.SetOutcome(Cancel, "")
	res, err = s.RequestPay(ctx, Request{MerchantUID: "m3"})
	require.NoError(t, err)
	assert.Equal(t, ErrCancelled.Error(), res.ErrorMsg)

	assert.Len(t, s.Requests(), 3)
}
