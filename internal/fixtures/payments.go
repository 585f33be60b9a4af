package fixtures

import (
	"net/http"
	"strings"

	"localfund/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentLimit is the largest amount the fixture gateway approves.
const PaymentLimit = 5_000_000

// CancelBuyerName makes the fixture gateway report a cancelled checkout.
const CancelBuyerName = "cancel"

// handlePaymentRequest stands in for the payment gateway relay. It approves
// everything up to PaymentLimit, declines larger amounts and reports a
// cancellation for buyers named CancelBuyerName.
func (s *Server) handlePaymentRequest(w http.ResponseWriter, r *http.Request) {
	var req payment.Request
	if !s.decode(w, r, &req) {
		return
	}
	if req.MerchantUID == "" || req.PG == "" {
		s.writeError(w, http.StatusBadRequest, "merchant_uid and pg are required")
		return
	}

	res := payment.Result{MerchantUID: req.MerchantUID}
	switch {
	case strings.EqualFold(strings.TrimSpace(req.BuyerName), CancelBuyerName):
		res.ErrorMsg = payment.ErrCancelled.Error()
	case req.Amount <= 0:
		res.ErrorMsg = "amount must be positive"
	case req.Amount > PaymentLimit:
		res.ErrorMsg = "card limit exceeded"
	default:
		res.Success = true
		res.ImpUID = "imp_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	s.log.Info("fixture payment",
		zap.String("merchant_uid", req.MerchantUID),
		zap.String("pg", req.PG),
		zap.Int64("amount", req.Amount),
		zap.Bool("success", res.Success),
	)
	s.writeJSON(w, http.StatusOK, res)
}
