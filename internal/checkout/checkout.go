// Package checkout implements the funding checkout flow:
// form entry, payment method selection, provider checkout, and recording the
// result with the backend.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"localfund/internal/db"
	"localfund/internal/model"
	"localfund/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of the flow.
type State int

const (
	StateForm State = iota
	StateMethod
	StateInProgress
	StateSuccess
	// StateUnrecorded means the provider charged the buyer but the backend
	// did not record it.
	StateUnrecorded
)

func (s State) String() string {
	switch s {
	case StateForm:
		return "form"
	case StateMethod:
		return "method"
	case StateInProgress:
		return "in progress"
	case StateSuccess:
		return "success"
	case StateUnrecorded:
		return "unrecorded"
	}
	return "unknown"
}

var (
	// ErrInvalidState is returned when an action does not apply to the current step.
	ErrInvalidState = errors.New("checkout: action not allowed in current state")
	// ErrInProgress is returned by Pay while a provider checkout is running.
	ErrInProgress = errors.New("checkout: payment already in progress")
)

// ValidationError names the first form field that blocked submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Method is a payment option offered to the buyer.
type Method string

const (
	KakaoPay Method = "kakaopay"
	TossPay  Method = "tosspay"
	Card     Method = "card"
)

// Methods lists the options in display order.
var Methods = []Method{KakaoPay, TossPay, Card}

// PG returns the provider channel and pay method for m.
func (m Method) PG() (pg, payMethod string) {
	switch m {
	case KakaoPay:
		return "kakaopay", "kakaopay"
	case TossPay:
		return "tosspay", "card"
	default:
		return "tosspayments", "card"
	}
}

// Label returns the display name.
func (m Method) Label() string {
	switch m {
	case KakaoPay:
		return "KakaoPay"
	case TossPay:
		return "TossPay"
	default:
		return "Credit card"
	}
}

// Kind distinguishes restaurant fundings, single-serving slots and specialty
// purchases.
type Kind string

const (
	KindFunding   Kind = "funding"
	KindForOne    Kind = "forone"
	KindSpecialty Kind = "specialty"
)

// Order is what is being paid for.
type Order struct {
	Kind       Kind
	TargetID   int64
	TargetName string

	// Items is the menu basket of a restaurant funding. A single-serving
	// slot has exactly one item.
	Items []model.LineItem
	// SlotID is the single-serving slot being joined.
	SlotID int64

	// Quantity and UnitPrice describe a specialty purchase.
	Quantity  int
	UnitPrice int64
	SidoNm    string
	SigunguNm string
}

// Amount returns the total charged.
func (o Order) Amount() int64 {
	if o.Kind == KindSpecialty {
		return o.UnitPrice * int64(o.Quantity)
	}
	var total int64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}

// ProductName is the label shown by the provider.
func (o Order) ProductName() string {
	switch o.Kind {
	case KindSpecialty:
		return o.TargetName + " 구매"
	case KindForOne:
		return o.TargetName + " 한그릇 펀딩"
	}
	return o.TargetName + " 펀딩 참여"
}

// Buyer holds the buyer fields of the form.
type Buyer struct {
	Name          string
	Phone         string
	Email         string
	ZipCode       string
	Address       string
	DetailAddress string
}

// Consent holds the agreement checkboxes.
type Consent struct {
	Terms bool
	SMS   bool
	Email bool
}

// Provider opens the external checkout.
type Provider interface {
	RequestPay(ctx context.Context, req payment.Request) (payment.Result, error)
}

// Recorder persists paid checkouts. *api.Client satisfies it.
type Recorder interface {
	CreateFunding(ctx context.Context, rec model.FundingRecord) (model.FundingRecord, error)
	CreateForOneFunding(ctx context.Context, req model.ForOneFundingRequest) (model.FundingRecord, error)
	CreateSpecialtyOrder(ctx context.Context, order model.SpecialtyOrder) (model.SpecialtyOrder, error)
	CompleteSpecialtyPayment(ctx context.Context, impUID, merchantUID string) error
}

// Journal keeps a local record of every attempt so paid but unrecorded
// checkouts can be found later.
type Journal interface {
	Start(a db.CheckoutAttempt) error
	Finish(merchantUID, status, impUID, errMsg string) error
}

// Deps are the collaborators of a Flow.
type Deps struct {
	Provider Provider
	Recorder Recorder
	Journal  Journal
	Logger   *zap.Logger
	Member   model.Member
	// RecordTimeout bounds the backend record after an approved payment. It
	// runs on its own clock so a slow provider cannot starve it. Zero reuses
	// the Pay context.
	RecordTimeout time.Duration
}

// Result is the outcome of Pay.
type Result struct {
	MerchantUID string
	ImpUID      string
	Funding     *model.FundingRecord
	Order       *model.SpecialtyOrder
}

// Flow is a single checkout. It is safe for concurrent use; the UI calls Pay
// from a command goroutine while rendering State from the update loop.
type Flow struct {
	order Order
	deps  Deps
	log   *zap.Logger
	newID func() string

	mu          sync.Mutex
	state       State
	buyer       Buyer
	consent     Consent
	method      Method
	merchantUID string
	message     string
	result      Result
}

// NewFlow starts a checkout in the form step.
func NewFlow(order Order, deps Deps) *Flow {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{
		order: order,
		deps:  deps,
		log:   log,
		newID: uuid.NewString,
		state: StateForm,
	}
}

// Order returns what is being paid for.
func (f *Flow) Order() Order {
	return f.order
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the banner for the current step, empty when there is none.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Result returns the outcome of the last successful Pay.
func (f *Flow) Result() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// MerchantUID returns the id of the current or last attempt.
func (f *Flow) MerchantUID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.merchantUID
}

type requiredField struct {
	field, value, label string
}

// Validate checks the form without changing state.
func (f *Flow) Validate(b Buyer, c Consent) error {
	req := []requiredField{
		{"name", b.Name, "Name"},
		{"phone", b.Phone, "Phone"},
		{"email", b.Email, "Email"},
	}
	if f.order.Kind == KindSpecialty {
		req = append(req,
			requiredField{"zip", b.ZipCode, "Zip code"},
			requiredField{"address", b.Address, "Address"},
			requiredField{"detail", b.DetailAddress, "Detail address"},
		)
	}
	for _, r := range req {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: r.label + " is required"}
		}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(b.Email)); err != nil {
		return &ValidationError{Field: "email", Message: "Email is not valid"}
	}
	if !c.Terms {
		return &ValidationError{Field: "terms", Message: "You must agree to the terms"}
	}
	if f.order.Amount() <= 0 {
		return &ValidationError{Field: "items", Message: "Select at least one item"}
	}
	if f.order.Kind == KindForOne && (f.order.SlotID == 0 || len(f.order.Items) != 1 || f.order.Items[0].Quantity != 1) {
		return &ValidationError{Field: "items", Message: "A single-serving funding is one item"}
	}
	return nil
}

// Submit validates the form and moves to method selection. On a validation
// error the flow stays in the form step.
func (f *Flow) Submit(b Buyer, c Consent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateForm {
		return ErrInvalidState
	}
	if err := f.Validate(b, c); err != nil {
		f.message = err.Error()
		return err
	}
	f.buyer = b
	f.consent = c
	f.message = ""
	f.state = StateMethod
	return nil
}

// Back returns from method selection to the form.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateMethod {
		return ErrInvalidState
	}
	f.state = StateForm
	return nil
}

// Pay runs the provider checkout with m and records the result. A failed or
// cancelled payment returns the flow to the form step. Each call uses a fresh
// merchant uid.
func (f *Flow) Pay(ctx context.Context, m Method) (Result, error) {
	f.mu.Lock()
	switch f.state {
	case StateInProgress:
		f.mu.Unlock()
		return Result{}, ErrInProgress
	case StateMethod:
	default:
		f.mu.Unlock()
		return Result{}, ErrInvalidState
	}
	f.state = StateInProgress
	f.method = m
	f.merchantUID = fmt.Sprintf("%s_%s", f.order.Kind, f.newID())
	f.message = ""
	buyer := f.buyer
	merchantUID := f.merchantUID
	f.mu.Unlock()

	log := f.log.With(zap.String("merchant_uid", merchantUID), zap.String("method", string(m)))

	if f.deps.Journal != nil {
		err := f.deps.Journal.Start(db.CheckoutAttempt{
			MerchantUID: merchantUID,
			Kind:        string(f.order.Kind),
			TargetID:    f.order.TargetID,
			TargetName:  f.order.TargetName,
			MemberID:    f.deps.Member.Email,
			Amount:      f.order.Amount(),
			Method:      string(m),
		})
		if err != nil {
			log.Error("failed to journal checkout attempt", zap.Error(err))
			return Result{}, f.fail(fmt.Errorf("could not start payment: %w", err))
		}
	}

	pg, payMethod := m.PG()
	res, err := f.deps.Provider.RequestPay(ctx, payment.Request{
		PG:            pg,
		PayMethod:     payMethod,
		MerchantUID:   merchantUID,
		Name:          f.order.ProductName(),
		Amount:        f.order.Amount(),
		BuyerEmail:    buyer.Email,
		BuyerName:     buyer.Name,
		BuyerTel:      buyer.Phone,
		BuyerAddr:     strings.TrimSpace(buyer.Address + " " + buyer.DetailAddress),
		BuyerPostcode: buyer.ZipCode,
	})
	if err == nil && !res.Success {
		if res.ErrorMsg == payment.ErrCancelled.Error() {
			err = payment.ErrCancelled
		} else {
			err = errors.New(res.ErrorMsg)
		}
	}
	if err != nil {
		log.Warn("payment failed", zap.Error(err))
		f.journal(log, merchantUID, db.AttemptFailed, "", err.Error())
		if errors.Is(err, payment.ErrCancelled) {
			return Result{}, f.fail(err)
		}
		return Result{}, f.fail(fmt.Errorf("payment failed: %w", err))
	}

	log = log.With(zap.String("imp_uid", res.ImpUID))
	log.Info("payment approved")
	f.journal(log, merchantUID, db.AttemptPaid, res.ImpUID, "")

	out := Result{MerchantUID: merchantUID, ImpUID: res.ImpUID}
	recordCtx, cancel := f.recordContext(ctx)
	defer cancel()
	if err := f.record(recordCtx, &out); err != nil {
		log.Error("payment succeeded but was not recorded", zap.Error(err))
		f.journal(log, merchantUID, db.AttemptUnrecorded, res.ImpUID, err.Error())

		f.mu.Lock()
		f.state = StateUnrecorded
		f.message = fmt.Sprintf("Payment succeeded but could not be recorded. Contact support with order %s.", merchantUID)
		f.result = out
		f.mu.Unlock()
		return out, &UnrecordedError{MerchantUID: merchantUID, ImpUID: res.ImpUID, Err: err}
	}

	f.journal(log, merchantUID, db.AttemptRecorded, res.ImpUID, "")
	f.mu.Lock()
	f.state = StateSuccess
	f.message = ""
	f.result = out
	f.mu.Unlock()
	return out, nil
}

// UnrecordedError reports a charge the backend did not record.
type UnrecordedError struct {
	MerchantUID string
	ImpUID      string
	Err         error
}

func (e *UnrecordedError) Error() string {
	return fmt.Sprintf("payment %s succeeded but was not recorded: %v", e.MerchantUID, e.Err)
}

func (e *UnrecordedError) Unwrap() error {
	return e.Err
}

func (f *Flow) recordContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.deps.RecordTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), f.deps.RecordTimeout)
}

func (f *Flow) record(ctx context.Context, out *Result) error {
	f.mu.Lock()
	buyer, consent, method := f.buyer, f.consent, f.method
	f.mu.Unlock()

	switch f.order.Kind {
	case KindSpecialty:
		order := model.SpecialtyOrder{
			MemberID:      f.deps.Member.Email,
			SpecialtyID:   f.order.TargetID,
			SpecialtyName: f.order.TargetName,
			Quantity:      f.order.Quantity,
			UnitPrice:     f.order.UnitPrice,
			TotalAmount:   f.order.Amount(),
			BuyerName:     buyer.Name,
			BuyerPhone:    buyer.Phone,
			BuyerEmail:    buyer.Email,
			ZipCode:       buyer.ZipCode,
			Address:       buyer.Address,
			DetailAddress: buyer.DetailAddress,
			PaymentMethod: string(method),
			MerchantUID:   out.MerchantUID,
			AgreeSMS:      consent.SMS,
			AgreeEmail:    consent.Email,
			SidoNm:        f.order.SidoNm,
			SigunguNm:     f.order.SigunguNm,
		}
		saved, err := f.deps.Recorder.CreateSpecialtyOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := f.deps.Recorder.CompleteSpecialtyPayment(ctx, out.ImpUID, out.MerchantUID); err != nil {
			return fmt.Errorf("complete order payment: %w", err)
		}
		saved.ImpUID = out.ImpUID
		saved.Status = model.OrderPaid
		out.Order = &saved

	default:
		menuInfo, err := model.EncodeLineItems(f.order.Items)
		if err != nil {
			return err
		}
		rec := model.FundingRecord{
			MemberID:       f.deps.Member.Email,
			RestaurantID:   f.order.TargetID,
			RestaurantName: f.order.TargetName,
			MenuInfo:       menuInfo,
			TotalAmount:    f.order.Amount(),
			PaymentMethod:  string(method),
			ImpUID:         out.ImpUID,
			MerchantUID:    out.MerchantUID,
			AgreeSMS:       consent.SMS,
			AgreeEmail:     consent.Email,
			Status:         model.FundingCompleted,
		}
		if f.order.Kind == KindForOne {
			saved, err := f.deps.Recorder.CreateForOneFunding(ctx, model.ForOneFundingRequest{SlotID: f.order.SlotID, FundingRecord: rec})
			if err != nil {
				return fmt.Errorf("join slot: %w", err)
			}
			out.Funding = &saved
			return nil
		}
		saved, err := f.deps.Recorder.CreateFunding(ctx, rec)
		if err != nil {
			return fmt.Errorf("create funding: %w", err)
		}
		out.Funding = &saved
	}
	return nil
}

// fail returns the flow to the form with err as the banner.
func (f *Flow) fail(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateForm
	if errors.Is(err, payment.ErrCancelled) {
		f.message = "Payment was cancelled."
	} else {
		f.message = err.Error()
	}
	return err
}

func (f *Flow) journal(log *zap.Logger, merchantUID, status, impUID, errMsg string) {
	if f.deps.Journal == nil {
		return
	}
	if err := f.deps.Journal.Finish(merchantUID, status, impUID, errMsg); err != nil {
		log.Error("failed to update checkout journal", zap.String("status", status), zap.Error(err))
	}
}
