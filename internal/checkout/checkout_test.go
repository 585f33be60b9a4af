package checkout

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"localfund/internal/db"
	"localfund/internal/model"
	"localfund/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu        sync.Mutex
	fundings  []model.FundingRecord
	slots     []int64
	orders    []model.SpecialtyOrder
	completed []string
	err       error
}

func (r *fakeRecorder) CreateFunding(ctx context.Context, rec model.FundingRecord) (model.FundingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return model.FundingRecord{}, r.err
	}
	rec.ID = int64(len(r.fundings) + 1)
	r.fundings = append(r.fundings, rec)
	return rec, nil
}

func (r *fakeRecorder) CreateForOneFunding(ctx context.Context, req model.ForOneFundingRequest) (model.FundingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return model.FundingRecord{}, r.err
	}
	rec := req.FundingRecord
	rec.ID = int64(len(r.fundings) + 1)
	r.fundings = append(r.fundings, rec)
	r.slots = append(r.slots, req.SlotID)
	return rec, nil
}

func (r *fakeRecorder) CreateSpecialtyOrder(ctx context.Context, o model.SpecialtyOrder) (model.SpecialtyOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return model.SpecialtyOrder{}, r.err
	}
	o.ID = int64(len(r.orders) + 1)
	o.Status = model.OrderPending
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *fakeRecorder) CompleteSpecialtyPayment(ctx context.Context, impUID, merchantUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, impUID+"|"+merchantUID)
	return nil
}

func openJournal(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func fundingOrder() Order {
	return Order{
		Kind:       KindFunding,
		TargetID:   12,
		TargetName: "을지로 국밥",
		Items: []model.LineItem{
			{Name: "순대국밥", Price: 9000, Quantity: 2},
			{Name: "수육", Price: 25000, Quantity: 1},
		},
	}
}

func validBuyer() Buyer {
	return Buyer{Name: "김민수", Phone: "010-1234-5678", Email: "minsu@example.kr"}
}

func TestSubmit_RequiredFieldsBlockPayment(t *testing.T) {
	tests := []struct {
		name    string
		buyer   Buyer
		consent Consent
		field   string
	}{
		{"missing name", Buyer{Phone: "010", Email: "a@b.kr"}, Consent{Terms: true}, "name"},
		{"blank phone", Buyer{Name: "a", Phone: "  ", Email: "a@b.kr"}, Consent{Terms: true}, "phone"},
		{"missing email", Buyer{Name: "a", Phone: "010"}, Consent{Terms: true}, "email"},
		{"bad email", Buyer{Name: "a", Phone: "010", Email: "nope"}, Consent{Terms: true}, "email"},
		{"terms unchecked", validBuyer(), Consent{SMS: true, Email: true}, "terms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := payment.NewSandbox(payment.Approve)
			flow := NewFlow(fundingOrder(), Deps{Provider: provider, Recorder: &fakeRecorder{}})

			err := flow.Submit(tt.buyer, tt.consent)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, StateForm, flow.State())
			assert.NotEmpty(t, flow.Message())

			_, err = flow.Pay(context.Background(), KakaoPay)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Empty(t, provider.Requests(), "provider must not be invoked")
		})
	}
}

func TestSubmit_SpecialtyNeedsAddress(t *testing.T) {
	flow := NewFlow(Order{Kind: KindSpecialty, TargetName: "감귤", Quantity: 1, UnitPrice: 20000}, Deps{})

	err := flow.Submit(validBuyer(), Consent{Terms: true})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "zip", verr.Field)
}

func TestSubmit_EmptyBasket(t *testing.T) {
	flow := NewFlow(Order{Kind: KindFunding, TargetName: "x"}, Deps{})
	err := flow.Submit(validBuyer(), Consent{Terms: true})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "items", verr.Field)
}

func TestPay_DeclineReturnsToFormWithoutRecord(t *testing.T) {
	database := openJournal(t)
	provider := payment.NewSandbox(payment.Decline)
	rec := &fakeRecorder{}
	flow := NewFlow(fundingOrder(), Deps{Provider: provider, Recorder: rec, Journal: DBJournal{DB: database}})

	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))
	assert.Equal(t, StateMethod, flow.State())

	_, err := flow.Pay(context.Background(), Card)
	require.Error(t, err)
	assert.Equal(t, StateForm, flow.State())
	assert.Contains(t, flow.Message(), "payment failed")
	assert.Empty(t, rec.fundings)

	a, err := db.GetCheckoutAttempt(database, flow.MerchantUID())
	require.NoError(t, err)
	assert.Equal(t, db.AttemptFailed, a.Status)
}

func TestPay_CancelMessage(t *testing.T) {
	flow := NewFlow(fundingOrder(), Deps{Provider: payment.NewSandbox(payment.Cancel), Recorder: &fakeRecorder{}})
	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))

	_, err := flow.Pay(context.Background(), TossPay)
	assert.ErrorIs(t, err, payment.ErrCancelled)
	assert.Equal(t, StateForm, flow.State())
	assert.Equal(t, "Payment was cancelled.", flow.Message())
}

func TestPay_SuccessRecordsFunding(t *testing.T) {
	database := openJournal(t)
	provider := payment.NewSandbox(payment.Approve)
	rec := &fakeRecorder{}
	member := model.Member{Email: "minsu@example.kr"}
	flow := NewFlow(fundingOrder(), Deps{Provider: provider, Recorder: rec, Journal: DBJournal{DB: database}, Member: member})

	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true, SMS: true}))
	res, err := flow.Pay(context.Background(), KakaoPay)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, flow.State())

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "kakaopay", reqs[0].PG)
	assert.Equal(t, "kakaopay", reqs[0].PayMethod)
	assert.Equal(t, int64(43000), reqs[0].Amount)
	assert.Equal(t, "을지로 국밥 펀딩 참여", reqs[0].Name)
	assert.True(t, strings.HasPrefix(reqs[0].MerchantUID, "funding_"))

	require.Len(t, rec.fundings, 1)
	f := rec.fundings[0]
	assert.Equal(t, res.MerchantUID, f.MerchantUID)
	assert.Equal(t, res.ImpUID, f.ImpUID)
	assert.Equal(t, model.FundingCompleted, f.Status)
	assert.True(t, f.AgreeSMS)
	assert.False(t, f.AgreeEmail)
	assert.Equal(t, "minsu@example.kr", f.MemberID)
	assert.Equal(t, fundingOrder().Items, model.DecodeLineItems(f.MenuInfo))
	require.NotNil(t, res.Funding)

	a, err := db.GetCheckoutAttempt(database, res.MerchantUID)
	require.NoError(t, err)
	assert.Equal(t, db.AttemptRecorded, a.Status)
	assert.Equal(t, res.ImpUID, a.ImpUID)
}

func forOneOrder() Order {
	return Order{
		Kind:       KindForOne,
		TargetID:   2,
		TargetName: "역삼 비빔밥집",
		SlotID:     7,
		Items:      []model.LineItem{{Name: "산채비빔밥", Price: 8800, Quantity: 1}},
	}
}

func TestPay_ForOneJoinsSlot(t *testing.T) {
	provider := payment.NewSandbox(payment.Approve)
	rec := &fakeRecorder{}
	flow := NewFlow(forOneOrder(), Deps{Provider: provider, Recorder: rec, Member: model.Member{Email: "minsu@example.kr"}})

	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))
	res, err := flow.Pay(context.Background(), Card)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, flow.State())

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, int64(8800), reqs[0].Amount)
	assert.Equal(t, "역삼 비빔밥집 한그릇 펀딩", reqs[0].Name)
	assert.True(t, strings.HasPrefix(reqs[0].MerchantUID, "forone_"))

	assert.Equal(t, []int64{7}, rec.slots)
	require.Len(t, rec.fundings, 1)
	assert.Equal(t, int64(2), rec.fundings[0].RestaurantID)
	assert.Equal(t, int64(8800), rec.fundings[0].TotalAmount)
	require.NotNil(t, res.Funding)
	assert.Equal(t, res.MerchantUID, res.Funding.MerchantUID)
}

func TestSubmit_ForOneIsASingleServing(t *testing.T) {
	order := forOneOrder()
	order.Items[0].Quantity = 2
	flow := NewFlow(order, Deps{})

	err := flow.Submit(validBuyer(), Consent{Terms: true})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "items", verr.Field)
	assert.Equal(t, StateForm, flow.State())
}

func TestPay_PersistenceFailureIsReported(t *testing.T) {
	database := openJournal(t)
	rec := &fakeRecorder{err: errors.New("backend unavailable")}
	flow := NewFlow(fundingOrder(), Deps{
		Provider: payment.NewSandbox(payment.Approve),
		Recorder: rec,
		Journal:  DBJournal{DB: database},
	})

	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))
	_, err := flow.Pay(context.Background(), Card)

	var uerr *UnrecordedError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, StateUnrecorded, flow.State())
	assert.Contains(t, flow.Message(), "Payment succeeded but could not be recorded")
	assert.Contains(t, flow.Message(), uerr.MerchantUID)

	unrecorded, err := db.ListUnrecordedAttempts(database)
	require.NoError(t, err)
	require.Len(t, unrecorded, 1)
	assert.Equal(t, uerr.ImpUID, unrecorded[0].ImpUID)
}

func TestPay_SpecialtyTwoStep(t *testing.T) {
	provider := payment.NewSandbox(payment.Approve)
	rec := &fakeRecorder{}
	order := Order{Kind: KindSpecialty, TargetID: 5, TargetName: "제주 감귤", Quantity: 3, UnitPrice: 12000, SidoNm: "제주특별자치도"}
	flow := NewFlow(order, Deps{Provider: provider, Recorder: rec})

	buyer := validBuyer()
	buyer.ZipCode = "63000"
	buyer.Address = "제주시 중앙로 1"
	buyer.DetailAddress = "101호"
	require.NoError(t, flow.Submit(buyer, Consent{Terms: true, Email: true}))

	res, err := flow.Pay(context.Background(), TossPay)
	require.NoError(t, err)

	req := provider.Requests()[0]
	assert.Equal(t, "tosspay", req.PG)
	assert.Equal(t, "card", req.PayMethod)
	assert.Equal(t, int64(36000), req.Amount)
	assert.Equal(t, "제주 감귤 구매", req.Name)
	assert.True(t, strings.HasPrefix(req.MerchantUID, "specialty_"))

	require.Len(t, rec.orders, 1)
	assert.Equal(t, int64(36000), rec.orders[0].TotalAmount)
	assert.Equal(t, "101호", rec.orders[0].DetailAddress)
	assert.Equal(t, []string{res.ImpUID + "|" + res.MerchantUID}, rec.completed)
	require.NotNil(t, res.Order)
	assert.Equal(t, model.OrderPaid, res.Order.Status)
}

type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) RequestPay(ctx context.Context, req payment.Request) (payment.Result, error) {
	close(p.entered)
	<-p.release
	return payment.Result{Success: true, ImpUID: "imp_1", MerchantUID: req.MerchantUID}, nil
}

func TestPay_RejectsSecondPayWhileInFlight(t *testing.T) {
	p := &blockingProvider{entered: make(chan struct{}), release: make(chan struct{})}
	flow := NewFlow(fundingOrder(), Deps{Provider: p, Recorder: &fakeRecorder{}})
	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = flow.Pay(context.Background(), KakaoPay)
	}()

	<-p.entered
	assert.Equal(t, StateInProgress, flow.State())
	_, err := flow.Pay(context.Background(), KakaoPay)
	assert.ErrorIs(t, err, ErrInProgress)

	close(p.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, StateSuccess, flow.State())
}

func TestPay_EachAttemptGetsNewMerchantUID(t *testing.T) {
	database := openJournal(t)
	provider := payment.NewSandbox(payment.Decline)
	flow := NewFlow(fundingOrder(), Deps{Provider: provider, Recorder: &fakeRecorder{}, Journal: DBJournal{DB: database}})

	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))
	_, err := flow.Pay(context.Background(), Card)
	require.Error(t, err)
	first := flow.MerchantUID()

	provider.SetOutcome(payment.Approve, "")
	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))
	_, err = flow.Pay(context.Background(), Card)
	require.NoError(t, err)

	assert.NotEqual(t, first, flow.MerchantUID())
}

func TestMethodPG(t *testing.T) {
	pg, pm := Card.PG()
	assert.Equal(t, "tosspayments", pg)
	assert.Equal(t, "card", pm)
	assert.Len(t, Methods, 3)
}

func TestBack(t *testing.T) {
	flow := NewFlow(fundingOrder(), Deps{})
	assert.ErrorIs(t, flow.Back(), ErrInvalidState)
	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))
	require.NoError(t, flow.Back())
	assert.Equal(t, StateForm, flow.State())
}

// lateProvider approves only after the Pay context has run out, like a
// gateway answering at the last moment.
type lateProvider struct{}

func (lateProvider) RequestPay(ctx context.Context, req payment.Request) (payment.Result, error) {
	<-ctx.Done()
	return payment.Result{Success: true, ImpUID: "imp_late", MerchantUID: req.MerchantUID}, nil
}

// liveRecorder fails like an HTTP client would on an expired context.
type liveRecorder struct {
	fakeRecorder
}

func (r *liveRecorder) CreateFunding(ctx context.Context, rec model.FundingRecord) (model.FundingRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.FundingRecord{}, err
	}
	return r.fakeRecorder.CreateFunding(ctx, rec)
}

func TestPay_SlowProviderStillRecords(t *testing.T) {
	rec := &liveRecorder{}
	flow := NewFlow(fundingOrder(), Deps{Provider: lateProvider{}, Recorder: rec, RecordTimeout: time.Second})
	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := flow.Pay(ctx, KakaoPay)
	require.NoError(t, err)
	require.NotNil(t, res.Funding)
	assert.Equal(t, "imp_late", res.Funding.ImpUID)
	assert.Equal(t, StateSuccess, flow.State())
	assert.Len(t, rec.fundings, 1)
}

func TestPay_RecordSharesPayContextWithoutTimeout(t *testing.T) {
	flow := NewFlow(fundingOrder(), Deps{Provider: lateProvider{}, Recorder: &liveRecorder{}})
	require.NoError(t, flow.Submit(validBuyer(), Consent{Terms: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := flow.Pay(ctx, KakaoPay)
	var unrecorded *UnrecordedError
	require.ErrorAs(t, err, &unrecorded)
	assert.Equal(t, StateUnrecorded, flow.State())
}
