package sale_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/payment"
	"github.com/noah-isme/pos-till/internal/sale"
)

type journal struct {
	steps []string
}

func (j *journal) add(step string) { j.steps = append(j.steps, step) }

type fakeDrawer struct {
	j   *journal
	err error
}

func (d *fakeDrawer) RecordCashMovement(_ context.Context, _, _ money.Money) error {
	d.j.add("drawer")
	return d.err
}

type fakePrinter struct {
	j   *journal
	err error
}

func (p *fakePrinter) Print(context.Context, sale.Record) error {
	p.j.add("printer")
	return p.err
}

type fakeInventory struct {
	j   *journal
	err error
}

func (i *fakeInventory) ApplyBasketToStock(context.Context, []basket.Line) error {
	i.j.add("inventory")
	return i.err
}

type fakeAccounting struct {
	j   *journal
	err error
}

func (a *fakeAccounting) RecordPayment(context.Context, sale.Record) error {
	a.j.add("accounting")
	return a.err
}

type fakeLog struct {
	j       *journal
	records []sale.Record
	err     error
	lastErr error
}

func (l *fakeLog) Append(_ context.Context, rec sale.Record) error {
	l.j.add("log.append")
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeLog) LastAppended(context.Context) (sale.Record, error) {
	l.j.add("log.last")
	if l.lastErr != nil {
		return sale.Record{}, l.lastErr
	}
	return l.records[len(l.records)-1], nil
}

type recordingObserver struct {
	got []sale.Record
	err error
}

func (o *recordingObserver) OnTransactionFinalized(_ context.Context, rec sale.Record) error {
	o.got = append(o.got, rec)
	return o.err
}

type fixture struct {
	j         *journal
	drawer    *fakeDrawer
	printer   *fakePrinter
	inventory *fakeInventory
	ledger    *fakeAccounting
	log       *fakeLog
}

func newFixture() *fixture {
	j := &journal{}
	return &fixture{
		j:         j,
		drawer:    &fakeDrawer{j: j},
		printer:   &fakePrinter{j: j},
		inventory: &fakeInventory{j: j},
		ledger:    &fakeAccounting{j: j},
		log:       &fakeLog{j: j},
	}
}

func (f *fixture) finalizer(t *testing.T, logger zerolog.Logger) *sale.Finalizer {
	t.Helper()
	fin, err := sale.NewFinalizer(sale.Collaborators{
		Drawer:     f.drawer,
		Printer:    f.printer,
		Inventory:  f.inventory,
		Accounting: f.ledger,
		Log:        f.log,
	}, logger)
	require.NoError(t, err)
	return fin
}

func sampleRecord(t *testing.T) sale.Record {
	t.Helper()
	b := basket.New()
	require.NoError(t, b.Add(basket.Item{ID: "A", Name: "ItemA", Price: money.New(1000), VATRate: decimal.RequireFromString("0.06")}, 2))
	p := payment.Record{
		TotalPrice: money.New(2000),
		TotalVAT:   money.New(120),
		AmountPaid: money.New(2500),
		Change:     money.New(500),
	}
	return sale.NewRecord(b, p, "", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
}

func TestNewRecordSnapshotsBasket(t *testing.T) {
	b := basket.New()
	require.NoError(t, b.Add(basket.Item{ID: "A", Price: money.New(1000)}, 1))
	rec := sale.NewRecord(b, payment.Record{}, "c-1", time.Now())
	require.NoError(t, b.Add(basket.Item{ID: "B", Price: money.New(50)}, 1))

	require.Len(t, rec.Lines, 1)
	require.Equal(t, "c-1", rec.CustomerID)
	require.NotEqual(t, rec.ID.String(), sale.NewRecord(b, payment.Record{}, "", time.Now()).ID.String())
}

func TestNewFinalizerRequiresCollaborators(t *testing.T) {
	_, err := sale.NewFinalizer(sale.Collaborators{}, zerolog.Nop())
	require.Error(t, err)
}

func TestFinalizeRunsStepsInOrder(t *testing.T) {
	f := newFixture()
	fin := f.finalizer(t, zerolog.Nop())
	observer := &recordingObserver{}
	fin.AddObserver(observer)

	rec := sampleRecord(t)
	require.NoError(t, fin.Finalize(context.Background(), rec))

	require.Equal(t, []string{"drawer", "printer", "inventory", "accounting", "log.append", "log.last"}, f.j.steps)
	require.Len(t, observer.got, 1)
	require.Equal(t, rec.ID, observer.got[0].ID)
}

func TestObserversReceiveLastLoggedRecord(t *testing.T) {
	f := newFixture()
	earlier := sampleRecord(t)
	f.log.records = []sale.Record{earlier}

	// a log that drops the append still reports its last stored record
	fin, err := sale.NewFinalizer(sale.Collaborators{
		Drawer:     f.drawer,
		Printer:    f.printer,
		Inventory:  f.inventory,
		Accounting: f.ledger,
		Log:        &droppingLog{fakeLog: f.log},
	}, zerolog.Nop())
	require.NoError(t, err)
	observer := &recordingObserver{}
	fin.AddObserver(observer)

	require.NoError(t, fin.Finalize(context.Background(), sampleRecord(t)))
	require.Len(t, observer.got, 1)
	require.Equal(t, earlier.ID, observer.got[0].ID)
}

type droppingLog struct {
	*fakeLog
}

func (d *droppingLog) Append(context.Context, sale.Record) error {
	d.j.add("log.append")
	return nil
}

func TestCollaboratorFailureStopsProtocol(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *fixture)
		steps []string
		step  string
	}{
		{
			name:  "drawer",
			setup: func(f *fixture) { f.drawer.err = errors.New("drawer jammed") },
			steps: []string{"drawer"},
			step:  "finalize." + sale.StepCashDrawer,
		},
		{
			name:  "printer",
			setup: func(f *fixture) { f.printer.err = errors.New("out of paper") },
			steps: []string{"drawer", "printer"},
			step:  "finalize." + sale.StepPrint,
		},
		{
			name:  "accounting",
			setup: func(f *fixture) { f.ledger.err = errors.New("ledger offline") },
			steps: []string{"drawer", "printer", "inventory", "accounting"},
			step:  "finalize." + sale.StepAccounting,
		},
		{
			name:  "sale log",
			setup: func(f *fixture) { f.log.err = errors.New("disk full") },
			steps: []string{"drawer", "printer", "inventory", "accounting", "log.append"},
			step:  "finalize." + sale.StepSaleLog,
		},
		{
			name:  "last appended",
			setup: func(f *fixture) { f.log.lastErr = errors.New("read failed") },
			steps: []string{"drawer", "printer", "inventory", "accounting", "log.append", "log.last"},
			step:  "finalize." + sale.StepFetchLast,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			tc.setup(f)
			fin := f.finalizer(t, zerolog.Nop())
			observer := &recordingObserver{}
			fin.AddObserver(observer)

			rec := sampleRecord(t)
			err := fin.Finalize(context.Background(), rec)
			require.ErrorIs(t, err, sale.ErrCollaborator)
			require.Equal(t, common.CodeCollaboratorUnavailable, common.CodeOf(err))
			require.Contains(t, err.Error(), rec.ID.String())

			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tc.step, appErr.Step)
			require.Equal(t, tc.steps, f.j.steps)
			require.Empty(t, observer.got)
		})
	}
}

func TestInventoryFailureIsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture()
	f.inventory.err = errors.New("stock service down")
	fin := f.finalizer(t, zerolog.New(&buf))
	observer := &recordingObserver{}
	fin.AddObserver(observer)

	require.NoError(t, fin.Finalize(context.Background(), sampleRecord(t)))
	require.Len(t, f.log.records, 1)
	require.Len(t, observer.got, 1)
	require.Contains(t, buf.String(), "inventory update failed")
	require.Contains(t, buf.String(), `"level":"warn"`)
}

func TestFinalizationObserversAreIsolated(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture()
	fin := f.finalizer(t, zerolog.New(&buf))
	failing := &recordingObserver{err: errors.New("report broken")}
	after := &recordingObserver{}
	fin.AddObservers(failing, after, failing)

	require.NoError(t, fin.Finalize(context.Background(), sampleRecord(t)))
	require.Len(t, failing.got, 1)
	require.Len(t, after.got, 1)
	require.Contains(t, buf.String(), "finalization observer failed")
}

func TestObserverAddedTwiceIsNotifiedOncePerFinalize(t *testing.T) {
	f := newFixture()
	fin := f.finalizer(t, zerolog.Nop())
	observer := &recordingObserver{}
	fin.AddObserver(observer)
	fin.AddObserver(observer)

	require.NoError(t, fin.Finalize(context.Background(), sampleRecord(t)))
	require.Len(t, observer.got, 1)

	require.NoError(t, fin.Finalize(context.Background(), sampleRecord(t)))
	require.Len(t, observer.got, 2)
}

func TestRecordCloneDoesNotShareState(t *testing.T) {
	rec := sampleRecord(t)
	rec.Payment.Discount = &payment.Discounted{Amount: money.New(200), RuleName: "ten"}

	cp := rec.Clone()
	rec.Lines[0].Quantity = 99
	rec.Payment.Discount.RuleName = "edited"

	require.Equal(t, 2, cp.Lines[0].Quantity)
	require.Equal(t, "ten", cp.Payment.Discount.RuleName)
	require.Equal(t, rec.ID, cp.ID)
	require.Nil(t, sale.Record{}.Clone().Lines)
}
