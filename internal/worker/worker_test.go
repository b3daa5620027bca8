package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stockbook/internal/dto"
	"stockbook/internal/infra"
	"stockbook/internal/model"
	"stockbook/internal/repository"
	"stockbook/internal/service"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Pool ──────────────────────────────────────────────────────────────────────

type funcProcessor func(ctx context.Context, raw json.RawMessage) error

func (f funcProcessor) Process(ctx context.Context, raw json.RawMessage) error { return f(ctx, raw) }

type poolSpy struct {
	requeued []Job
	dead     []Job
	reasons  []string
}

func newTestPool(procs map[string]Processor) (*Pool, *poolSpy) {
	spy := &poolSpy{}
	p := NewPool(nil, procs)
	p.requeue = func(_ context.Context, _ string, job Job) error {
		spy.requeued = append(spy.requeued, job)
		return nil
	}
	p.deadLetter = func(_ context.Context, _ string, job Job, reason string) {
		spy.dead = append(spy.dead, job)
		spy.reasons = append(spy.reasons, reason)
	}
	return p, spy
}

func encode(t *testing.T, job Job) string {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return string(b)
}

func TestPool_RetriesThenDeadLetters(t *testing.T) {
	calls := 0
	p, spy := newTestPool(map[string]Processor{
		JobReportEmail: funcProcessor(func(context.Context, json.RawMessage) error {
			calls++
			return errors.New("smtp down")
		}),
	})
	ctx := context.Background()

	job := Job{Type: JobReportEmail, Payload: json.RawMessage(`{}`)}
	p.handle(ctx, QueueEmail, encode(t, job))
	require.Len(t, spy.requeued, 1)
	assert.Equal(t, 1, spy.requeued[0].Attempts)

	p.handle(ctx, QueueEmail, encode(t, spy.requeued[0]))
	p.handle(ctx, QueueEmail, encode(t, spy.requeued[1]))

	assert.Equal(t, MaxJobAttempts, calls)
	assert.Len(t, spy.requeued, MaxJobAttempts-1)
	require.Len(t, spy.dead, 1)
	assert.Equal(t, "smtp down", spy.reasons[0])
}

func TestPool_PermanentAndUnknown(t *testing.T) {
	p, spy := newTestPool(map[string]Processor{
		JobReportEmail: funcProcessor(func(context.Context, json.RawMessage) error { return ErrPermanent }),
	})
	ctx := context.Background()

	p.handle(ctx, QueueEmail, encode(t, Job{Type: JobReportEmail}))
	p.handle(ctx, QueueEmail, encode(t, Job{Type: "mystery"}))
	p.handle(ctx, QueueEmail, "{not json")

	assert.Empty(t, spy.requeued)
	assert.Len(t, spy.dead, 3)
}

func TestPool_Success(t *testing.T) {
	p, spy := newTestPool(map[string]Processor{
		JobReportEmail: funcProcessor(func(context.Context, json.RawMessage) error { return nil }),
	})
	p.handle(context.Background(), QueueEmail, encode(t, Job{Type: JobReportEmail}))
	assert.Empty(t, spy.requeued)
	assert.Empty(t, spy.dead)
}

func TestDispatcher_WithoutRedis(t *testing.T) {
	err := NewDispatcher(nil).EnqueueReportEmail(context.Background(), ReportEmailPayload{To: "a@b.c"})
	assert.ErrorIs(t, err, ErrQueueUnavailable)
}

func TestDLQEntry(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	e := newDLQEntry(QueueEmail, JobReportEmail, json.RawMessage(`{"to":"x"}`), "boom", 3, at)
	assert.Equal(t, "2024-03-01T09:00:00Z", e.FailedAt)
	assert.Equal(t, QueueEmail, e.OriginalQueue)
}

// ── Report email worker ───────────────────────────────────────────────────────

type stubReports struct {
	gotOrg *uuid.UUID
	err    error
}

func (s *stubReports) Compute(_ context.Context, date model.Day, org *uuid.UUID) (*dto.StockReportResponse, error) {
	s.gotOrg = org
	if s.err != nil {
		return nil, s.err
	}
	return &dto.StockReportResponse{Success: true, Date: date, Report: []dto.ReportRow{
		{ItemID: "a", ItemName: "Flour", ItemUnit: "kg", OpeningStock: decimal.NewFromInt(5), Sales: decimal.NewFromInt(2), ClosingStock: decimal.NewFromInt(3), CurrentQuantity: decimal.NewFromInt(3)},
	}}, nil
}

type stubMailer struct {
	sent []infra.Message
	err  error
}

func (m *stubMailer) Send(msg infra.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestReportEmailWorker(t *testing.T) {
	reports := &stubReports{}
	mailer := &stubMailer{}
	w := NewReportEmailWorker(reports, mailer)
	org := uuid.New().String()

	raw, _ := json.Marshal(ReportEmailPayload{To: "owner@acme.test", Date: "2024-03-01", OrganizationID: &org, Title: "Acme"})
	require.NoError(t, w.Process(context.Background(), raw))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"owner@acme.test"}, msg.To)
	assert.Equal(t, "Acme 2024-03-01", msg.Subject)
	assert.Contains(t, msg.Body, "Flour: opening 5, sold 2, closing 3 kg")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "stock-report-2024-03-01.xlsx", msg.Attachments[0].Name)
	assert.Equal(t, org, reports.gotOrg.String())
}

func TestReportEmailWorker_Errors(t *testing.T) {
	ctx := context.Background()

	w := NewReportEmailWorker(&stubReports{}, &stubMailer{})
	assert.ErrorIs(t, w.Process(ctx, json.RawMessage(`{"to":""}`)), ErrPermanent)
	assert.ErrorIs(t, w.Process(ctx, json.RawMessage(`nope`)), ErrPermanent)

	w = NewReportEmailWorker(&stubReports{}, &stubMailer{err: infra.ErrMailerDisabled})
	assert.ErrorIs(t, w.Process(ctx, json.RawMessage(`{"to":"a@b.c","date":"2024-03-01"}`)), ErrPermanent)

	transient := errors.New("dial tcp: timeout")
	w = NewReportEmailWorker(&stubReports{}, &stubMailer{err: transient})
	err := w.Process(ctx, json.RawMessage(`{"to":"a@b.c","date":"2024-03-01"}`))
	assert.ErrorIs(t, err, transient)
	assert.NotErrorIs(t, err, ErrPermanent)
}

// ── Scheduler ─────────────────────────────────────────────────────────────────

type stubOrgs struct {
	repository.OrganizationRepository
	orgs []model.Organization
}

func (s *stubOrgs) ListScheduled(context.Context) ([]model.Organization, error) { return s.orgs, nil }

type finalizeCall struct {
	kind model.SnapshotKind
	org  uuid.UUID
	date model.Day
}

type stubSnapshots struct {
	service.SnapshotService
	calls []finalizeCall
	err   error
}

func (s *stubSnapshots) FinalizeDay(_ context.Context, kind model.SnapshotKind, org *uuid.UUID, date model.Day, _ uuid.UUID) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.calls = append(s.calls, finalizeCall{kind, *org, date})
	return 1, nil
}

type stubLocker struct {
	held map[string]bool
}

func (l *stubLocker) Obtain(_ context.Context, key string, _ time.Duration, _ *redislock.Options) (*redislock.Lock, error) {
	if l.held[key] {
		return nil, redislock.ErrNotObtained
	}
	l.held[key] = true
	return nil, nil
}

func TestScheduler_FinalizesOncePerBoundary(t *testing.T) {
	org := model.Organization{ID: uuid.New(), OpeningTime: ptr("08:00:00"), ClosingTime: ptr("22:00:00")}
	snaps := &stubSnapshots{}
	now := time.Date(2024, 3, 1, 7, 59, 0, 0, time.UTC)
	s := NewScheduler(SchedulerConfig{
		Orgs:      &stubOrgs{orgs: []model.Organization{org}},
		Snapshots: snaps,
		Locker:    &stubLocker{held: map[string]bool{}},
		Location:  time.UTC,
		Now:       func() time.Time { return now },
	})
	ctx := context.Background()

	assert.Equal(t, 0, s.Tick(ctx), "before opening")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Tick(ctx))
	assert.Equal(t, 0, s.Tick(ctx), "already done today")

	now = time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, s.Tick(ctx))

	require.Len(t, snaps.calls, 2)
	assert.Equal(t, finalizeCall{model.SnapshotOpening, org.ID, "2024-03-01"}, snaps.calls[0])
	assert.Equal(t, finalizeCall{model.SnapshotClosing, org.ID, "2024-03-01"}, snaps.calls[1])

	// next day: memory of yesterday is dropped, both boundaries can run again
	now = time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, s.Tick(ctx))
}

func TestScheduler_SkipsBoundaryOwnedElsewhere(t *testing.T) {
	org := model.Organization{ID: uuid.New(), ClosingTime: ptr("20:00:00")}
	snaps := &stubSnapshots{}
	locker := &stubLocker{held: map[string]bool{
		"lock:finalize:" + boundaryKey(org.ID, "2024-03-01", model.SnapshotClosing): true,
	}}
	s := NewScheduler(SchedulerConfig{
		Orgs:      &stubOrgs{orgs: []model.Organization{org}},
		Snapshots: snaps,
		Locker:    locker,
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC) },
	})

	assert.Equal(t, 0, s.Tick(context.Background()))
	assert.Empty(t, snaps.calls)
}

func TestScheduler_FailureRetriesNextTick(t *testing.T) {
	org := model.Organization{ID: uuid.New(), OpeningTime: ptr("06:00:00")}
	snaps := &stubSnapshots{err: errors.New("db down")}
	s := NewScheduler(SchedulerConfig{
		Orgs:      &stubOrgs{orgs: []model.Organization{org}},
		Snapshots: snaps,
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	})

	assert.Equal(t, 0, s.Tick(context.Background()))
	snaps.err = nil
	assert.Equal(t, 1, s.Tick(context.Background()))
}

func ptr[T any](v T) *T { return &v }
