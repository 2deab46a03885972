package booking

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/notify"
	"github.com/starskyline/bareerah/internal/session"
)

type stubService struct {
	mu    sync.Mutex
	ref   string
	err   error
	calls int
}

func (s *stubService) Create(_ context.Context, _ Draft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.ref, s.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []notify.Kind
	last  notify.Payload
}

func (n *recordingNotifier) NotifyAsync(kind notify.Kind, p notify.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.last = p
}

func completeSession() *session.Session {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := session.New("sess-1", "voice", "+971501234567", lexicon.English, now)
	s.Lock(session.SlotDropoff, "Dubai International Airport (DXB)")
	s.Lock(session.SlotPickup, "Dubai Marina")
	s.Lock(session.SlotDateTime, "tomorrow 5 PM")
	s.Lock(session.SlotPassengers, "3")
	s.Lock(session.SlotLuggage, "2")
	s.Lock(session.SlotName, "Ahmed Khan")
	s.Lock(session.SlotContact, "+971501234567")
	s.BookingType = string(fleet.AirportTransfer)
	s.Offer = &session.Offer{Vehicle: string(fleet.Sedan), FareAED: 140, DistanceKm: 33.3, FareSource: "local"}
	return s
}

func TestDraftFromSession(t *testing.T) {
	s := completeSession()
	s.Flag("low confidence", session.SlotPickup, "marna", time.Now())

	d, err := DraftFromSession(s)
	require.NoError(t, err)
	assert.Equal(t, "Dubai Marina", d.Pickup)
	assert.Equal(t, 3, d.Passengers)
	assert.Equal(t, 2, d.Luggage)
	assert.Equal(t, fleet.Sedan, d.VehicleType)
	assert.Equal(t, fleet.AirportTransfer, d.BookingType)
	assert.True(t, d.NeedsFollowUp)
	assert.Equal(t, []string{"low confidence (pickup)"}, d.FollowUpReasons)
	assert.Empty(t, d.Email)
}

func TestDraftFromSessionRequiresSlotsAndOffer(t *testing.T) {
	s := completeSession()
	s.Unlock(session.SlotLuggage)
	_, err := DraftFromSession(s)
	assert.ErrorIs(t, err, ErrIncompleteDraft)
	assert.Contains(t, err.Error(), "luggage")

	s = completeSession()
	s.Offer = nil
	_, err = DraftFromSession(s)
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestNewReferenceFormat(t *testing.T) {
	ref := NewReference(time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^SSL-260314-[0-9A-F]{6}$`), ref)
	assert.NotEqual(t, ref, NewReference(time.Now()))
}

func TestSpokenReference(t *testing.T) {
	assert.Equal(t, "S S L, 2 6, A 1", SpokenReference("SSL-26-A1"))
}

func TestFinalizeConfirmed(t *testing.T) {
	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)

	svc := &stubService{ref: "BK-1001"}
	repo := NewMemoryRepository()
	notifier := &recordingNotifier{}
	f := NewFinalizer(svc, repo, notifier, time.Second, nil, nil)

	out := f.Finalize(context.Background(), d)
	assert.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, "BK-1001", out.Reference)
	assert.Equal(t, []notify.Kind{notify.KindBookingConfirmed}, notifier.kinds)
	assert.Equal(t, "BK-1001", notifier.last.Reference)

	pending, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFinalizeDegradesToPending(t *testing.T) {
	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)

	svc := &stubService{err: extcall.Unavailable("booking_service", errors.New("502"))}
	repo := NewMemoryRepository()
	notifier := &recordingNotifier{}
	f := NewFinalizer(svc, repo, notifier, time.Second, nil, nil)

	out := f.Finalize(context.Background(), d)
	assert.Equal(t, StatusPending, out.Status)
	assert.Regexp(t, `^SSL-\d{6}-[0-9A-F]{6}$`, out.Reference)
	assert.Equal(t, 2, svc.calls, "unavailable is retried once")
	assert.Equal(t, []notify.Kind{notify.KindBookingPending}, notifier.kinds)

	rec, ok := repo.Get(out.Reference)
	require.True(t, ok)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Contains(t, rec.SyncError, "502")
}

func TestFinalizeWithoutServiceStillReturnsReference(t *testing.T) {
	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	out := NewFinalizer(nil, nil, notifier, 0, nil, nil).Finalize(context.Background(), d)
	assert.Equal(t, StatusPending, out.Status)
	assert.NotEmpty(t, out.Reference)
	assert.Len(t, notifier.kinds, 1)
}

func TestRetryPendingConfirms(t *testing.T) {
	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)
	svc := &stubService{err: extcall.Invalid("booking_service", errors.New("400"))}
	repo := NewMemoryRepository()
	f := NewFinalizer(svc, repo, nil, time.Second, nil, nil)
	out := f.Finalize(context.Background(), d)
	require.Equal(t, StatusPending, out.Status)

	svc.err = nil
	svc.ref = "BK-2002"
	n, err := f.RetryPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	rec, _ := repo.Get(out.Reference)
	assert.Equal(t, StatusConfirmed, rec.Status)
	assert.Equal(t, "BK-2002", rec.BackendReference)
}

func TestPayloadMarksPending(t *testing.T) {
	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)
	p := Payload(Record{Draft: d, Status: StatusPending}, "SSL-1")
	assert.Contains(t, p.Summary, "NOT synced")
	assert.Equal(t, "SSL-1", p.Reference)
}

func TestPostgresRepositorySave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)
	d.Reference = "SSL-260314-ABCDEF"
	now := time.Now().UTC()

	args := []any{"SSL-260314-ABCDEF", "pending"}
	for i := 0; i < 23; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	mock.ExpectExec("INSERT INTO pending_bookings").WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	err = repo.Save(context.Background(), Record{Draft: d, Status: StatusPending, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryListPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	d, err := DraftFromSession(completeSession())
	require.NoError(t, err)
	d.Reference = "SSL-260314-000001"
	payload, err := json.Marshal(d)
	require.NoError(t, err)
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"payload", "status", "backend_reference", "sync_error", "created_at", "updated_at"}).
		AddRow(payload, "pending", "", "timeout", created, created)
	mock.ExpectQuery("SELECT payload, status").WithArgs(5).WillReturnRows(rows)

	recs, err := NewPostgresRepository(mock).ListPending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "SSL-260314-000001", recs[0].Reference)
	assert.Equal(t, "Dubai Marina", recs[0].Pickup)
	assert.Equal(t, "timeout", recs[0].SyncError)
	require.NoError(t, mock.ExpectationsWereMet())
}
