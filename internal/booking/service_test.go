package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/submission"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []EventLog
	err    error
}

func (r *recordingEvents) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEvents) DeleteEventsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

type serviceFixture struct {
	svc    *Service
	clock  *fakeClock
	sender *fakeSender
	events *recordingEvents
	locker redisclient.Locker
}

func newServiceFixture(t *testing.T, store SessionStore, locker redisclient.Locker) *serviceFixture {
	t.Helper()
	clock := newFakeClock()
	sender := &fakeSender{result: submission.Result{Outcome: submission.Success, StatusCode: http.StatusOK}}
	events := &recordingEvents{}
	if locker == nil {
		locker = NewLocalLocker()
	}
	svc := NewService(Deps{
		Store:       store,
		Locker:      locker,
		Events:      events,
		Departments: &fakeLister{names: []string{"Kardiologiya", "Nevrologiya"}},
		Sender:      sender,
	}, Options{
		ResetDelay: 2 * time.Second,
		WindowDays: 30,
		Location:   tashkent,
		Now:        clock.Now,

		StaleSubmitAfter: 2 * time.Minute,
	}, 30*time.Minute)
	return &serviceFixture{svc: svc, clock: clock, sender: sender, events: events, locker: locker}
}

func (fx *serviceFixture) validFields() map[string]string {
	return map[string]string{
		FieldFullName:        "Aziza Karimova",
		FieldPhoneNumber:     "+998 90 123 45 67",
		FieldDepartment:      "Kardiologiya",
		FieldAppointmentDate: fx.clock.Now().AddDate(0, 0, 5).Format(DateLayout),
		FieldAppointmentTime: "10:00",
	}
}

func TestServiceOpenAndGet(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, snap, err := fx.svc.Open(ctx, Config{PrefillDoctor: "Aziz Karimov"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, "Aziz Karimov", snap.Draft.DoctorName)
	assert.Equal(t, []string{"Kardiologiya", "Nevrologiya"}, snap.Departments)

	got, err := fx.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = fx.svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrFormNotFound)
	assert.Equal(t, []string{EventFormOpened}, fx.events.types())
}

func TestServiceSubmitSuccessFlow(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)

	snap, err := fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	assert.True(t, snap.Draft.IsEmpty())
	require.NotNil(t, snap.LastOutcome)
	assert.Equal(t, "success", *snap.LastOutcome)
	assert.Equal(t, 1, fx.sender.calls())

	fx.clock.Advance(2 * time.Second)
	snap, err = fx.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, snap.State)

	assert.Equal(t, []string{EventFormOpened, EventBookingSubmitted, EventBookingSucceeded}, fx.events.types())
	for _, ev := range fx.events.events {
		assert.NotContains(t, string(ev.Payload), "Aziza")
		assert.NotContains(t, string(ev.Payload), "123 45 67")
		require.NotNil(t, ev.FormID)
		assert.Equal(t, id, *ev.FormID)
	}
}

func TestServiceSubmitFailureKeepsDraft(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	fx.sender.result = submission.Result{Outcome: submission.NetworkError, Err: errors.New("timeout")}
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)

	snap, err := fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Aziza Karimova", snap.Draft.FullName)
	assert.Equal(t, "10:00", snap.Draft.AppointmentTime)

	var payload map[string]any
	last := fx.events.events[len(fx.events.events)-1]
	assert.Equal(t, EventBookingFailed, last.EventType)
	require.NoError(t, json.Unmarshal(last.Payload, &payload))
	assert.Equal(t, "network_error", payload["outcome"])
}

func TestServiceInvalidDraftIsNotSent(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)

	_, err = fx.svc.Submit(ctx, id)
	assert.ErrorIs(t, err, ErrInvalidDraft)
	assert.Zero(t, fx.sender.calls())

	snap, err := fx.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, snap.State)
}

func TestServiceUpdateFieldsIsAllOrNothing(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)

	_, err = fx.svc.UpdateFields(ctx, id, map[string]string{FieldFullName: "Aziza", "email": "a@b.uz"})
	assert.ErrorIs(t, err, ErrUnknownField)

	snap, err := fx.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snap.Draft.FullName)
}

func TestServiceBusyForm(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)

	err = fx.locker.WithFormLock(ctx, id, func(ctx context.Context) error {
		_, err := fx.svc.SelectSlot(ctx, id, "09:00")
		return err
	})
	assert.ErrorIs(t, err, ErrFormBusy)
}

func TestServiceSecondSubmitWhileInFlight(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)

	fx.sender.hook = func() {
		_, err := fx.svc.Submit(ctx, id)
		assert.ErrorIs(t, err, ErrSubmitInFlight)
		_, err = fx.svc.Close(ctx, id)
		assert.ErrorIs(t, err, ErrSubmitInFlight)
	}

	snap, err := fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, 1, fx.sender.calls())
}

func TestServiceDiscardDuringSubmitDropsResult(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)

	fx.sender.hook = func() {
		require.NoError(t, fx.svc.Discard(ctx, id))
	}

	snap, err := fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, []string{EventFormOpened, EventBookingSubmitted}, fx.events.types())
}

func TestServiceSubmitOutlivesCallerCancellation(t *testing.T) {
	var accepted atomic.Bool
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		accepted.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	fx := newServiceFixture(t, NewMemoryStore(), nil)
	fx.svc.sender = submission.NewPipeline(collector.URL, nil)

	id, _, err := fx.svc.Open(context.Background(), Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(context.Background(), id, fx.validFields())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	snap, err := fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, accepted.Load())
	assert.Equal(t, StateSucceeded, snap.State)

	snap, err = fx.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
}

// flakyStore fails the next Set once armed.
type flakyStore struct {
	*MemoryStore
	failNext atomic.Bool
}

func (s *flakyStore) Set(ctx context.Context, id uuid.UUID, data []byte, ttl time.Duration) error {
	if s.failNext.CompareAndSwap(true, false) {
		return errors.New("redis: connection reset")
	}
	return s.MemoryStore.Set(ctx, id, data, ttl)
}

func TestServiceUnsavedResultDropsForm(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore()}
	fx := newServiceFixture(t, store, nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)

	fx.sender.hook = func() { store.failNext.Store(true) }

	_, err = fx.svc.Submit(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = fx.svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrFormNotFound)
	assert.Equal(t, []string{EventFormOpened, EventBookingSubmitted, EventBookingSucceeded}, fx.events.types())

	newID, snap, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)
	assert.Equal(t, StateOpen, snap.State)
}

func TestServiceAbandonedSubmissionBecomesFailed(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)

	// Begin without ever completing, as after a crash mid-send.
	_, err = fx.svc.mutate(ctx, id, func(f *Form) error {
		_, err := f.BeginSubmit()
		return err
	})
	require.NoError(t, err)

	_, err = fx.svc.Close(ctx, id)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	fx.clock.Advance(2 * time.Minute)
	snap, err := fx.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Aziza Karimova", snap.Draft.FullName)

	snap, err = fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, 1, fx.sender.calls())
}

func TestServiceCloseAndReopen(t *testing.T) {
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{PrefillDoctor: "Aziz Karimov"})
	require.NoError(t, err)
	_, err = fx.svc.UpdateFields(ctx, id, map[string]string{FieldMessage: "hello"})
	require.NoError(t, err)

	snap, err := fx.svc.Close(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, snap.State)
	assert.True(t, snap.Draft.IsEmpty())

	snap, err = fx.svc.Close(ctx, id)
	require.NoError(t, err, "closing twice is harmless")
	assert.Equal(t, StateClosed, snap.State)

	snap, err = fx.svc.Reopen(ctx, id, Config{PrefillDoctor: "Aziz Karimov"})
	require.NoError(t, err)
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, Draft{DoctorName: "Aziz Karimov"}, snap.Draft)

	assert.Equal(t, []string{EventFormOpened, EventFormClosed, EventFormOpened}, fx.events.types())
}

func TestServiceSwallowsEventLogFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fx := newServiceFixture(t, NewMemoryStore(), nil)
	fx.svc.logger = zap.New(core)
	fx.events.err = errors.New("connection refused")

	_, _, err := fx.svc.Open(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("insert booking event").Len())
}

func TestServiceIdleSessionsExpire(t *testing.T) {
	store := NewMemoryStore()
	fx := newServiceFixture(t, store, nil)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	now = now.Add(31 * time.Minute)
	assert.Equal(t, 1, store.Sweep(now))
	_, err = fx.svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestServiceWithRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fx := newServiceFixture(t, redisclient.NewSessionStore(client), redisclient.NewRedisFormLocker(client, 5*time.Second))
	ctx := context.Background()

	id, _, err := fx.svc.Open(ctx, Config{AllowPhotoAttachment: true})
	require.NoError(t, err)
	assert.True(t, mr.Exists("form:"+id.String()))

	_, err = fx.svc.UpdateFields(ctx, id, fx.validFields())
	require.NoError(t, err)
	_, err = fx.svc.AttachPhoto(ctx, id, &submission.Attachment{Filename: "rash.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)

	snap, err := fx.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, snap.State)
	require.Len(t, fx.sender.requests, 1)
	require.NotNil(t, fx.sender.requests[0].Photo)
	assert.Equal(t, []byte("jpeg"), fx.sender.requests[0].Photo.Data)
	assert.False(t, mr.Exists("lock:form:"+id.String()))
}
