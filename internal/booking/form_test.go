package booking

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/submission"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 16, 10, 0, 0, 0, tashkent)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSender struct {
	mu       sync.Mutex
	result   submission.Result
	requests []submission.Request
	hook     func()
}

func (s *fakeSender) Send(_ context.Context, req submission.Request) submission.Result {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	hook := s.hook
	res := s.result
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res
}

func (s *fakeSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type fakeLister struct {
	names []string
	err   error
	calls int
}

func (l *fakeLister) DepartmentNames(context.Context) ([]string, error) {
	l.calls++
	return l.names, l.err
}

func newTestForm(clock *fakeClock) *Form {
	return NewForm(Options{
		ResetDelay: 2 * time.Second,
		WindowDays: 30,
		Location:   tashkent,
		Now:        clock.Now,
	})
}

func fillValid(t *testing.T, f *Form, clock *fakeClock) {
	t.Helper()
	require.NoError(t, f.UpdateField(FieldFullName, "Aziza Karimova"))
	require.NoError(t, f.UpdateField(FieldPhoneNumber, "+998 (90) 123-45-67"))
	require.NoError(t, f.UpdateField(FieldAppointmentDate, clock.Now().AddDate(0, 0, 5).Format(DateLayout)))
	require.NoError(t, f.SelectSlot("10:00"))
}

func TestFormStartsClosedAndRejectsEdits(t *testing.T) {
	f := newTestForm(newFakeClock())
	assert.Equal(t, StateClosed, f.State())
	assert.ErrorIs(t, f.UpdateField(FieldFullName, "x"), ErrNotEditable)

	_, err := f.Submit(context.Background(), &fakeSender{})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, f.Close(), "closing a closed form is a no-op")
}

func TestFormOpenSeedsPrefillAndIsIdempotent(t *testing.T) {
	f := newTestForm(newFakeClock())
	cfg := Config{PrefillDoctor: "Aziz Karimov", PrefillDepartment: "Kardiologiya"}
	lister := &fakeLister{names: []string{"Kardiologiya"}}

	require.NoError(t, f.Open(context.Background(), cfg, lister))
	first := f.Draft()

	require.NoError(t, f.UpdateField(FieldMessage, "abandoned"))
	require.NoError(t, f.Open(context.Background(), cfg, lister))

	assert.Equal(t, first, f.Draft())
	assert.Equal(t, Draft{DoctorName: "Aziz Karimov", Department: "Kardiologiya"}, f.Draft())
	assert.Equal(t, StateOpen, f.State())
	assert.Equal(t, []string{"Kardiologiya"}, f.Departments())
	assert.Equal(t, 2, lister.calls)
}

func TestFormDepartmentFetchFailureLeavesSelectorEmpty(t *testing.T) {
	f := newTestForm(newFakeClock())
	err := f.Open(context.Background(), Config{}, &fakeLister{err: errors.New("dial tcp: connection refused")})

	require.NoError(t, err)
	assert.Equal(t, StateOpen, f.State())
	assert.Empty(t, f.Departments())
	assert.NotNil(t, f.Departments())
}

func TestFormUnknownFieldAndUnavailableSlot(t *testing.T) {
	clock := newFakeClock()
	f := NewForm(Options{
		Slots:      []Slot{{ID: 1, Label: "09:00", Available: true}, {ID: 2, Label: "09:30", Available: false}},
		WindowDays: 30,
		Location:   tashkent,
		Now:        clock.Now,
	})
	require.NoError(t, f.Open(context.Background(), Config{}, nil))

	assert.ErrorIs(t, f.UpdateField("email", "x"), ErrUnknownField)

	require.NoError(t, f.SelectSlot("09:00"))
	assert.ErrorIs(t, f.SelectSlot("09:30"), ErrSlotUnavailable)
	assert.Equal(t, "09:00", f.Draft().AppointmentTime)
	assert.True(t, f.IsSelected("09:00"))
}

func TestFormInvalidSubmitNeverSends(t *testing.T) {
	for _, missing := range []string{FieldFullName, FieldPhoneNumber, FieldAppointmentDate, FieldAppointmentTime} {
		t.Run(missing, func(t *testing.T) {
			clock := newFakeClock()
			f := newTestForm(clock)
			require.NoError(t, f.Open(context.Background(), Config{}, nil))
			fillValid(t, f, clock)

			// Rebuild the draft without the one field.
			d := f.Draft()
			f.mu.Lock()
			switch missing {
			case FieldFullName:
				d.FullName = ""
			case FieldPhoneNumber:
				d.PhoneNumber = ""
			case FieldAppointmentDate:
				d.AppointmentDate = ""
			case FieldAppointmentTime:
				d.AppointmentTime = ""
			}
			f.draft = d
			f.mu.Unlock()

			sender := &fakeSender{result: submission.Result{Outcome: submission.Success, StatusCode: 200}}
			_, err := f.Submit(context.Background(), sender)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, ReasonRequired, verr.Fields[missing])
			assert.Zero(t, sender.calls())
			assert.Equal(t, StateOpen, f.State())
		})
	}
}

func TestFormScenarioSuccessClearsDraftThenCloses(t *testing.T) {
	clock := newFakeClock()
	f := newTestForm(clock)
	require.NoError(t, f.Open(context.Background(), Config{}, nil))
	fillValid(t, f, clock)

	sender := &fakeSender{result: submission.Result{Outcome: submission.Success, StatusCode: http.StatusOK}}
	res, err := f.Submit(context.Background(), sender)
	require.NoError(t, err)
	assert.True(t, res.OK())

	require.Equal(t, 1, sender.calls())
	assert.Equal(t, "+998 (90) 123-45-67", sender.requests[0].PhoneNumber)
	assert.Equal(t, "10:00", sender.requests[0].AppointmentTime)

	assert.Equal(t, StateSucceeded, f.State())
	assert.True(t, f.Draft().IsEmpty(), "draft cleared immediately")
	assert.False(t, f.IsSelected("10:00"))

	clock.Advance(1999 * time.Millisecond)
	assert.Equal(t, StateSucceeded, f.State())

	clock.Advance(time.Millisecond)
	assert.Equal(t, StateClosed, f.State())
	_, ok := f.LastResult()
	assert.False(t, ok)
}

func TestFormScenarioServerErrorKeepsDraft(t *testing.T) {
	clock := newFakeClock()
	f := newTestForm(clock)
	require.NoError(t, f.Open(context.Background(), Config{PrefillDoctor: "Aziz Karimov"}, nil))
	fillValid(t, f, clock)
	before := f.Draft()

	sender := &fakeSender{result: submission.Result{Outcome: submission.ServerError, StatusCode: http.StatusInternalServerError}}
	_, err := f.Submit(context.Background(), sender)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, f.State())
	assert.Equal(t, before, f.Draft())
	last, ok := f.LastResult()
	require.True(t, ok)
	assert.Equal(t, submission.ServerError, last.Outcome)

	sender.result = submission.Result{Outcome: submission.Success, StatusCode: http.StatusCreated}
	_, err = f.Submit(context.Background(), sender)
	require.NoError(t, err, "resubmitting unchanged is permitted")
	assert.Equal(t, 2, sender.calls())
	assert.Equal(t, StateSucceeded, f.State())
}

func TestFormEditAfterFailureReturnsToOpen(t *testing.T) {
	clock := newFakeClock()
	f := newTestForm(clock)
	require.NoError(t, f.Open(context.Background(), Config{}, nil))
	fillValid(t, f, clock)

	_, err := f.Submit(context.Background(), &fakeSender{result: submission.Result{Outcome: submission.NetworkError}})
	require.NoError(t, err)
	require.Equal(t, StateFailed, f.State())

	require.NoError(t, f.UpdateField(FieldMessage, "please call after 18:00"))
	assert.Equal(t, StateOpen, f.State())
	_, ok := f.LastResult()
	assert.False(t, ok)
}

func TestFormRejectsCloseAndEditsWhileSubmitting(t *testing.T) {
	clock := newFakeClock()
	f := newTestForm(clock)
	require.NoError(t, f.Open(context.Background(), Config{}, nil))
	fillValid(t, f, clock)

	sender := &fakeSender{result: submission.Result{Outcome: submission.Success, StatusCode: 200}}
	sender.hook = func() {
		assert.Equal(t, StateSubmitting, f.State())
		assert.ErrorIs(t, f.Close(), ErrSubmitInFlight)
		assert.ErrorIs(t, f.UpdateField(FieldFullName, "x"), ErrNotEditable)
		_, err := f.BeginSubmit()
		assert.ErrorIs(t, err, ErrSubmitInFlight)
		assert.ErrorIs(t, f.Open(context.Background(), Config{}, nil), ErrSubmitInFlight)
	}

	_, err := f.Submit(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls())
	assert.Equal(t, StateSucceeded, f.State())
}

func TestFormStaleSubmissionFails(t *testing.T) {
	clock := newFakeClock()
	f := NewForm(Options{
		ResetDelay:       2 * time.Second,
		WindowDays:       30,
		Location:         tashkent,
		Now:              clock.Now,
		StaleSubmitAfter: 2 * time.Minute,
	})
	require.NoError(t, f.Open(context.Background(), Config{}, nil))
	fillValid(t, f, clock)

	_, err := f.BeginSubmit()
	require.NoError(t, err)
	clock.Advance(time.Minute)
	assert.Equal(t, StateSubmitting, f.State())
	assert.ErrorIs(t, f.Close(), ErrSubmitInFlight)

	clock.Advance(time.Minute)
	assert.Equal(t, StateFailed, f.State())
	assert.Equal(t, "Aziza Karimova", f.Draft().FullName)
	res, ok := f.LastResult()
	require.True(t, ok)
	assert.Equal(t, submission.NetworkError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrOutcomeUnknown)

	f.CompleteSubmit(submission.Result{Outcome: submission.Success, StatusCode: http.StatusOK})
	assert.Equal(t, StateFailed, f.State(), "a result arriving after the give-up is dropped")
	assert.NoError(t, f.Close())
}

func TestFormSubmittingSinceSurvivesSnapshot(t *testing.T) {
	clock := newFakeClock()
	opts := Options{WindowDays: 30, Location: tashkent, Now: clock.Now, StaleSubmitAfter: time.Minute}
	f := NewForm(opts)
	require.NoError(t, f.Open(context.Background(), Config{}, nil))
	fillValid(t, f, clock)
	_, err := f.BeginSubmit()
	require.NoError(t, err)

	snap := f.Snapshot()
	require.NotNil(t, snap.SubmittingSince)
	assert.Equal(t, clock.Now(), *snap.SubmittingSince)

	clock.Advance(time.Minute)
	assert.Equal(t, StateFailed, RestoreForm(snap, opts).State())
}

func TestFormCloseClearsDraft(t *testing.T) {
	clock := newFakeClock()
	f := newTestForm(clock)
	require.NoError(t, f.Open(context.Background(), Config{PrefillDoctor: "Aziz Karimov"}, nil))
	fillValid(t, f, clock)

	require.NoError(t, f.Close())
	assert.Equal(t, StateClosed, f.State())
	assert.True(t, f.Draft().IsEmpty())
}

func TestFormPhotoOnlyWhenAllowed(t *testing.T) {
	f := newTestForm(newFakeClock())
	photo := &submission.Attachment{Filename: "rash.jpg", ContentType: "image/jpeg", Data: []byte{1}}

	require.NoError(t, f.Open(context.Background(), Config{}, nil))
	assert.ErrorIs(t, f.AttachPhoto(photo), ErrPhotoNotAllowed)

	require.NoError(t, f.Open(context.Background(), Config{AllowPhotoAttachment: true}, nil))
	require.NoError(t, f.AttachPhoto(photo))
	assert.Equal(t, photo, f.Draft().Photo)

	require.NoError(t, f.AttachPhoto(nil))
	assert.Nil(t, f.Draft().Photo)
}

func TestSnapshotRoundTripKeepsSelectionAndOutcome(t *testing.T) {
	clock := newFakeClock()
	f := newTestForm(clock)
	require.NoError(t, f.Open(context.Background(), Config{RequireDepartment: true}, &fakeLister{names: []string{"Kardiologiya"}}))
	fillValid(t, f, clock)
	require.NoError(t, f.UpdateField(FieldDepartment, "Kardiologiya"))
	_, err := f.Submit(context.Background(), &fakeSender{result: submission.Result{Outcome: submission.ServerError, StatusCode: 502}})
	require.NoError(t, err)

	restored := RestoreForm(f.Snapshot(), Options{ResetDelay: 2 * time.Second, WindowDays: 30, Location: tashkent, Now: clock.Now})

	assert.Equal(t, StateFailed, restored.State())
	assert.Equal(t, f.Draft(), restored.Draft())
	assert.True(t, restored.IsSelected("10:00"))
	assert.Equal(t, f.Config(), restored.Config())
	last, ok := restored.LastResult()
	require.True(t, ok)
	assert.Equal(t, submission.ServerError, last.Outcome)
	assert.Equal(t, 502, last.StatusCode)
}
