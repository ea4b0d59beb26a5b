package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hackgods/clinic-booking/internal/submission"
)

type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	ErrNotEditable     = errors.New("form is not editable in its current state")
	ErrSubmitInFlight  = errors.New("a submission is already in flight")
	ErrInvalidState    = errors.New("operation not allowed in the current form state")
	ErrUnknownField    = errors.New("unknown form field")
	ErrUnknownSlot     = errors.New("unknown time slot")
	ErrSlotUnavailable = errors.New("time slot is not available")
	ErrPhotoNotAllowed = errors.New("this form does not accept a photo")
	ErrOutcomeUnknown  = errors.New("submission outcome unknown")
)

// Config parametrizes one form instance by its entry point.
type Config struct {
	PrefillDoctor        string `json:"prefill_doctor,omitempty"`
	PrefillDepartment    string `json:"prefill_department,omitempty"`
	AllowPhotoAttachment bool   `json:"allow_photo_attachment"`
	RequireDepartment    bool   `json:"require_department"`
}

// Sender performs the network submission of a validated draft.
type Sender interface {
	Send(ctx context.Context, req submission.Request) submission.Result
}

// DepartmentLister provides the names shown in the department selector.
type DepartmentLister interface {
	DepartmentNames(ctx context.Context) ([]string, error)
}

// Options are the process-wide knobs every form shares.
type Options struct {
	Slots      []Slot
	ResetDelay time.Duration // Succeeded -> Closed
	WindowDays int
	Location   *time.Location
	Now        func() time.Time

	// StaleSubmitAfter moves a form stuck in Submitting to Failed; zero disables it.
	StaleSubmitAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.Slots == nil {
		o.Slots = DefaultCatalog()
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Form is the booking modal state machine:
//
//	Closed -> Open -> Submitting -> Succeeded | Failed
//	Succeeded -> Closed after ResetDelay
//	Failed -> Open on edit, Failed -> Submitting on resubmit
//	Submitting -> Failed after StaleSubmitAfter without a result
type Form struct {
	mu              sync.Mutex
	opts            Options
	cfg             Config
	state           State
	draft           Draft
	picker          *Picker
	departments     []string
	succeededAt     time.Time
	submittingSince time.Time
	lastResult      *submission.Result
}

func NewForm(opts Options) *Form {
	opts = opts.withDefaults()
	return &Form{
		opts:   opts,
		state:  StateClosed,
		picker: NewPicker(opts.Slots),
	}
}

// Open starts a fresh draft seeded from cfg and loads the department list
// once. A failed department fetch leaves the selector empty. Reopening an
// open form discards the previous draft.
func (f *Form) Open(ctx context.Context, cfg Config, lister DepartmentLister) error {
	departments := []string{}
	if lister != nil {
		if names, err := lister.DepartmentNames(ctx); err == nil && names != nil {
			departments = names
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.tick()
	if f.state == StateSubmitting {
		return ErrSubmitInFlight
	}

	f.cfg = cfg
	f.departments = departments
	f.draft = Draft{
		DoctorName: cfg.PrefillDoctor,
		Department: cfg.PrefillDepartment,
	}
	f.picker.reset()
	f.state = StateOpen
	f.lastResult = nil
	f.succeededAt = time.Time{}
	return nil
}

// UpdateField sets one draft field. Editing a failed form returns it to Open.
func (f *Form) UpdateField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return err
	}

	switch name {
	case FieldFullName:
		f.draft.FullName = value
	case FieldPhoneNumber:
		f.draft.PhoneNumber = value
	case FieldDepartment:
		f.draft.Department = value
	case FieldDoctorName:
		f.draft.DoctorName = value
	case FieldMessage:
		f.draft.Message = value
	case FieldAppointmentDate:
		f.draft.AppointmentDate = value
	case FieldAppointmentTime:
		if err := f.picker.Select(value); err != nil {
			return err
		}
		f.draft.AppointmentTime = f.picker.Selected()
	default:
		return ErrUnknownField
	}

	f.touch()
	return nil
}

// SelectSlot is the slot picker's click handler.
func (f *Form) SelectSlot(label string) error {
	return f.UpdateField(FieldAppointmentTime, label)
}

func (f *Form) IsSelected(label string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.picker.IsSelected(label)
}

// AttachPhoto sets or, with nil, removes the optional photo.
func (f *Form) AttachPhoto(photo *submission.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return err
	}
	if !f.cfg.AllowPhotoAttachment {
		return ErrPhotoNotAllowed
	}
	f.draft.Photo = photo
	f.touch()
	return nil
}

// Submit validates locally and, only if the draft is valid, performs exactly
// one send. A *ValidationError leaves the state untouched.
func (f *Form) Submit(ctx context.Context, sender Sender) (submission.Result, error) {
	req, err := f.BeginSubmit()
	if err != nil {
		return submission.Result{}, err
	}
	res := sender.Send(ctx, req)
	f.CompleteSubmit(res)
	return res, nil
}

// BeginSubmit validates the draft and moves the form to Submitting, returning
// the request to send.
func (f *Form) BeginSubmit() (submission.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tick()
	switch f.state {
	case StateOpen, StateFailed:
	case StateSubmitting:
		return submission.Request{}, ErrSubmitInFlight
	default:
		return submission.Request{}, ErrInvalidState
	}

	if err := f.draft.Validate(f.rules()); err != nil {
		return submission.Request{}, err
	}

	f.state = StateSubmitting
	f.submittingSince = f.opts.Now()
	return f.draft.request(), nil
}

// CompleteSubmit applies the outcome of the in-flight send. On success the
// draft is cleared at once; the Closed transition follows after ResetDelay.
// Results arriving outside Submitting are dropped.
func (f *Form) CompleteSubmit(res submission.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateSubmitting {
		return
	}

	f.submittingSince = time.Time{}
	f.lastResult = &res
	if res.OK() {
		f.state = StateSucceeded
		f.succeededAt = f.opts.Now()
		f.resetDraft()
		return
	}
	f.state = StateFailed
}

// Close dismisses the modal and clears the draft. It is refused while a
// submission is in flight; on a closed or succeeded form it does nothing.
func (f *Form) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tick()
	switch f.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateOpen, StateFailed:
		f.state = StateClosed
		f.resetDraft()
		f.lastResult = nil
	}
	return nil
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick()
	return f.state
}

func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick()
	return f.draft
}

func (f *Form) Config() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

func (f *Form) Departments() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.departments...)
}

// LastResult is the outcome of the latest completed send, if any.
func (f *Form) LastResult() (submission.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastResult == nil {
		return submission.Result{}, false
	}
	return *f.lastResult, true
}

func (f *Form) rules() Rules {
	return Rules{
		Today:             f.opts.Now().In(f.opts.Location),
		WindowDays:        f.opts.WindowDays,
		RequireDepartment: f.cfg.RequireDepartment,
		Departments:       f.departments,
		Slots:             f.opts.Slots,
	}
}

func (f *Form) editable() error {
	f.tick()
	if f.state != StateOpen && f.state != StateFailed {
		return ErrNotEditable
	}
	return nil
}

func (f *Form) touch() {
	if f.state == StateFailed {
		f.state = StateOpen
		f.lastResult = nil
	}
}

// tick applies the delayed Succeeded -> Closed transition and gives up on a
// submission whose result never came back.
func (f *Form) tick() {
	now := f.opts.Now()
	switch f.state {
	case StateSucceeded:
		if !now.Before(f.succeededAt.Add(f.opts.ResetDelay)) {
			f.state = StateClosed
			f.lastResult = nil
		}
	case StateSubmitting:
		if f.opts.StaleSubmitAfter > 0 && !f.submittingSince.IsZero() &&
			!now.Before(f.submittingSince.Add(f.opts.StaleSubmitAfter)) {
			f.state = StateFailed
			f.submittingSince = time.Time{}
			f.lastResult = &submission.Result{Outcome: submission.NetworkError, Err: ErrOutcomeUnknown}
		}
	}
}

func (f *Form) resetDraft() {
	f.draft = Draft{}
	f.picker.reset()
}
