package booking

import (
	"time"

	"github.com/hackgods/clinic-booking/internal/submission"
)

// Snapshot is the persisted form of a Form, used to move a session through a
// SessionStore between requests.
type Snapshot struct {
	Config      Config     `json:"config"`
	State       State      `json:"state"`
	Draft       Draft      `json:"draft"`
	Departments []string   `json:"departments"`
	SucceededAt *time.Time `json:"succeeded_at,omitempty"`
	LastOutcome *string    `json:"last_outcome,omitempty"`
	LastStatus  int        `json:"last_status,omitempty"`

	// SubmittingSince is set while a send is in flight.
	SubmittingSince *time.Time `json:"submitting_since,omitempty"`
}

func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick()

	s := Snapshot{
		Config:      f.cfg,
		State:       f.state,
		Draft:       f.draft,
		Departments: append([]string{}, f.departments...),
	}
	if !f.succeededAt.IsZero() {
		at := f.succeededAt
		s.SucceededAt = &at
	}
	if !f.submittingSince.IsZero() {
		at := f.submittingSince
		s.SubmittingSince = &at
	}
	if f.lastResult != nil {
		outcome := f.lastResult.Outcome.String()
		s.LastOutcome = &outcome
		s.LastStatus = f.lastResult.StatusCode
	}
	return s
}

// RestoreForm rebuilds a Form from s under opts.
func RestoreForm(s Snapshot, opts Options) *Form {
	f := NewForm(opts)
	f.cfg = s.Config
	f.state = s.State
	if f.state == "" {
		f.state = StateClosed
	}
	f.draft = s.Draft
	f.departments = append([]string{}, s.Departments...)
	if s.SucceededAt != nil {
		f.succeededAt = *s.SucceededAt
	}
	if s.SubmittingSince != nil {
		f.submittingSince = *s.SubmittingSince
	}
	if s.LastOutcome != nil {
		res := submission.Result{StatusCode: s.LastStatus}
		switch *s.LastOutcome {
		case submission.Success.String():
			res.Outcome = submission.Success
		case submission.ServerError.String():
			res.Outcome = submission.ServerError
		default:
			res.Outcome = submission.NetworkError
		}
		f.lastResult = &res
	}
	if s.Draft.AppointmentTime != "" {
		// Restore the selection even if the catalog changed since it was made.
		f.picker.selected = s.Draft.AppointmentTime
	}
	return f
}
