package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-booking/internal/submission"
)

// DateLayout is the wire and input format of appointment_date.
const DateLayout = "2006-01-02"

// Draft field names, as accepted by UpdateField and reported by ValidationError.
const (
	FieldFullName        = "full_name"
	FieldPhoneNumber     = "phone_number"
	FieldDepartment      = "department"
	FieldDoctorName      = "doctor_name"
	FieldMessage         = "message"
	FieldAppointmentDate = "appointment_date"
	FieldAppointmentTime = "appointment_time"
	FieldPhoto           = "photo"
)

// Reasons attached to invalid fields.
const (
	ReasonRequired   = "required"
	ReasonInvalid    = "invalid"
	ReasonOutOfRange = "out_of_range"
	ReasonNotListed  = "not_listed"
)

var validate = validator.New()

// Draft is the in-progress booking request of one open form.
type Draft struct {
	FullName        string                 `json:"full_name" validate:"required"`
	PhoneNumber     string                 `json:"phone_number" validate:"required"`
	Department      string                 `json:"department"`
	DoctorName      string                 `json:"doctor_name"`
	Message         string                 `json:"message"`
	AppointmentDate string                 `json:"appointment_date" validate:"required"`
	AppointmentTime string                 `json:"appointment_time" validate:"required"`
	Photo           *submission.Attachment `json:"photo,omitempty"`
}

// IsEmpty reports whether no field carries a value.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

func (d Draft) request() submission.Request {
	return submission.Request{
		FullName:        d.FullName,
		PhoneNumber:     d.PhoneNumber,
		Department:      d.Department,
		DoctorName:      d.DoctorName,
		Message:         d.Message,
		AppointmentDate: d.AppointmentDate,
		AppointmentTime: d.AppointmentTime,
		Photo:           d.Photo,
	}
}

// ValidationError lists every field that blocks submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name, reason := range e.Fields {
		names = append(names, name+"="+reason)
	}
	sort.Strings(names)
	return "invalid booking draft: " + strings.Join(names, ", ")
}

// ErrInvalidDraft matches any *ValidationError with errors.Is.
var ErrInvalidDraft = errors.New("invalid booking draft")

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDraft
}

// Rules are the cross-field constraints a draft is checked against.
type Rules struct {
	Today             time.Time // any instant of the current day, in the clinic's location
	WindowDays        int       // last bookable day is Today + WindowDays
	RequireDepartment bool
	Departments       []string // when non-empty, department must be one of these
	Slots             []Slot
}

// DateWindow returns the first and last bookable dates, both inclusive.
func (r Rules) DateWindow() (first, last time.Time) {
	y, m, d := r.Today.Date()
	first = time.Date(y, m, d, 0, 0, 0, 0, r.Today.Location())
	return first, first.AddDate(0, 0, r.WindowDays)
}

// Validate checks d against r. It returns nil or a *ValidationError.
func (d Draft) Validate(r Rules) error {
	fields := map[string]string{}

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate draft: %w", err)
		}
		for _, fe := range verrs {
			fields[jsonName(fe.StructField())] = ReasonRequired
		}
	}

	if strings.TrimSpace(d.FullName) == "" {
		fields[FieldFullName] = ReasonRequired
	}
	if d.PhoneNumber != "" && submission.DigitsOnly(d.PhoneNumber) == "" {
		fields[FieldPhoneNumber] = ReasonInvalid
	}

	if r.RequireDepartment && d.Department == "" {
		fields[FieldDepartment] = ReasonRequired
	}
	if d.Department != "" && len(r.Departments) > 0 && !contains(r.Departments, d.Department) {
		fields[FieldDepartment] = ReasonNotListed
	}

	if d.AppointmentDate != "" {
		if reason := r.checkDate(d.AppointmentDate); reason != "" {
			fields[FieldAppointmentDate] = reason
		}
	}

	if d.AppointmentTime != "" {
		slots := r.Slots
		if slots == nil {
			slots = defaultCatalog
		}
		if s, ok := lookupSlot(slots, d.AppointmentTime); !ok || !s.Available {
			fields[FieldAppointmentTime] = ReasonInvalid
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (r Rules) checkDate(raw string) string {
	loc := r.Today.Location()
	date, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return ReasonInvalid
	}
	first, last := r.DateWindow()
	if date.Before(first) || date.After(last) {
		return ReasonOutOfRange
	}
	return ""
}

func jsonName(structField string) string {
	switch structField {
	case "FullName":
		return FieldFullName
	case "PhoneNumber":
		return FieldPhoneNumber
	case "AppointmentDate":
		return FieldAppointmentDate
	case "AppointmentTime":
		return FieldAppointmentTime
	}
	return strings.ToLower(structField)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
