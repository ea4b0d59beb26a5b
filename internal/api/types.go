package api

import (
	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/i18n"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type LanguageRequest struct {
	Language string `json:"language"`
}

type LanguageResponse struct {
	Language  string   `json:"language"`
	Supported []string `json:"supported"`
}

// OpenBookingRequest selects the entry point of a booking form. DoctorID
// resolves to the doctor's name and department through the content API.
type OpenBookingRequest struct {
	DoctorID          *int   `json:"doctor_id,omitempty"`
	PrefillDoctor     string `json:"prefill_doctor,omitempty"`
	PrefillDepartment string `json:"prefill_department,omitempty"`
	AllowPhoto        bool   `json:"allow_photo"`
	RequireDepartment bool   `json:"require_department"`
}

type SelectSlotRequest struct {
	Time string `json:"time"`
}

type SlotView struct {
	ID        int    `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
}

type SlotBands struct {
	Morning   []SlotView `json:"morning"`
	Afternoon []SlotView `json:"afternoon"`
}

type PhotoView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type DraftView struct {
	FullName        string     `json:"full_name"`
	PhoneNumber     string     `json:"phone_number"`
	Department      string     `json:"department"`
	DoctorName      string     `json:"doctor_name"`
	Message         string     `json:"message"`
	AppointmentDate string     `json:"appointment_date"`
	AppointmentTime string     `json:"appointment_time"`
	Photo           *PhotoView `json:"photo,omitempty"`
}

// BookingResponse is everything the modal needs to render one form.
type BookingResponse struct {
	ID          uuid.UUID          `json:"id"`
	State       booking.State      `json:"state"`
	Draft       DraftView          `json:"draft"`
	Config      booking.Config     `json:"config"`
	Departments []string           `json:"departments"`
	Slots       SlotBands          `json:"slots"`
	DateMin     string             `json:"date_min"`
	DateMax     string             `json:"date_max"`
	Banner      string             `json:"banner,omitempty"`
	Labels      i18n.BookingLabels `json:"labels"`
}

type ResumeResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

type DepartmentRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type DoctorView struct {
	ID             int            `json:"id"`
	FullName       string         `json:"full_name"`
	Specialization string         `json:"specialization"`
	Experience     string         `json:"experience"`
	Education      string         `json:"education"`
	Photo          string         `json:"photo"`
	Video          *string        `json:"video,omitempty"`
	Department     *DepartmentRef `json:"department,omitempty"`
}

type DepartmentView struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Photo       string       `json:"photo"`
	Video       *string      `json:"video,omitempty"`
	Doctors     []DoctorView `json:"doctors,omitempty"`
}

type ServiceView struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	FullName    string  `json:"full_name"`
	Description string  `json:"description"`
	About       string  `json:"about"`
	Photo       string  `json:"photo"`
	Video       *string `json:"video,omitempty"`
}

type NewsView struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	Date        string   `json:"date"`
	Photo       string   `json:"photo"`
	Video       *string  `json:"video,omitempty"`
	Gallery     []string `json:"gallery"`
}

type BlogView struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Article     string  `json:"article"`
	Photo       string  `json:"photo"`
	Video       *string `json:"video,omitempty"`
}

type InsuranceView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	About       string `json:"about"`
	Photo       string `json:"photo"`
}

type CareerView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Vacancy     string `json:"vacancy"`
	Photo       string `json:"photo"`
}

type AboutView struct {
	ID                   int               `json:"id"`
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	Mission              string            `json:"mission"`
	Address              string            `json:"address"`
	Email                string            `json:"email"`
	Phones               []string          `json:"phones"`
	WorkingHours         string            `json:"working_hours"`
	WorkingHoursSaturday string            `json:"working_hours_saturday"`
	WorkingHoursSunday   string            `json:"working_hours_sunday"`
	Logo                 string            `json:"logo"`
	Socials              map[string]string `json:"socials"`
}

type StatView struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// FeatureView omits an absent icon instead of substituting a placeholder.
type FeatureView struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        *string `json:"icon,omitempty"`
}

type QuickActionView struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Icon  *string `json:"icon,omitempty"`
	Link  string  `json:"link"`
}

type SliderView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Photo       string `json:"photo"`
	ButtonText  string `json:"button_text"`
	ButtonLink  string `json:"button_link"`
}
