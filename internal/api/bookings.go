package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/content"
	"github.com/hackgods/clinic-booking/internal/i18n"
	"github.com/hackgods/clinic-booking/internal/submission"
)

const maxPhotoBytes = 10 << 20

type bookingHandlers struct {
	svc     *booking.Service
	content ContentSource
	logger  *zap.Logger
}

func formID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// formConfig turns an open request into a form configuration. A doctor id
// prefills the doctor's name and, when the directory knows it, the
// department name as the selector lists it.
func (h *bookingHandlers) formConfig(ctx context.Context, req OpenBookingRequest) booking.Config {
	cfg := booking.Config{
		PrefillDoctor:        req.PrefillDoctor,
		PrefillDepartment:    req.PrefillDepartment,
		AllowPhotoAttachment: req.AllowPhoto,
		RequireDepartment:    req.RequireDepartment,
	}
	if req.DoctorID == nil || h.content == nil {
		return cfg
	}

	doc, err := h.content.Doctor(ctx, *req.DoctorID)
	if err != nil {
		return cfg
	}
	cfg.PrefillDoctor = doc.FullName()
	if cfg.PrefillDepartment == "" {
		if dep, ok := loadDirectory(ctx, h.content).DepartmentOf(doc.ID); ok {
			cfg.PrefillDepartment = selectorName(dep)
		}
	}
	return cfg
}

// selectorName is how a department appears in the booking selector.
func selectorName(d content.Direction) string {
	if d.Name != nil && *d.Name != "" {
		return *d.Name
	}
	return d.Title
}

func (h *bookingHandlers) open(w http.ResponseWriter, r *http.Request) {
	var req OpenBookingRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
	}

	id, snap, err := h.svc.Open(r.Context(), h.formConfig(r.Context(), req))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.response(r, id, snap))
}

func (h *bookingHandlers) reopen(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	var req OpenBookingRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
	}

	snap, err := h.svc.Reopen(r.Context(), id, h.formConfig(r.Context(), req))
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.Get(r.Context(), id)
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "body must be an object of string fields")
		return
	}

	snap, err := h.svc.UpdateFields(r.Context(), id, fields)
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) selectSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	var req SelectSlotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	snap, err := h.svc.SelectSlot(r.Context(), id, req.Time)
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) attachPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+1<<20)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_multipart", "expected multipart form with a photo field")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_photo", "photo field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_photo", "could not read photo")
		return
	}

	photo := &submission.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	snap, err := h.svc.AttachPhoto(r.Context(), id, photo)
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) removePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.AttachPhoto(r.Context(), id, nil)
	h.respond(w, r, id, snap, err)
}

// submit answers 200 for both delivered and failed submissions; the form
// state and banner carry the outcome.
func (h *bookingHandlers) submit(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.Submit(r.Context(), id)
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) close(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.Close(r.Context(), id)
	h.respond(w, r, id, snap, err)
}

func (h *bookingHandlers) respond(w http.ResponseWriter, r *http.Request, id uuid.UUID, snap booking.Snapshot, err error) {
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.response(r, id, snap))
}

func (h *bookingHandlers) response(r *http.Request, id uuid.UUID, snap booking.Snapshot) BookingResponse {
	t := resolverFrom(r.Context()).T()
	labels := i18n.Booking(t)

	opts := h.svc.Options()
	rules := booking.Rules{Today: opts.Now().In(opts.Location), WindowDays: opts.WindowDays}
	first, last := rules.DateWindow()

	resp := BookingResponse{
		ID:          id,
		State:       snap.State,
		Draft:       draftView(snap.Draft),
		Config:      snap.Config,
		Departments: snap.Departments,
		Slots:       slotBands(opts.Slots, snap.Draft.AppointmentTime),
		DateMin:     first.Format(booking.DateLayout),
		DateMax:     last.Format(booking.DateLayout),
		Labels:      labels,
	}
	if resp.Departments == nil {
		resp.Departments = []string{}
	}
	switch snap.State {
	case booking.StateSucceeded:
		resp.Banner = labels.Success
	case booking.StateFailed:
		resp.Banner = labels.Error
	}
	return resp
}

func draftView(d booking.Draft) DraftView {
	v := DraftView{
		FullName:        d.FullName,
		PhoneNumber:     d.PhoneNumber,
		Department:      d.Department,
		DoctorName:      d.DoctorName,
		Message:         d.Message,
		AppointmentDate: d.AppointmentDate,
		AppointmentTime: d.AppointmentTime,
	}
	if d.Photo != nil {
		v.Photo = &PhotoView{
			Filename:    d.Photo.Filename,
			ContentType: d.Photo.ContentType,
			Size:        len(d.Photo.Data),
		}
	}
	return v
}

func slotBands(catalog []booking.Slot, selected string) SlotBands {
	morning, afternoon := booking.Bands(catalog)
	return SlotBands{
		Morning:   slotViews(morning, selected),
		Afternoon: slotViews(afternoon, selected),
	}
}

func slotViews(slots []booking.Slot, selected string) []SlotView {
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotView{
			ID:        s.ID,
			Time:      s.Label,
			Available: s.Available,
			Selected:  selected != "" && s.Label == selected,
		})
	}
	return out
}

func slotsHandler(catalog []booking.Slot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, slotBands(catalog, ""))
	}
}

func (h *bookingHandlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_draft",
			Details: i18n.Booking(resolverFrom(r.Context()).T()).Error,
			Fields:  verr.Fields,
		})
	case errors.Is(err, booking.ErrUnknownField),
		errors.Is(err, booking.ErrUnknownSlot),
		errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "invalid_field", err.Error())
	case errors.Is(err, booking.ErrPhotoNotAllowed):
		writeError(w, http.StatusUnprocessableEntity, "photo_not_allowed", err.Error())
	case errors.Is(err, booking.ErrFormNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrNotEditable),
		errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrSubmitInFlight):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, booking.ErrFormBusy):
		writeError(w, http.StatusConflict, "booking_busy", err.Error())
	default:
		h.logger.Error("booking request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
