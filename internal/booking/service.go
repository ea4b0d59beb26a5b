package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/submission"
)

var (
	ErrFormNotFound = errors.New("booking form not found")
	ErrFormBusy     = errors.New("booking form is being modified, please retry")
)

// completion retries; the lock is only contended by concurrent edits of the same form.
const (
	completeAttempts = 5
	completeBackoff  = 50 * time.Millisecond
)

// Deps are the collaborators of the session Service.
type Deps struct {
	Store       SessionStore
	Locker      redisclient.Locker
	Events      EventRepository
	Departments DepartmentLister
	Sender      Sender
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Service hosts booking forms across requests. Each form lives in the
// SessionStore as a Snapshot; every mutation runs under the form's lock.
type Service struct {
	store   SessionStore
	locker  redisclient.Locker
	events  EventRepository
	lister  DepartmentLister
	sender  Sender
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options
	idleTTL time.Duration
}

func NewService(deps Deps, opts Options, idleTTL time.Duration) *Service {
	events := deps.Events
	if events == nil {
		events = NopEvents{}
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Service{
		store:   deps.Store,
		locker:  locker,
		events:  events,
		lister:  deps.Departments,
		sender:  deps.Sender,
		logger:  logging.OrNop(deps.Logger),
		metrics: deps.Metrics,
		opts:    opts.withDefaults(),
		idleTTL: idleTTL,
	}
}

// Options are the form options every hosted form is built with.
func (s *Service) Options() Options {
	return s.opts
}

// Open creates a new form session in the Open state.
func (s *Service) Open(ctx context.Context, cfg Config) (uuid.UUID, Snapshot, error) {
	id := uuid.New()
	form := NewForm(s.opts)
	if err := form.Open(ctx, cfg, s.lister); err != nil {
		return uuid.Nil, Snapshot{}, err
	}
	snap := form.Snapshot()
	if err := s.save(ctx, id, snap); err != nil {
		return uuid.Nil, Snapshot{}, err
	}

	s.metrics.ObserveTransition(string(StateOpen))
	s.logEvent(ctx, id, EventFormOpened, map[string]any{
		"prefill_doctor":     cfg.PrefillDoctor != "",
		"prefill_department": cfg.PrefillDepartment != "",
		"allow_photo":        cfg.AllowPhotoAttachment,
		"departments":        len(snap.Departments),
	})
	return id, snap, nil
}

// Reopen starts a fresh draft on an existing session. The department list is
// fetched before the lock is taken.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID, cfg Config) (Snapshot, error) {
	var names fixedDepartments
	if s.lister != nil {
		if list, err := s.lister.DepartmentNames(ctx); err == nil {
			names = list
		}
	}
	snap, err := s.mutate(ctx, id, func(f *Form) error {
		return f.Open(ctx, cfg, names)
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.metrics.ObserveTransition(string(StateOpen))
	s.logEvent(ctx, id, EventFormOpened, map[string]any{"reopened": true})
	return snap, nil
}

// Get returns the current snapshot. The delayed Succeeded -> Closed
// transition is applied on read.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	form, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return form.Snapshot(), nil
}

// UpdateFields applies several field edits at once. The first failing edit
// aborts the batch and nothing is stored.
func (s *Service) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]string) (Snapshot, error) {
	return s.mutate(ctx, id, func(f *Form) error {
		for name, value := range fields {
			if err := f.UpdateField(name, value); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Service) SelectSlot(ctx context.Context, id uuid.UUID, label string) (Snapshot, error) {
	return s.mutate(ctx, id, func(f *Form) error {
		return f.SelectSlot(label)
	})
}

func (s *Service) AttachPhoto(ctx context.Context, id uuid.UUID, photo *submission.Attachment) (Snapshot, error) {
	return s.mutate(ctx, id, func(f *Form) error {
		return f.AttachPhoto(photo)
	})
}

// Close dismisses the form and clears its draft.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	var before State
	snap, err := s.mutate(ctx, id, func(f *Form) error {
		before = f.State()
		return f.Close()
	})
	if err != nil {
		return Snapshot{}, err
	}
	if before != StateClosed && snap.State == StateClosed {
		s.metrics.ObserveTransition(string(StateClosed))
		s.logEvent(ctx, id, EventFormClosed, map[string]any{"from": string(before)})
	}
	return snap, nil
}

// Submit validates and sends the draft. The network call runs outside the
// form lock; only the Submitting state guards against a second submit.
// The send is detached from ctx so a caller that goes away cannot turn an
// accepted booking into a failure. A *ValidationError means nothing was sent.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	var req submission.Request
	if _, err := s.mutate(ctx, id, func(f *Form) error {
		var err error
		req, err = f.BeginSubmit()
		return err
	}); err != nil {
		return Snapshot{}, err
	}
	s.metrics.ObserveTransition(string(StateSubmitting))
	s.logEvent(ctx, id, EventBookingSubmitted, map[string]any{
		"department":       req.Department,
		"doctor_name":      req.DoctorName,
		"appointment_date": req.AppointmentDate,
		"appointment_time": req.AppointmentTime,
		"photo":            req.Photo != nil,
	})

	sendCtx := context.WithoutCancel(ctx)
	res := s.sender.Send(sendCtx, req)

	snap, err := s.complete(sendCtx, id, res)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) complete(ctx context.Context, id uuid.UUID, res submission.Result) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	for attempt := 0; attempt < completeAttempts; attempt++ {
		snap, err = s.mutate(ctx, id, func(f *Form) error {
			f.CompleteSubmit(res)
			return nil
		})
		if !errors.Is(err, ErrFormBusy) {
			break
		}
		time.Sleep(completeBackoff * time.Duration(attempt+1))
	}

	switch {
	case errors.Is(err, ErrFormNotFound):
		// The session went away while the request was in flight.
		s.logger.Info("discarding submission result for vanished form",
			zap.String("form_id", id.String()),
			zap.String("outcome", res.Outcome.String()),
		)
		return Snapshot{State: StateClosed}, nil
	case err != nil:
		// Leaving the session behind would pin it in Submitting.
		s.logger.Error("apply submission result, dropping form",
			zap.String("form_id", id.String()),
			zap.String("outcome", res.Outcome.String()),
			zap.Error(err),
		)
		if delErr := s.store.Del(ctx, id); delErr != nil {
			s.logger.Warn("drop form session", zap.String("form_id", id.String()), zap.Error(delErr))
		}
		s.logOutcome(ctx, id, res)
		return Snapshot{}, fmt.Errorf("apply submission result: %w", err)
	}

	s.logOutcome(ctx, id, res)
	return snap, nil
}

func (s *Service) logOutcome(ctx context.Context, id uuid.UUID, res submission.Result) {
	payload := map[string]any{"outcome": res.Outcome.String()}
	if res.StatusCode != 0 {
		payload["status"] = res.StatusCode
	}
	if res.OK() {
		s.metrics.ObserveTransition(string(StateSucceeded))
		s.logEvent(ctx, id, EventBookingSucceeded, payload)
	} else {
		s.metrics.ObserveTransition(string(StateFailed))
		s.logEvent(ctx, id, EventBookingFailed, payload)
	}
}

// Discard drops the session. A submission still in flight is ignored when it returns.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Del(ctx, id); err != nil {
		return fmt.Errorf("delete form session: %w", err)
	}
	return nil
}

type fixedDepartments []string

func (d fixedDepartments) DepartmentNames(context.Context) ([]string, error) {
	return d, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(f *Form) error) (Snapshot, error) {
	var snap Snapshot
	err := s.locker.WithFormLock(ctx, id, func(lockCtx context.Context) error {
		form, err := s.load(lockCtx, id)
		if err != nil {
			return err
		}
		if err := fn(form); err != nil {
			return err
		}
		snap = form.Snapshot()
		return s.save(lockCtx, id, snap)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return Snapshot{}, ErrFormBusy
		}
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Form, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load form session: %w", err)
	}
	if data == nil {
		return nil, ErrFormNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode form session: %w", err)
	}
	return RestoreForm(snap, s.opts), nil
}

func (s *Service) save(ctx context.Context, id uuid.UUID, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode form session: %w", err)
	}
	if err := s.store.Set(ctx, id, data, s.idleTTL); err != nil {
		return fmt.Errorf("store form session: %w", err)
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, formID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal booking event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	id := formID
	ev := EventLog{
		EventType: eventType,
		FormID:    &id,
		Payload:   data,
		CreatedAt: s.opts.Now(),
	}
	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("insert booking event",
			zap.String("event", eventType),
			zap.String("form_id", formID.String()),
			zap.Error(err),
		)
	}
}
