package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
)

// Collector endpoints.
const (
	PathBooking = "/users"
	PathResume  = "/resume"
)

var tracer = otel.Tracer("clinic.internal.submission")

var validate = validator.New()

// Outcome is the terminal result of one collector call.
type Outcome int

const (
	Success Outcome = iota
	ServerError
	NetworkError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case ServerError:
		return "server_error"
	case NetworkError:
		return "network_error"
	}
	return "unknown"
}

// Result carries the outcome plus what the caller may want to log.
// StatusCode is zero for NetworkError.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

func (r Result) OK() bool { return r.Outcome == Success }

// Pipeline posts drafts to the collector. It never retries: the collector has
// no idempotency key, so a retry is always a user action.
type Pipeline struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
}

type Option func(*Pipeline)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.httpClient = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTimeout imposes an explicit deadline on each submission. Zero keeps the
// HTTP client default. It applies to whichever client the options end up with.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func NewPipeline(baseURL string, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout > 0 {
		c := *p.httpClient
		c.Timeout = p.timeout
		p.httpClient = &c
	}
	return p
}

// Send delivers a booking request to the collector.
func (p *Pipeline) Send(ctx context.Context, req Request) Result {
	body, contentType, err := req.encode()
	if err != nil {
		// Encoding never reaches the wire; report it like a failed send.
		p.logger.Error("encode booking payload", zap.Error(err))
		return Result{Outcome: NetworkError, Err: err}
	}
	return p.post(ctx, PathBooking, body, contentType)
}

// Resume is a job application sent to the resume collector.
type Resume struct {
	FullName  string      `validate:"required"`
	BirthDate string      `validate:"omitempty,datetime=2006-01-02"`
	Phone     string      `validate:"required"`
	Email     string      `validate:"omitempty,email"`
	Salary    string
	Position  string
	Skills    string
	File      *Attachment
}

// ErrInvalidResume wraps validator field errors for a resume.
var ErrInvalidResume = errors.New("invalid resume")

func (r Resume) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResume, err)
	}
	return nil
}

// SendResume delivers a resume as multipart, the only encoding that endpoint takes.
func (p *Pipeline) SendResume(ctx context.Context, r Resume) Result {
	fields := [][2]string{
		{"full_name", r.FullName},
		{"birth_date", r.BirthDate},
		{"phone", r.Phone},
		{"email", r.Email},
		{"salary", r.Salary},
		{"position", r.Position},
		{"skills", r.Skills},
	}
	body, contentType, err := encodeMultipart(fields, "file", r.File)
	if err != nil {
		p.logger.Error("encode resume payload", zap.Error(err))
		return Result{Outcome: NetworkError, Err: err}
	}
	return p.post(ctx, PathResume, body, contentType)
}

func (p *Pipeline) post(ctx context.Context, path string, body []byte, contentType string) Result {
	endpoint := strings.TrimPrefix(path, "/")
	ctx, span := tracer.Start(ctx, "submission.post")
	span.SetAttributes(attribute.String("collector.path", path))
	defer span.End()

	start := time.Now()
	res := p.do(ctx, path, body, contentType)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.String("collector.outcome", res.Outcome.String()))
	switch res.Outcome {
	case ServerError:
		span.SetStatus(codes.Error, "non-2xx")
		p.logger.Warn("collector rejected submission",
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.Duration("duration", elapsed),
		)
	case NetworkError:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "transport")
		p.logger.Error("collector unreachable",
			zap.String("path", path),
			zap.Duration("duration", elapsed),
			zap.Error(res.Err),
		)
	default:
		p.logger.Info("submission accepted", zap.String("path", path), zap.Int("status", res.StatusCode))
	}

	p.metrics.ObserveSubmission(endpoint, res.Outcome.String(), elapsed.Seconds())
	return res
}

func (p *Pipeline) do(ctx context.Context, path string, body []byte, contentType string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: NetworkError, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: NetworkError, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()
	// Only the status is part of the contract.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Outcome:    ServerError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("collector returned %d", resp.StatusCode),
		}
	}
	return Result{Outcome: Success, StatusCode: resp.StatusCode}
}
