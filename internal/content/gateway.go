package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
)

var (
	ErrNotFound    = errors.New("content not found")
	ErrUnavailable = errors.New("content api unavailable")
	ErrBadResponse = errors.New("content api returned an unusable response")
)

var tracer = otel.Tracer("clinic.internal.content")

// Resource paths on the content API.
const (
	PathDoctors          = "/doctor"
	PathDirections       = "/direction"
	PathDirectionDoctors = "/direction-doctors"
	PathServices         = "/services"
	PathNews             = "/news"
	PathBlog             = "/blog"
	PathInsurance        = "/insurance"
	PathCareer           = "/career"
	PathAbout            = "/about"
	PathStats            = "/stats"
	PathFeatures         = "/features"
	PathQuickActions     = "/quick-actions"
	PathSliders          = "/slider"
)

// Gateway is read-only access to the content API. It neither caches nor
// retries; every call is a fresh GET.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithTimeout sets an explicit per-request deadline. Zero keeps the client default.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

func NewGateway(baseURL string, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.timeout > 0 {
		c := *g.httpClient
		c.Timeout = g.timeout
		g.httpClient = &c
	}
	return g
}

// BaseURL is the API root every path is resolved against.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

func (g *Gateway) Doctors(ctx context.Context) ([]Doctor, error) {
	return list[Doctor](ctx, g, PathDoctors)
}

func (g *Gateway) Doctor(ctx context.Context, id int) (*Doctor, error) {
	return item[Doctor](ctx, g, PathDoctors, id)
}

func (g *Gateway) Directions(ctx context.Context) ([]Direction, error) {
	return list[Direction](ctx, g, PathDirections)
}

func (g *Gateway) Direction(ctx context.Context, id int) (*Direction, error) {
	return item[Direction](ctx, g, PathDirections, id)
}

func (g *Gateway) DirectionDoctors(ctx context.Context) ([]DirectionDoctor, error) {
	return list[DirectionDoctor](ctx, g, PathDirectionDoctors)
}

func (g *Gateway) Services(ctx context.Context) ([]Service, error) {
	return list[Service](ctx, g, PathServices)
}

func (g *Gateway) Service(ctx context.Context, id int) (*Service, error) {
	return item[Service](ctx, g, PathServices, id)
}

func (g *Gateway) News(ctx context.Context) ([]NewsItem, error) {
	return list[NewsItem](ctx, g, PathNews)
}

func (g *Gateway) NewsItem(ctx context.Context, id int) (*NewsItem, error) {
	return item[NewsItem](ctx, g, PathNews, id)
}

func (g *Gateway) BlogPosts(ctx context.Context) ([]BlogPost, error) {
	return list[BlogPost](ctx, g, PathBlog)
}

func (g *Gateway) BlogPost(ctx context.Context, id int) (*BlogPost, error) {
	return item[BlogPost](ctx, g, PathBlog, id)
}

func (g *Gateway) Insurances(ctx context.Context) ([]Insurance, error) {
	return list[Insurance](ctx, g, PathInsurance)
}

func (g *Gateway) Insurance(ctx context.Context, id int) (*Insurance, error) {
	return item[Insurance](ctx, g, PathInsurance, id)
}

func (g *Gateway) Careers(ctx context.Context) ([]Career, error) {
	return list[Career](ctx, g, PathCareer)
}

func (g *Gateway) Career(ctx context.Context, id int) (*Career, error) {
	return item[Career](ctx, g, PathCareer, id)
}

func (g *Gateway) About(ctx context.Context) ([]About, error) {
	return list[About](ctx, g, PathAbout)
}

func (g *Gateway) AboutItem(ctx context.Context, id int) (*About, error) {
	return item[About](ctx, g, PathAbout, id)
}

func (g *Gateway) Stats(ctx context.Context) ([]Stat, error) {
	return list[Stat](ctx, g, PathStats)
}

func (g *Gateway) Features(ctx context.Context) ([]Feature, error) {
	return list[Feature](ctx, g, PathFeatures)
}

func (g *Gateway) QuickActions(ctx context.Context) ([]QuickAction, error) {
	return list[QuickAction](ctx, g, PathQuickActions)
}

func (g *Gateway) Sliders(ctx context.Context) ([]Slider, error) {
	return list[Slider](ctx, g, PathSliders)
}

// DepartmentNames lists the labels offered by the booking form's department
// selector. Each record contributes its name, else its title; bare strings
// are taken as is.
func (g *Gateway) DepartmentNames(ctx context.Context) ([]string, error) {
	var raw []json.RawMessage
	if err := g.get(ctx, PathDirections, &raw); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if s != "" {
				names = append(names, s)
			}
			continue
		}
		var rec struct {
			Name  string `json:"name"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal(r, &rec); err != nil {
			continue
		}
		switch {
		case rec.Name != "":
			names = append(names, rec.Name)
		case rec.Title != "":
			names = append(names, rec.Title)
		}
	}
	return names, nil
}

// OrEmpty is the page-level degradation policy: any read failure becomes an
// empty collection.
func OrEmpty[T any](items []T, err error) []T {
	if err != nil || items == nil {
		return []T{}
	}
	return items
}

func list[T any](ctx context.Context, g *Gateway, path string) ([]T, error) {
	var out []T
	if err := g.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func item[T any](ctx context.Context, g *Gateway, path string, id int) (*T, error) {
	var out *T
	if err := g.get(ctx, fmt.Sprintf("%s/%d", path, id), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%s/%d: %w", path, id, ErrNotFound)
	}
	return out, nil
}

func (g *Gateway) get(ctx context.Context, path string, out any) error {
	resource := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
	ctx, span := tracer.Start(ctx, "content.get")
	span.SetAttributes(attribute.String("content.path", path))
	defer span.End()

	start := time.Now()
	err := g.do(ctx, path, out)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("content fetch failed", zap.String("path", path), zap.Error(err))
	}
	g.metrics.ObserveContentFetch(resource, status, time.Since(start).Seconds())
	return err
}

func (g *Gateway) do(ctx context.Context, path string, out any) error {
	endpoint := g.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrBadResponse, err)
	}
	return nil
}
