package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/i18n"
	"github.com/hackgods/clinic-booking/internal/logging"
)

type RouterConfig struct {
	Bookings       *booking.Service
	Content        ContentSource
	Resumes        ResumeSender
	Languages      i18n.PreferenceStore
	Gatherer       prometheus.Gatherer
	Checks         []DependencyCheck
	Logger         *zap.Logger
	Env            string
	Version        string
	AllowedOrigins []string
	// SubmitRatePerMin caps submits per visitor; zero disables the limit.
	SubmitRatePerMin int
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := logging.OrNop(cfg.Logger)
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(VisitorMiddleware(cfg.Languages, logger))

		r.Get("/language", getLanguageHandler)
		r.Put("/language", setLanguageHandler)

		if src := cfg.Content; src != nil {
			r.Get("/departments", listDepartmentsHandler(src))
			r.Get("/departments/{id}", getDepartmentHandler(src))
			r.Get("/doctors", listDoctorsHandler(src))
			r.Get("/doctors/{id}", getDoctorHandler(src))
			r.Get("/services", listHandler(src, src.Services, serviceView))
			r.Get("/services/{id}", itemHandler(src, "service", src.Service, serviceView))
			r.Get("/news", listHandler(src, src.News, newsView))
			r.Get("/news/{id}", itemHandler(src, "news", src.NewsItem, newsView))
			r.Get("/blog", listHandler(src, src.BlogPosts, blogView))
			r.Get("/blog/{id}", itemHandler(src, "blog", src.BlogPost, blogView))
			r.Get("/insurance", listHandler(src, src.Insurances, insuranceView))
			r.Get("/insurance/{id}", itemHandler(src, "insurance", src.Insurance, insuranceView))
			r.Get("/career", listHandler(src, src.Careers, careerView))
			r.Get("/career/{id}", itemHandler(src, "career", src.Career, careerView))
			r.Get("/about", listHandler(src, src.About, aboutView))
			r.Get("/about/{id}", itemHandler(src, "about", src.AboutItem, aboutView))
			r.Get("/stats", listHandler(src, src.Stats, statView))
			r.Get("/features", listHandler(src, src.Features, featureView))
			r.Get("/quick-actions", listHandler(src, src.QuickActions, quickActionView))
			r.Get("/slider", listHandler(src, src.Sliders, sliderView))
		}

		if cfg.Bookings != nil {
			h := &bookingHandlers{svc: cfg.Bookings, content: cfg.Content, logger: logger}
			limiter := newVisitorLimiter(cfg.SubmitRatePerMin, logger)

			r.Get("/slots", slotsHandler(cfg.Bookings.Options().Slots))
			r.Post("/bookings", h.open)
			r.Route("/bookings/{id}", func(r chi.Router) {
				r.Get("/", h.get)
				r.Patch("/", h.update)
				r.Delete("/", h.close)
				r.Post("/open", h.reopen)
				r.Put("/slot", h.selectSlot)
				r.Put("/photo", h.attachPhoto)
				r.Delete("/photo", h.removePhoto)
				r.With(limiter.Middleware).Post("/submit", h.submit)
			})
		}

		if cfg.Resumes != nil {
			r.With(newVisitorLimiter(cfg.SubmitRatePerMin, logger).Middleware).Post("/resume", resumeHandler(cfg.Resumes))
		}
	})

	return r
}
