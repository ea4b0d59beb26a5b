package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookingRatio  float64
	BrowseRatio   float64
	LanguageRatio float64
	InvalidRatio  float64
}

// Complaints sent as the free-text message.
var complaints = []string{
	"Bosh og'rig'i",
	"Yurak sohasida og'riq",
	"Профилактический осмотр",
	"Qon bosimi ko'tarilishi",
	"Консультация по анализам",
	"",
}

var slotLabels = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00",
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Metrics groups results per visitor action. For submissions, Conflict
// counts forms the collector answered with a failure banner.
type Metrics struct {
	Open     OperationMetrics
	Edit     OperationMetrics
	Submit   OperationMetrics
	Invalid  OperationMetrics
	Browse   OperationMetrics
	Language OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics
}

// visitor is one simulated browser session.
type visitor struct {
	id    string
	faker *gofakeit.Faker
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	_ = godotenv.Load()
	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: base=%s duration=%s workers=%d booking=%.2f browse=%.2f language=%.2f invalid=%.2f",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.BrowseRatio, cfg.LanguageRatio, cfg.InvalidRatio)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.4),
		BrowseRatio:   getFloat("SIM_BROWSE_RATIO", 0.5),
		LanguageRatio: getFloat("SIM_LANGUAGE_RATIO", 0.1),
		InvalidRatio:  getFloat("SIM_INVALID_RATIO", 0.1),
	}

	total := cfg.BookingRatio + cfg.BrowseRatio + cfg.LanguageRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.BrowseRatio /= total
		cfg.LanguageRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.InvalidRatio < 0 || cfg.InvalidRatio > 1 {
		return fmt.Errorf("SIM_INVALID_RATIO must be within [0, 1]")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context) {
	v := &visitor{id: uuid.NewString(), faker: gofakeit.New(0)}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := v.faker.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, v)
		case r < s.config.BookingRatio+s.config.BrowseRatio:
			s.doBrowse(ctx, v)
		default:
			s.doLanguage(ctx, v)
		}
	}
}

type bookingView struct {
	ID          uuid.UUID `json:"id"`
	State       string    `json:"state"`
	Departments []string  `json:"departments"`
}

func (s *Simulator) doBooking(ctx context.Context, v *visitor) {
	var opened bookingView
	start := time.Now()
	status, err := s.call(ctx, v, http.MethodPost, "/bookings", map[string]any{"allow_photo": false}, &opened)
	s.metrics.Open.Record(time.Since(start), err == nil && status == http.StatusCreated, false)
	if err != nil || status != http.StatusCreated {
		return
	}
	path := "/bookings/" + opened.ID.String()

	fields := map[string]string{
		"full_name":        v.faker.Name(),
		"phone_number":     "+998 " + v.faker.Phone(),
		"message":          complaints[v.faker.Number(0, len(complaints)-1)],
		"appointment_date": time.Now().AddDate(0, 0, v.faker.Number(0, 30)).Format("2006-01-02"),
		"appointment_time": slotLabels[v.faker.Number(0, len(slotLabels)-1)],
	}
	if len(opened.Departments) > 0 {
		fields["department"] = opened.Departments[v.faker.Number(0, len(opened.Departments)-1)]
	}
	invalid := v.faker.Float64() < s.config.InvalidRatio
	if invalid {
		delete(fields, "full_name")
	}

	start = time.Now()
	status, err = s.call(ctx, v, http.MethodPatch, path, fields, nil)
	s.metrics.Edit.Record(time.Since(start), err == nil && status == http.StatusOK, status == http.StatusConflict)
	if err != nil || status != http.StatusOK {
		return
	}

	var submitted bookingView
	start = time.Now()
	status, err = s.call(ctx, v, http.MethodPost, path+"/submit", nil, &submitted)
	latency := time.Since(start)

	if invalid {
		s.metrics.Invalid.Record(latency, status == http.StatusUnprocessableEntity, false)
		_, _ = s.call(ctx, v, http.MethodDelete, path, nil, nil)
		return
	}
	ok := err == nil && status == http.StatusOK && submitted.State == "succeeded"
	rejected := err == nil && status == http.StatusOK && submitted.State == "failed"
	s.metrics.Submit.Record(latency, ok, rejected)
	if rejected {
		_, _ = s.call(ctx, v, http.MethodDelete, path, nil, nil)
	}
}

func (s *Simulator) doBrowse(ctx context.Context, v *visitor) {
	pages := []string{"/departments", "/doctors", "/services", "/news", "/blog", "/slots"}
	page := pages[v.faker.Number(0, len(pages)-1)]

	start := time.Now()
	status, err := s.call(ctx, v, http.MethodGet, page, nil, nil)
	s.metrics.Browse.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doLanguage(ctx context.Context, v *visitor) {
	lang := "uz"
	if v.faker.Bool() {
		lang = "ru"
	}

	start := time.Now()
	status, err := s.call(ctx, v, http.MethodPut, "/language", map[string]string{"language": lang}, nil)
	s.metrics.Language.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) call(ctx context.Context, v *visitor, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Visitor-ID", v.id)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Open form", "Conflicts", &s.metrics.Open)
	printOperationReport("Edit form", "Conflicts", &s.metrics.Edit)
	printOperationReport("Submit", "Collector failures", &s.metrics.Submit)
	printOperationReport("Submit invalid (expect 422)", "Conflicts", &s.metrics.Invalid)
	printOperationReport("Browse", "Conflicts", &s.metrics.Browse)
	printOperationReport("Switch language", "Conflicts", &s.metrics.Language)
}

func printOperationReport(name, conflictLabel string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  %s: %d (%.1f%%)\n", conflictLabel, conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
