package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-booking/internal/content"
	"github.com/hackgods/clinic-booking/internal/directory"
	"github.com/hackgods/clinic-booking/internal/i18n"
)

// ContentSource is the part of the content gateway the pages read.
type ContentSource interface {
	BaseURL() string
	Doctors(ctx context.Context) ([]content.Doctor, error)
	Doctor(ctx context.Context, id int) (*content.Doctor, error)
	Directions(ctx context.Context) ([]content.Direction, error)
	Direction(ctx context.Context, id int) (*content.Direction, error)
	DirectionDoctors(ctx context.Context) ([]content.DirectionDoctor, error)
	Services(ctx context.Context) ([]content.Service, error)
	Service(ctx context.Context, id int) (*content.Service, error)
	News(ctx context.Context) ([]content.NewsItem, error)
	NewsItem(ctx context.Context, id int) (*content.NewsItem, error)
	BlogPosts(ctx context.Context) ([]content.BlogPost, error)
	BlogPost(ctx context.Context, id int) (*content.BlogPost, error)
	Insurances(ctx context.Context) ([]content.Insurance, error)
	Insurance(ctx context.Context, id int) (*content.Insurance, error)
	Careers(ctx context.Context) ([]content.Career, error)
	Career(ctx context.Context, id int) (*content.Career, error)
	About(ctx context.Context) ([]content.About, error)
	AboutItem(ctx context.Context, id int) (*content.About, error)
	Stats(ctx context.Context) ([]content.Stat, error)
	Features(ctx context.Context) ([]content.Feature, error)
	QuickActions(ctx context.Context) ([]content.QuickAction, error)
	Sliders(ctx context.Context) ([]content.Slider, error)
}

// loadDirectory fetches the three collections of the join concurrently.
// Each failed read contributes an empty collection.
func loadDirectory(ctx context.Context, src ContentSource) *directory.Directory {
	var (
		wg          sync.WaitGroup
		departments []content.Direction
		doctors     []content.Doctor
		links       []content.DirectionDoctor
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		departments = content.OrEmpty(src.Directions(ctx))
	}()
	go func() {
		defer wg.Done()
		doctors = content.OrEmpty(src.Doctors(ctx))
	}()
	go func() {
		defer wg.Done()
		links = content.OrEmpty(src.DirectionDoctors(ctx))
	}()
	wg.Wait()
	return directory.New(departments, doctors, links)
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter, r *http.Request, kind string) {
	writeError(w, http.StatusNotFound, kind+"_not_found", i18n.NotFound(resolverFrom(r.Context()).T(), kind))
}

func departmentView(t i18n.Translator, base string, d content.Direction) DepartmentView {
	return DepartmentView{
		ID:          d.ID,
		Title:       t(d.Title, d.TitleRu),
		Description: t(d.Description, d.DescriptionRu),
		Photo:       content.ImageURL(base, "direction", d.Photo),
		Video:       content.VideoURL(base, "direction", d.Video),
	}
}

func doctorView(t i18n.Translator, base string, d content.Doctor, dir *directory.Directory) DoctorView {
	v := DoctorView{
		ID:             d.ID,
		FullName:       d.FullName(),
		Specialization: t(d.Specialization, d.SpecializationRu),
		Experience:     t(d.Experience, d.ExperienceRu),
		Education:      t(d.Education, d.EducationRu),
		Photo:          content.ImageURL(base, "doctor", d.Photo),
		Video:          content.VideoURL(base, "doctor", d.Video),
	}
	if dir != nil {
		if dep, ok := dir.DepartmentOf(d.ID); ok {
			v.Department = &DepartmentRef{ID: dep.ID, Name: t(dep.Title, dep.TitleRu)}
		}
	}
	return v
}

func listDepartmentsHandler(src ContentSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := resolverFrom(r.Context()).T()
		departments := content.OrEmpty(src.Directions(r.Context()))

		out := make([]DepartmentView, 0, len(departments))
		for _, d := range departments {
			out = append(out, departmentView(t, src.BaseURL(), d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getDepartmentHandler(src ContentSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_department_id", "id must be a positive integer")
			return
		}
		dep, err := src.Direction(r.Context(), id)
		if err != nil {
			writeNotFound(w, r, "department")
			return
		}

		t := resolverFrom(r.Context()).T()
		view := departmentView(t, src.BaseURL(), *dep)
		dir := loadDirectory(r.Context(), src)
		view.Doctors = []DoctorView{}
		for _, doc := range dir.DoctorsOf(id) {
			view.Doctors = append(view.Doctors, doctorView(t, src.BaseURL(), doc, nil))
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func listDoctorsHandler(src ContentSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := resolverFrom(r.Context()).T()
		dir := loadDirectory(r.Context(), src)
		doctors := content.OrEmpty(src.Doctors(r.Context()))

		out := make([]DoctorView, 0, len(doctors))
		for _, d := range doctors {
			out = append(out, doctorView(t, src.BaseURL(), d, dir))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getDoctorHandler(src ContentSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a positive integer")
			return
		}
		doc, err := src.Doctor(r.Context(), id)
		if err != nil {
			writeNotFound(w, r, "doctor")
			return
		}
		t := resolverFrom(r.Context()).T()
		writeJSON(w, http.StatusOK, doctorView(t, src.BaseURL(), *doc, loadDirectory(r.Context(), src)))
	}
}

func serviceView(t i18n.Translator, base string, s content.Service) ServiceView {
	return ServiceView{
		ID:          s.ID,
		Title:       t(s.Title, s.TitleRu),
		FullName:    t(s.FullName, s.FullNameRu),
		Description: t(s.Description, s.DescriptionRu),
		About:       t(s.About, s.AboutRu),
		Photo:       content.ImageURL(base, "services", s.Photo),
		Video:       content.VideoURL(base, "services", s.Video),
	}
}

func newsView(t i18n.Translator, base string, n content.NewsItem) NewsView {
	gallery := make([]string, 0, len(n.Gallery))
	for _, img := range n.Gallery {
		img := img
		gallery = append(gallery, content.ImageURL(base, "news", &img))
	}
	return NewsView{
		ID:          n.ID,
		Title:       t(n.Title, n.TitleRu),
		Description: t(n.Description, n.DescriptionRu),
		Body:        t(n.Body, n.BodyRu),
		Date:        n.Date,
		Photo:       content.ImageURL(base, "news", n.Photo),
		Video:       content.VideoURL(base, "news", n.Video),
		Gallery:     gallery,
	}
}

func blogView(t i18n.Translator, base string, b content.BlogPost) BlogView {
	return BlogView{
		ID:          b.ID,
		Title:       t(b.Title, b.TitleRu),
		Description: t(b.Description, b.DescriptionRu),
		Article:     t(b.Article, b.ArticleRu),
		Photo:       content.ImageURL(base, "blog", b.Photo),
		Video:       content.VideoURL(base, "blog", b.Video),
	}
}

// listHandler renders a collection; a failed read renders an empty list.
func listHandler[T, V any](src ContentSource, fetch func(context.Context) ([]T, error), view func(i18n.Translator, string, T) V) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := resolverFrom(r.Context()).T()
		items := content.OrEmpty(fetch(r.Context()))

		out := make([]V, 0, len(items))
		for _, item := range items {
			out = append(out, view(t, src.BaseURL(), item))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// itemHandler renders one record; any read failure is a localized 404.
func itemHandler[T, V any](src ContentSource, kind string, fetch func(context.Context, int) (*T, error), view func(i18n.Translator, string, T) V) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_"+kind+"_id", "id must be a positive integer")
			return
		}
		item, err := fetch(r.Context(), id)
		if err != nil {
			if !errors.Is(err, content.ErrNotFound) {
				// Upstream trouble reads as a missing page to visitors.
				w.Header().Set("X-Content-Degraded", "true")
			}
			writeNotFound(w, r, kind)
			return
		}
		writeJSON(w, http.StatusOK, view(resolverFrom(r.Context()).T(), src.BaseURL(), *item))
	}
}

func insuranceView(t i18n.Translator, base string, in content.Insurance) InsuranceView {
	return InsuranceView{
		ID:          in.ID,
		Title:       t(in.Title, in.TitleRu),
		Description: t(in.Description, in.DescriptionRu),
		About:       t(in.AboutInsurance, in.AboutInsuranceRu),
		Photo:       content.ImageURL(base, "insurance", in.Photo),
	}
}

func careerView(t i18n.Translator, base string, c content.Career) CareerView {
	return CareerView{
		ID:          c.ID,
		Title:       t(c.Title, c.TitleRu),
		Description: t(c.Description, c.DescriptionRu),
		Vacancy:     t(c.Vacancy, c.VacancyRu),
		Photo:       content.ImageURL(base, "career", c.Photo),
	}
}

func aboutView(t i18n.Translator, base string, a content.About) AboutView {
	return AboutView{
		ID:                   a.ID,
		Title:                t(a.Title, a.TitleRu),
		Description:          t(a.Description, a.DescriptionRu),
		Mission:              t(a.Mission, a.MissionRu),
		Address:              t(a.Address, a.AddressRu),
		Email:                a.Email,
		Phones:               nonEmpty(a.Phone, a.Phone2),
		WorkingHours:         t(a.WorkingHours, a.WorkingHoursRu),
		WorkingHoursSaturday: t(a.WorkingHoursSaturday, a.WorkingHoursSaturdayRu),
		WorkingHoursSunday:   t(a.WorkingHoursSunday, a.WorkingHoursSundayRu),
		Logo:                 content.ImageURL(base, "about", a.Logo),
		Socials: map[string]string{
			"facebook":  a.Facebook,
			"instagram": a.Instagram,
			"telegram":  a.Telegram,
			"youtube":   a.Youtube,
		},
	}
}

func statView(t i18n.Translator, _ string, s content.Stat) StatView {
	return StatView{ID: s.ID, Value: s.Value, Label: t(s.Label, s.LabelRu)}
}

func featureView(t i18n.Translator, base string, f content.Feature) FeatureView {
	return FeatureView{
		ID:          f.ID,
		Title:       t(f.Title, f.TitleRu),
		Description: t(f.Description, f.DescriptionRu),
		Icon:        content.VideoURL(base, "features", f.Icon),
	}
}

func quickActionView(t i18n.Translator, base string, q content.QuickAction) QuickActionView {
	return QuickActionView{
		ID:    q.ID,
		Title: t(q.Title, q.TitleRu),
		Icon:  content.VideoURL(base, "quick-actions", q.Icon),
		Link:  q.Link,
	}
}

func sliderView(t i18n.Translator, base string, s content.Slider) SliderView {
	return SliderView{
		ID:          s.ID,
		Title:       t(s.Title, s.TitleRu),
		Description: t(s.Description, s.DescriptionRu),
		Photo:       content.ImageURL(base, "slider", s.Photo),
		ButtonText:  t(s.ButtonText, s.ButtonTextRu),
		ButtonLink:  s.ButtonLink,
	}
}

func nonEmpty(values ...string) []string {
	out := []string{}
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
