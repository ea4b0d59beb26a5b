package content

// Records mirror the content API. Fields the backend may omit are pointers;
// nil means absent.

type Doctor struct {
	ID               int     `json:"id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Age              *int    `json:"age,omitempty"`
	Experience       string  `json:"staji"`
	ExperienceRu     string  `json:"staji_ru"`
	Education        string  `json:"education"`
	EducationRu      string  `json:"education_ru"`
	Specialization   string  `json:"specialization"`
	SpecializationRu string  `json:"specialization_ru"`
	Photo            *string `json:"photo"`
	Video            *string `json:"video"`
	CreatedAt        *string `json:"created_at,omitempty"`
}

// FullName is the name a booking made from this doctor's profile carries.
func (d Doctor) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

type Direction struct {
	ID            int     `json:"id"`
	Name          *string `json:"name,omitempty"`
	Title         string  `json:"title"`
	TitleRu       string  `json:"title_ru"`
	Description   string  `json:"description"`
	DescriptionRu string  `json:"description_ru"`
	Photo         *string `json:"photo"`
	Video         *string `json:"video"`
	CreatedAt     *string `json:"created_at,omitempty"`
}

// DirectionDoctor links a doctor to a direction. The backend may embed
// either side of the relation.
type DirectionDoctor struct {
	ID          int        `json:"id"`
	DoctorID    int        `json:"doctors_id"`
	DirectionID int        `json:"direction_id"`
	Doctor      *Doctor    `json:"doctor,omitempty"`
	Direction   *Direction `json:"direction,omitempty"`
}

type Service struct {
	ID            int     `json:"id"`
	FullName      string  `json:"full_name"`
	FullNameRu    string  `json:"full_name_ru"`
	Title         string  `json:"title"`
	TitleRu       string  `json:"title_ru"`
	Description   string  `json:"description"`
	DescriptionRu string  `json:"description_ru"`
	About         string  `json:"about"`
	AboutRu       string  `json:"about_ru"`
	Photo         *string `json:"photo"`
	Video         *string `json:"video"`
	CreatedAt     *string `json:"created_at,omitempty"`
}

type NewsItem struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	TitleRu       string   `json:"title_ru"`
	Description   string   `json:"description"`
	DescriptionRu string   `json:"description_ru"`
	Body          string   `json:"matn"`
	BodyRu        string   `json:"matn_ru"`
	Photo         *string  `json:"photo"`
	Video         *string  `json:"video"`
	Gallery       []string `json:"gallery"`
	Date          string   `json:"date"`
	CreatedAt     *string  `json:"created_at,omitempty"`
}

type BlogPost struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	TitleRu       string  `json:"title_ru"`
	Description   string  `json:"description"`
	DescriptionRu string  `json:"description_ru"`
	Article       string  `json:"maqola"`
	ArticleRu     string  `json:"maqola_ru"`
	Photo         *string `json:"photo"`
	Video         *string `json:"video"`
	DirectionID   *int    `json:"direction_id,omitempty"`
	CreatedAt     *string `json:"created_at,omitempty"`
}

type Insurance struct {
	ID               int     `json:"id"`
	FullName         string  `json:"full_name"`
	Title            string  `json:"title"`
	TitleRu          string  `json:"title_ru"`
	Description      string  `json:"description"`
	DescriptionRu    string  `json:"description_ru"`
	AboutInsurance   string  `json:"about_insurance"`
	AboutInsuranceRu string  `json:"about_insurance_ru"`
	Photo            *string `json:"photo"`
	Video            *string `json:"video"`
	CreatedAt        *string `json:"created_at,omitempty"`
}

type Career struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	TitleRu       string  `json:"title_ru"`
	Description   string  `json:"description"`
	DescriptionRu string  `json:"description_ru"`
	Vacancy       string  `json:"vacancy"`
	VacancyRu     string  `json:"vacancy_ru"`
	Photo         *string `json:"photo"`
	Video         *string `json:"video"`
	CreatedAt     *string `json:"created_at,omitempty"`
}

type About struct {
	ID                     int     `json:"id"`
	FullName               string  `json:"full_name"`
	Title                  string  `json:"title"`
	TitleRu                string  `json:"title_ru"`
	Description            string  `json:"description"`
	DescriptionRu          string  `json:"description_ru"`
	Mission                string  `json:"mission"`
	MissionRu              string  `json:"mission_ru"`
	Email                  string  `json:"gmail"`
	Address                string  `json:"manzil"`
	AddressRu              string  `json:"manzil_ru"`
	Logo                   *string `json:"logo"`
	Phone                  string  `json:"phone"`
	Phone2                 string  `json:"phone2"`
	WorkingHours           string  `json:"working_hours"`
	WorkingHoursRu         string  `json:"working_hours_ru"`
	WorkingHoursSaturday   string  `json:"working_hours_saturday"`
	WorkingHoursSaturdayRu string  `json:"working_hours_saturday_ru"`
	WorkingHoursSunday     string  `json:"working_hours_sunday"`
	WorkingHoursSundayRu   string  `json:"working_hours_sunday_ru"`
	Facebook               string  `json:"facebook"`
	Instagram              string  `json:"instagram"`
	Telegram               string  `json:"telegram"`
	Youtube                string  `json:"youtube"`
	CreatedAt              *string `json:"created_at,omitempty"`
}

type Stat struct {
	ID      int    `json:"id"`
	Value   string `json:"value"`
	Label   string `json:"label"`
	LabelRu string `json:"label_ru"`
}

type Feature struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	TitleRu       string  `json:"title_ru"`
	Description   string  `json:"description"`
	DescriptionRu string  `json:"description_ru"`
	Icon          *string `json:"icon"`
}

type QuickAction struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	TitleRu string  `json:"title_ru"`
	Icon    *string `json:"icon"`
	Link    string  `json:"link"`
}

type Slider struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	TitleRu       string  `json:"title_ru"`
	Description   string  `json:"description"`
	DescriptionRu string  `json:"description_ru"`
	Photo         *string `json:"photo"`
	ButtonText    string  `json:"button_text"`
	ButtonTextRu  string  `json:"button_text_ru"`
	ButtonLink    string  `json:"button_link"`
}
