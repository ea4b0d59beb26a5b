package i18n

// BookingLabels is the localized copy of the booking modal.
type BookingLabels struct {
	Title       string `json:"title"`
	PhoneTitle  string `json:"phone_title"`
	PhoneDesc   string `json:"phone_desc"`
	OrText      string `json:"or_text"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Message     string `json:"message"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Submit      string `json:"submit"`
	Cancel      string `json:"cancel"`
	Success     string `json:"success"`
	Error       string `json:"error"`
	Loading     string `json:"loading"`
	Placeholder struct {
		FullName   string `json:"full_name"`
		Phone      string `json:"phone"`
		Department string `json:"department"`
		Message    string `json:"message"`
	} `json:"placeholder"`
}

func Booking(t Translator) BookingLabels {
	var l BookingLabels
	l.Title = t("Qabulga yozilish", "Запись на прием")
	l.PhoneTitle = t("Telefon orqali bog'laning", "Свяжитесь по телефону")
	l.PhoneDesc = t("Qo'ng'iroq qiling va darhol yoziling", "Позвоните и запишитесь сразу")
	l.OrText = t("yoki forma orqali yoziling", "или запишитесь через форму")
	l.FullName = t("F.I.SH", "Ф.И.О")
	l.Phone = t("Telefon raqam", "Номер телефона")
	l.Department = t("Bo'lim", "Отделение")
	l.Message = t("Qo'shimcha ma'lumot", "Дополнительная информация")
	l.Date = t("Sana", "Дата")
	l.Time = t("Vaqt", "Время")
	l.Submit = t("Yuborish", "Отправить")
	l.Cancel = t("Bekor qilish", "Отмена")
	l.Success = t("Muvaffaqiyatli yuborildi!", "Успешно отправлено!")
	l.Error = t("Xatolik yuz berdi, qayta urinib ko'ring.", "Произошла ошибка, попробуйте снова.")
	l.Loading = t("Yuborilmoqda...", "Отправляется...")
	l.Placeholder.FullName = t("Ism familiyangiz", "Ваше имя и фамилия")
	l.Placeholder.Phone = "+998 90 123 45 67"
	l.Placeholder.Department = t("Bo'limni tanlang", "Выберите отделение")
	l.Placeholder.Message = t("Simptomlar yoki qo'shimcha ma'lumot", "Симптомы или дополнительная информация")
	return l
}

// NotFound returns the localized "not found" line for a kind of page.
func NotFound(t Translator, kind string) string {
	switch kind {
	case "department":
		return t("Bo'lim topilmadi", "Отделение не найдено")
	case "doctor":
		return t("Shifokor topilmadi", "Врач не найден")
	default:
		return t("Topilmadi", "Не найдено")
	}
}
