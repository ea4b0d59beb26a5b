package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// Attachment is an uploaded file carried by a multipart submission.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Request is the logical booking payload sent to the collector.
type Request struct {
	FullName        string      `json:"full_name"`
	PhoneNumber     string      `json:"phone_number"`
	Department      string      `json:"department"`
	DoctorName      string      `json:"doctor_name"`
	Message         string      `json:"message"`
	AppointmentDate string      `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string      `json:"appointment_time"` // HH:MM
	Photo           *Attachment `json:"-"`
}

// DigitsOnly strips every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}

// encode builds the request body: multipart when a photo is attached, JSON
// otherwise. Both carry the same fields.
func (r Request) encode() (body []byte, contentType string, err error) {
	r.PhoneNumber = DigitsOnly(r.PhoneNumber)

	if r.Photo == nil {
		body, err = json.Marshal(r)
		if err != nil {
			return nil, "", fmt.Errorf("marshal booking: %w", err)
		}
		return body, "application/json", nil
	}

	fields := [][2]string{
		{"full_name", r.FullName},
		{"phone_number", r.PhoneNumber},
		{"department", r.Department},
		{"doctor_name", r.DoctorName},
		{"message", r.Message},
		{"appointment_date", r.AppointmentDate},
		{"appointment_time", r.AppointmentTime},
	}
	return encodeMultipart(fields, "photo", r.Photo)
}

func encodeMultipart(fields [][2]string, fileField string, file *Attachment) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header.Set("Content-Type", ct)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", fileField, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
