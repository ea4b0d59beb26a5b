package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hackgods/clinic-booking/internal/i18n"
	"github.com/hackgods/clinic-booking/internal/submission"
)

const maxResumeBytes = 10 << 20

// ResumeSender delivers job applications to the resume collector.
type ResumeSender interface {
	SendResume(ctx context.Context, r submission.Resume) submission.Result
}

func resumeHandler(sender ResumeSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes+1<<20)
		if err := r.ParseMultipartForm(maxResumeBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_multipart", "expected a multipart form")
			return
		}

		resume := submission.Resume{
			FullName:  r.FormValue("full_name"),
			BirthDate: r.FormValue("birth_date"),
			Phone:     r.FormValue("phone"),
			Email:     r.FormValue("email"),
			Salary:    r.FormValue("salary"),
			Position:  r.FormValue("position"),
			Skills:    r.FormValue("skills"),
		}

		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_file", "could not read file")
				return
			}
			resume.File = &submission.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			}
		case !errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "invalid_file", "could not read file")
			return
		}

		if err := resume.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_resume", err.Error())
			return
		}

		labels := i18n.Booking(resolverFrom(r.Context()).T())
		res := sender.SendResume(r.Context(), resume)
		message := labels.Success
		if !res.OK() {
			message = labels.Error
		}
		writeJSON(w, http.StatusOK, ResumeResponse{Outcome: res.Outcome.String(), Message: message})
	}
}
