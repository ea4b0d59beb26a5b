package api

import (
	"net/http"

	"github.com/hackgods/clinic-booking/internal/i18n"
)

var supportedLanguages = []string{string(i18n.Primary), string(i18n.Secondary)}

func getLanguageHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LanguageResponse{
		Language:  string(resolverFrom(r.Context()).Language()),
		Supported: supportedLanguages,
	})
}

func setLanguageHandler(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	lang, ok := i18n.ParseLanguage(req.Language)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "unsupported_language", "language must be one of uz, ru")
		return
	}

	resolver := resolverFrom(r.Context())
	resolver.SetLanguage(r.Context(), lang)
	writeJSON(w, http.StatusOK, LanguageResponse{
		Language:  string(resolver.Language()),
		Supported: supportedLanguages,
	})
}
