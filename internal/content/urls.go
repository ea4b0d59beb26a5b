package content

import "strings"

const placeholderImage = "/medical-team-collaboration.png"

// ImageURL resolves an uploaded file of model to a public URL.
func ImageURL(baseURL, model string, filename *string) string {
	if filename == nil || *filename == "" {
		return placeholderImage
	}
	return uploadURL(baseURL, model, *filename)
}

// VideoURL is like ImageURL but yields nil when there is no video.
func VideoURL(baseURL, model string, filename *string) *string {
	if filename == nil || *filename == "" {
		return nil
	}
	u := uploadURL(baseURL, model, *filename)
	return &u
}

func uploadURL(baseURL, model, filename string) string {
	if strings.HasPrefix(filename, "http") {
		return filename
	}
	return strings.TrimRight(baseURL, "/") + "/uploads/" + model + "/" + filename
}
