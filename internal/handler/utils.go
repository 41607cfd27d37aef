package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxUploadMemory bounds the in-memory part of multipart form parsing.
const maxUploadMemory = 32 << 20

// parseForm parses either an urlencoded or a multipart form body.
// ParseForm only reads the body on POST, PUT and PATCH, so the urlencoded body
// of a DELETE request is read and merged here.
func parseForm(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		return r.ParseMultipartForm(maxUploadMemory)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}

	if r.Method == http.MethodDelete && mediaType == "application/x-www-form-urlencoded" && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadMemory))
		if err != nil {
			return err
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return err
		}
		for key, vals := range values {
			for _, v := range vals {
				r.Form.Add(key, v)
			}
		}
	}
	return nil
}

// imageInput is an image received either by URL or as an uploaded file.
type imageInput struct {
	URL      string
	Data     []byte
	Uploaded bool
}

// getImage extracts an image from the form body: a present URL form field
// wins, even when empty, and the file field is the fallback. Actual URL
// fetching is left to the caller.
func getImage(r *http.Request, urlField, fileField string) (imageInput, error) {
	if urls, ok := r.Form[urlField]; ok {
		var u string
		if len(urls) > 0 {
			u = urls[0]
		}
		return imageInput{URL: u}, nil
	}

	file, _, err := r.FormFile(fileField)
	if err != nil {
		return imageInput{}, fmt.Errorf("missing %q or %q field: %w", urlField, fileField, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return imageInput{}, fmt.Errorf("read uploaded file %q: %w", fileField, err)
	}
	return imageInput{Data: data, Uploaded: true}, nil
}

// formParamToOptionalInt parses an int from the form or query, clamped to zero.
func formParamToOptionalInt(r *http.Request, name string, orDefault int) (int, error) {
	param := r.FormValue(name)
	if param == "" {
		return orDefault, nil
	}
	value, err := strconv.Atoi(param)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, nil
	}
	return value, nil
}

// formParamToOptionalFloat parses a float64 from the form or query.
func formParamToOptionalFloat(r *http.Request, name string, orDefault float64) (float64, error) {
	param := r.FormValue(name)
	if param == "" {
		return orDefault, nil
	}
	return strconv.ParseFloat(param, 64)
}

// formParamToOptionalBool parses the form's "true"/"false" convention.
func formParamToOptionalBool(r *http.Request, name string, orDefault bool) bool {
	param := r.FormValue(name)
	if param == "" {
		return orDefault
	}
	return param == "true"
}
