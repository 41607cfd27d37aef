package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/internal/search"
	"github.com/imagematch/match-api/pkg/signature"
	"github.com/imagematch/match-api/pkg/utils/httputil"
)

// AddImage signs an image, provided by URL or upload, and indexes it under a
// path. An existing document with the same path is superseded.
func AddImage(w http.ResponseWriter, r *http.Request) {
	const method = "add"

	if err := parseForm(r); err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingForm, err)
		return
	}

	var metadata json.RawMessage
	if raw := r.FormValue("metadata"); raw != "" && raw != "null" {
		if !json.Valid([]byte(raw)) {
			httputil.EnvelopeError(w, r, method, httputil.ErrAPIResourceInvalid, errors.New("metadata is not valid JSON"))
			return
		}
		metadata = json.RawMessage(raw)
	}

	input, err := getImage(r, "url", "image")
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIMissingParam, err)
		return
	}

	path := r.FormValue("filepath")
	if path == "" {
		if input.Uploaded {
			httputil.EnvelopeError(w, r, method, httputil.ErrAPIMissingParam,
				errors.New("filepath must be provided when the image is passed as a file"))
			return
		}
		path = input.URL
	}

	data := input.Data
	if !input.Uploaded {
		data, err = search.S().Fetch(r.Context(), input.URL)
		if err != nil {
			zap.L().Warn("Fetch image", zap.String("url", input.URL), zap.Error(err))
			httputil.EnvelopeError(w, r, method, httputil.ErrAPIResourceInvalid, err)
			return
		}
	}

	if err := search.S().AddImage(r.Context(), path, data, metadata); err != nil {
		zap.L().Error("Add image", zap.String("path", path), zap.Error(err))
		if errors.Is(err, search.ErrQueueFull) {
			httputil.EnvelopeError(w, r, method, httputil.ErrAPIQueueFull, err)
			return
		}
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIElasticIndexFailed, err)
		return
	}

	httputil.EnvelopeOK(w, r, method, nil)
}

// DeleteImage removes every signature stored under the given filepath.
func DeleteImage(w http.ResponseWriter, r *http.Request) {
	const method = "delete"

	if err := parseForm(r); err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingForm, err)
		return
	}

	path := r.FormValue("filepath")
	if path == "" {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIMissingParam, errors.New("missing filepath"))
		return
	}

	if _, err := search.S().DeleteImage(r.Context(), path); err != nil {
		zap.L().Error("Delete image", zap.String("path", path), zap.Error(err))
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIElasticSelectFailed, err)
		return
	}

	httputil.EnvelopeOK(w, r, method, nil)
}

// SearchImage looks up indexed images similar to the query image and returns
// them with their similarity scores, best match first.
func SearchImage(w http.ResponseWriter, r *http.Request) {
	const method = "search"

	if err := parseForm(r); err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingForm, err)
		return
	}

	input, err := getImage(r, "url", "image")
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIMissingParam, err)
		return
	}

	allOrientations := formParamToOptionalBool(r, "all_orientations", viper.GetBool("ALL_ORIENTATIONS"))
	minScore, err := formParamToOptionalFloat(r, "min_score", viper.GetFloat64("DEFAULT_MIN_SCORE"))
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingInteger, err)
		return
	}

	data := input.Data
	if !input.Uploaded {
		data, err = search.S().Fetch(r.Context(), input.URL)
		if err != nil {
			zap.L().Warn("Fetch image", zap.String("url", input.URL), zap.Error(err))
			httputil.EnvelopeError(w, r, method, httputil.ErrAPIResourceInvalid, err)
			return
		}
	}

	matches, err := search.S().SearchImage(r.Context(), data, allOrientations, signature.CutoffFromScore(minScore))
	if err != nil {
		zap.L().Error("Search image", zap.Error(err))
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIElasticSelectFailed, err)
		return
	}

	result := make([]interface{}, 0, len(matches))
	for _, match := range matches {
		result = append(result, map[string]interface{}{
			"score":    signature.Score(match.Dist),
			"filepath": match.Path,
			"metadata": match.Metadata,
		})
	}
	httputil.EnvelopeOK(w, r, method, result)
}

// CompareImages scores the similarity between two images without touching the index.
func CompareImages(w http.ResponseWriter, r *http.Request) {
	const method = "compare"

	if err := parseForm(r); err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingForm, err)
		return
	}

	first, err := resolveImage(r, "url1", "image1")
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIMissingParam, err)
		return
	}
	second, err := resolveImage(r, "url2", "image2")
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIMissingParam, err)
		return
	}

	score, err := search.S().CompareImages(first, second)
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIResourceInvalid, err)
		return
	}

	httputil.EnvelopeOK(w, r, method, []interface{}{map[string]interface{}{"score": score}})
}

// CountImages returns the number of indexed images.
func CountImages(w http.ResponseWriter, r *http.Request) {
	const method = "count"

	count, err := search.S().CountImages(r.Context())
	if err != nil {
		zap.L().Error("Count images", zap.Error(err))
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIElasticSelectFailed, err)
		return
	}

	httputil.EnvelopeOK(w, r, method, []interface{}{count})
}

// ListImages returns indexed image paths, paginated by offset and limit.
func ListImages(w http.ResponseWriter, r *http.Request) {
	const method = "list"

	if err := parseForm(r); err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingForm, err)
		return
	}

	offset, err := formParamToOptionalInt(r, "offset", 0)
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingInteger, err)
		return
	}
	limit, err := formParamToOptionalInt(r, "limit", 20)
	if err != nil {
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIParsingInteger, err)
		return
	}

	paths, err := search.S().ListImages(r.Context(), offset, limit)
	if err != nil {
		zap.L().Error("List images", zap.Error(err))
		httputil.EnvelopeError(w, r, method, httputil.ErrAPIElasticSelectFailed, err)
		return
	}

	result := make([]interface{}, 0, len(paths))
	for _, path := range paths {
		result = append(result, path)
	}
	httputil.EnvelopeOK(w, r, method, result)
}

// Ping answers with an empty successful envelope.
func Ping(w http.ResponseWriter, r *http.Request) {
	httputil.EnvelopeOK(w, r, "ping", nil)
}

// NotFound is the catch-all route handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.EnvelopeError(w, r, "", httputil.ErrAPIRouteNotFound, nil)
}

// MethodNotAllowed is the catch-all verb handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.EnvelopeError(w, r, "", httputil.ErrAPIMethodNotAllowed, nil)
}

// resolveImage extracts an image input and downloads it when given by URL.
func resolveImage(r *http.Request, urlField, fileField string) ([]byte, error) {
	input, err := getImage(r, urlField, fileField)
	if err != nil {
		return nil, err
	}
	if input.Uploaded {
		return input.Data, nil
	}
	return search.S().Fetch(r.Context(), input.URL)
}
