package httputil

import (
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Envelope is the flat response body shared by every match route. Result is
// always an array, possibly empty, and Error lists human readable messages on
// failure.
type Envelope struct {
	Status string        `json:"status"`
	Error  []string      `json:"error"`
	Method string        `json:"method"`
	Result []interface{} `json:"result"`
}

// EnvelopeOK renders a successful envelope for the given method.
func EnvelopeOK(w http.ResponseWriter, r *http.Request, method string, result []interface{}) {
	if result == nil {
		result = []interface{}{}
	}
	writeEnvelope(w, http.StatusOK, Envelope{
		Status: "ok",
		Error:  []string{},
		Method: method,
		Result: result,
	})
}

// EnvelopeError renders a failed envelope carrying the catalog message of the
// given APIError, with its HTTP status. Detailed errors are appended when the
// API runs with HTTP_SERVER_API_ENABLE_VERBOSE_ERROR = true.
func EnvelopeError(w http.ResponseWriter, r *http.Request, method string, apiError APIError, err error) {
	messages := []string{apiError.Message}
	if err != nil {
		if viper.GetBool("HTTP_SERVER_API_ENABLE_VERBOSE_ERROR") {
			messages = append(messages, err.Error())
		} else {
			for _, detail := range displayedErrorDetails {
				if detail.Code == apiError.Code {
					messages = append(messages, err.Error())
					break
				}
			}
		}
	}
	writeEnvelope(w, apiError.Status, Envelope{
		Status: "fail",
		Error:  messages,
		Method: method,
		Result: []interface{}{},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		zap.L().Error("Envelope JSON encode", zap.Error(err))
	}
}
