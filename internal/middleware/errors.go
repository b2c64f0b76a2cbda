package middleware

import (
	"encoding/json"
	"net/http"

	apierrors "matchreport/internal/errors"
)

// Problem is the problem body written by middleware that rejects a request
// before it reaches a handler. Its type URIs are shared with
// errors.ErrorHandler so clients see one vocabulary.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusUnauthorized:          apierrors.TypeUnauthorized,
	http.StatusRequestEntityTooLarge: apierrors.TypePayloadTooLarge,
	http.StatusUnsupportedMediaType:  apierrors.TypeUnsupported,
	http.StatusTooManyRequests:       apierrors.TypeRateLimit,
	http.StatusInternalServerError:   apierrors.TypeInternal,
	http.StatusGatewayTimeout:        apierrors.TypeTimeout,
}

func writeProblem(w http.ResponseWriter, p Problem) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// ProblemFromStatus builds the Problem for status. requestID ends up in
// trace_id so a rejected upload can be found in the logs.
func ProblemFromStatus(status int, detail string, requestID string) Problem {
	problemType, ok := problemTypes[status]
	if !ok {
		problemType = "about:blank"
	}
	return Problem{
		Type:   problemType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Trace:  requestID,
	}
}
