package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// maxRequestBody caps JSON request bodies. A booking with a long message
// stays well under 8 KiB.
const maxRequestBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// decodeJSON reads exactly one JSON object from the body into dst. Unknown
// fields are ignored; a field of the wrong JSON type is reported against
// that field. On failure it writes the response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	err := dec.Decode(dst)
	if err == nil {
		// Anything after the object makes the body malformed.
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return true
		}
		if err == nil {
			err = errTrailingData
		}
	}

	var (
		mbe *http.MaxBytesError
		ute *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &mbe):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "Request body is required")
	case errors.As(err, &ute) && ute.Field != "":
		writeJSON(w, http.StatusBadRequest, types.ValidationErrorResponse{Errors: []types.FieldError{{
			Field:   ute.Field,
			Message: "Expected " + jsonKind(ute.Type.Kind()) + ", got " + ute.Value,
		}}})
	default:
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}
	return false
}

var errTrailingData = errors.New("trailing data after JSON object")

func jsonKind(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "number"
	}
}
