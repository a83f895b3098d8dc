package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"taskManager/internal/service"
)

const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

var errMalformedBody = errors.New("malformed body")

// decodeBody читает JSON-объект без неизвестных полей.
// Ошибки схемы возвращаются как *service.BusinessError, синтаксические - как errMalformedBody
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err == nil {
		// после объекта допустимы только пробельные символы
		if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: trailing data after JSON object", errMalformedBody)
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return service.NewValidationError("body", "must be a JSON object")
		}
		return service.NewValidationError(typeErr.Field, fmt.Sprintf("must be a %s", jsonKind(typeErr.Type.Kind().String())))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return service.NewValidationError(field, "unknown field")
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: empty body", errMalformedBody)
	default:
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
}

func jsonKind(goKind string) string {
	switch goKind {
	case "ptr", "string":
		return "string"
	case "struct", "map":
		return "object"
	default:
		return goKind
	}
}

func errRequired(field string) error {
	return service.NewValidationError(field, "is required")
}
