package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"contentnav/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Request bodies are small command DTOs
const maxBodyBytes = 64 << 10

// ParseJSON decodes JSON from the request body into dest and, when dest
// implements validation.Validatable, validates it. An empty body decodes as
// an empty object. Errors wrap domain.ErrValidation.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}

	if v, ok := dest.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	return nil
}

// QueryBool reports whether a query flag is set to a truthy value
// ("1", "true", "yes").
func QueryBool(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
