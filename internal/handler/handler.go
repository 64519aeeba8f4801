// Package handler contains HTTP request handlers for the route
// planning API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is the shared request validator. Struct tags on the DTOs in
// internal/model drive the rules.
var validate = validator.New()

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// validationMessage flattens validator errors into a single readable
// message for the 400 body.
func validationMessage(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return "field '" + first.Field() + "' failed on rule '" + first.Tag() + "'"
	}
	return err.Error()
}
