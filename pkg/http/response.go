package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// WriteJSON renders v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// DecodeJSON decodes a JSON request body into v
func DecodeJSON(r *http.Request, v interface{}) error {
	return render.DecodeJSON(r.Body, v)
}
