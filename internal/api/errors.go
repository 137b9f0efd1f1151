package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/andy/talentsink/internal/domain"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	HTTPStatusCode int `json:"-"`

	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := &ErrorResponse{HTTPStatusCode: statusFor(err)}

	switch resp.HTTPStatusCode {
	case http.StatusInternalServerError:
		a.slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Message = "internal server error"
	case http.StatusBadRequest:
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
		resp.Message = err.Error()
	default:
		resp.Message = err.Error()
	}

	_ = render.Render(w, r, resp)
}

// bindError turns a decode or bind failure into a validation error
func bindError(err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return domain.NewValidationError("body", err.Error())
}
