package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "idguard/pkg/domain-errors"
)

// ErrEmptyBody is returned by DecodeJSON when the request carried no body at all.
// The identity provider's custom policies send empty bodies on misconfigured
// steps, and those must be distinguishable from malformed JSON.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes a JSON request body into the target type.
//
// Returns ErrEmptyBody for an empty body and a bad_request domain error for
// malformed JSON. Callers translate either into their endpoint's contract.
func DecodeJSON[T any](r *http.Request, logger *slog.Logger) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBody
		}
		if logger != nil {
			logger.WarnContext(r.Context(), "failed to decode request body", "error", err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return &req, nil
}

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that support normalization.
type Normalizable interface {
	Normalize()
}

// PrepareRequest normalizes and validates a request.
// This is a helper for the common pattern of request preparation.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare combines JSON decoding with request preparation.
// It decodes the JSON body, then calls Normalize() and Validate() if the
// target type implements those interfaces.
func DecodeAndPrepare[T any](r *http.Request, logger *slog.Logger) (*T, error) {
	req, err := DecodeJSON[T](r, logger)
	if err != nil {
		return nil, err
	}
	if err := PrepareRequest(req); err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return req, nil
}
