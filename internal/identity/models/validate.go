package models

import (
	"github.com/go-playground/validator/v10"

	dErrors "idguard/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func runValidation(req any) error {
	if err := validate.Struct(req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "request failed validation")
	}
	return nil
}

func (r *SignupRequest) Validate() error        { return runValidation(r) }
func (r *ValidateEmailRequest) Validate() error { return runValidation(r) }
func (r *ValidateLoginRequest) Validate() error { return runValidation(r) }
func (r *ActivateRequest) Validate() error      { return runValidation(r) }
