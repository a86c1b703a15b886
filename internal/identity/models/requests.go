package models

import "strings"

// Field names follow the identity provider's custom-policy claim contract,
// which mixes casings; the JSON tags are the contract, not a style choice.

// SignupRequest carries the claims a signup policy step sends for
// pre-registration gating.
type SignupRequest struct {
	Captcha string `json:"captcha"`
	Email   string `json:"Email" validate:"required,max=255"`
}

func (r *SignupRequest) Normalize() {
	r.Captcha = strings.TrimSpace(r.Captcha)
	r.Email = strings.TrimSpace(r.Email)
}

// ValidateEmailRequest carries the claims sent by the validate-email,
// social-email and password-reset policy steps. ObjectId may be absent when
// the directory account does not exist yet.
type ValidateEmailRequest struct {
	Email    string `json:"Email" validate:"required,max=255"`
	ObjectID string `json:"ObjectId" validate:"max=100"`
}

func (r *ValidateEmailRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.ObjectID = strings.TrimSpace(r.ObjectID)
}

// ValidateLoginRequest carries one password attempt plus the throttle state
// the policy read from the directory. IncorrectAttempts and
// NextLoginEnabledTime are optional; when both are absent the service reads
// the state from the directory itself.
type ValidateLoginRequest struct {
	Email                string `json:"Email" validate:"required,max=255"`
	ObjectID             string `json:"ObjectId" validate:"max=100"`
	IsCorrectPwd         bool   `json:"IsCorrectPwd"`
	IncorrectAttempts    *int   `json:"IncorrectAttempts,omitempty"`
	NextLoginEnabledTime string `json:"NextLoginEnabledTime,omitempty"`
}

func (r *ValidateLoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.ObjectID = strings.TrimSpace(r.ObjectID)
	r.NextLoginEnabledTime = strings.TrimSpace(r.NextLoginEnabledTime)
}

// ActivateRequest carries the claims sent after a completed registration to
// re-enable the directory account.
type ActivateRequest struct {
	ObjectID string `json:"ObjectId" validate:"required,max=100"`
	Email    string `json:"Email" validate:"max=255"`
	Name     string `json:"Name" validate:"max=255"`
}

func (r *ActivateRequest) Normalize() {
	r.ObjectID = strings.TrimSpace(r.ObjectID)
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}
