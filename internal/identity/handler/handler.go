package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idguard/internal/identity/models"
	"idguard/pkg/httputil"
)

// User-facing messages. The identity provider's policies display these
// verbatim, so the wording is part of the contract.
const (
	msgEmptyBody          = "Request content is empty."
	msgInvalidRequest     = "Request content is invalid."
	msgCaptchaMissing     = "Captcha is missing or invalid."
	msgCaptchaRejected    = "Captcha failed, retry the Captcha."
	msgCaptchaUnavailable = "Captcha API call failed."
	msgSignupBlocked      = "Please choose a different email address to continue."
	msgSignupAccepted     = "Captcha validated successfully."
	msgLoginBlocked       = "You are not allowed to login and blocked."
	msgValidEmail         = "Valid Email."
	msgStillLocked        = "Your account is in locked state due to incorrect password attempts. Please try after sometime."
	msgLockedNow          = "Incorrect Password. Your account is locked."
	msgActivated          = "Account activated successfully."
	msgWrongPasswordFmt   = "Incorrect Password. Attempts remaining - %d"
)

// Service defines the identity gating operations the handler exposes.
type Service interface {
	Signup(ctx context.Context, req *models.SignupRequest) models.SignupOutcome
	CheckEmail(ctx context.Context, email, objectID string) models.EmailOutcome
	ValidateLogin(ctx context.Context, attempt models.LoginAttempt) models.LoginResult
	Activate(ctx context.Context, req *models.ActivateRequest)
}

// Handler exposes the identity gating endpoints consumed by the identity
// provider's custom policies.
type Handler struct {
	identity Service
	logger   *slog.Logger
}

// New creates an identity Handler.
func New(identity Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{identity: identity, logger: logger}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signup", h.HandleSignup)
	r.Post("/validateEmail", h.HandleValidateEmail)
	r.Post("/validateLogin", h.HandleValidateLogin)
	r.Post("/validateSocialEmail", h.HandleValidateSocialEmail)
	r.Post("/passwordReset", h.HandlePasswordReset)
	r.Post("/activate", h.HandleActivate)
}

func respond(w http.ResponseWriter, status int, userMessage string) {
	httputil.WriteJSON(w, status, models.NewAPIResponse(status, userMessage))
}

// decode reads and prepares the request body, writing the error envelope
// itself when the body is unusable.
func decode[T any](h *Handler, w http.ResponseWriter, r *http.Request) (*T, bool) {
	req, err := httputil.DecodeAndPrepare[T](r, h.logger)
	if err != nil {
		if errors.Is(err, httputil.ErrEmptyBody) {
			respond(w, http.StatusBadRequest, msgEmptyBody)
		} else {
			respond(w, http.StatusBadRequest, msgInvalidRequest)
		}
		return nil, false
	}
	return req, true
}

// HandleSignup implements POST /api/identity/signup: captcha check followed
// by the blocklist gate.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[models.SignupRequest](h, w, r)
	if !ok {
		return
	}
	if req.Captcha == "" {
		respond(w, http.StatusConflict, msgCaptchaMissing)
		return
	}

	switch h.identity.Signup(r.Context(), req) {
	case models.SignupAccepted:
		respond(w, http.StatusOK, msgSignupAccepted)
	case models.SignupCaptchaRejected:
		respond(w, http.StatusConflict, msgCaptchaRejected)
	case models.SignupCaptchaUnavailable:
		respond(w, http.StatusConflict, msgCaptchaUnavailable)
	case models.SignupEmailBlocked:
		respond(w, http.StatusConflict, msgSignupBlocked)
	}
}

// HandleValidateEmail implements POST /api/identity/validateEmail. A
// blocklist hit answers 409 and disables the account behind the address.
func (h *Handler) HandleValidateEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[models.ValidateEmailRequest](h, w, r)
	if !ok {
		return
	}
	h.checkEmail(w, r, req)
}

// HandlePasswordReset implements POST /api/identity/passwordReset. A reset
// for a blocklisted address is refused the same way a login is.
func (h *Handler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[models.ValidateEmailRequest](h, w, r)
	if !ok {
		return
	}
	h.checkEmail(w, r, req)
}

func (h *Handler) checkEmail(w http.ResponseWriter, r *http.Request, req *models.ValidateEmailRequest) {
	if h.identity.CheckEmail(r.Context(), req.Email, req.ObjectID) == models.EmailBlocked {
		respond(w, http.StatusConflict, msgLoginBlocked)
		return
	}
	respond(w, http.StatusOK, msgValidEmail)
}

// HandleValidateSocialEmail implements POST /api/identity/validateSocialEmail.
// The policy step branches on the response flag, so the status is always 200.
func (h *Handler) HandleValidateSocialEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[models.ValidateEmailRequest](h, w, r)
	if !ok {
		return
	}

	outcome := h.identity.CheckEmail(r.Context(), req.Email, req.ObjectID)
	httputil.WriteJSON(w, http.StatusOK, models.SocialEmailResponse{
		IsSocialEmailValid: outcome == models.EmailAllowed,
	})
}

// HandleValidateLogin implements POST /api/identity/validateLogin.
func (h *Handler) HandleValidateLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[models.ValidateLoginRequest](h, w, r)
	if !ok {
		return
	}

	attempt := models.LoginAttempt{
		Email:             req.Email,
		ObjectID:          req.ObjectID,
		PasswordCorrect:   req.IsCorrectPwd,
		IncorrectAttempts: req.IncorrectAttempts,
	}
	if req.NextLoginEnabledTime != "" {
		if t, err := parseLoginTime(req.NextLoginEnabledTime); err == nil {
			attempt.NextLoginEnabledTime = &t
		} else {
			h.logger.WarnContext(r.Context(), "ignoring unparseable next login time",
				"value", req.NextLoginEnabledTime,
				"object_id", req.ObjectID,
			)
		}
	}

	result := h.identity.ValidateLogin(r.Context(), attempt)
	switch result.Outcome {
	case models.LoginAllowed:
		respond(w, http.StatusOK, msgValidEmail)
	case models.LoginBlocked:
		respond(w, http.StatusConflict, msgLoginBlocked)
	case models.LoginStillLocked:
		respond(w, http.StatusConflict, msgStillLocked)
	case models.LoginLockedNow:
		respond(w, http.StatusConflict, msgLockedNow)
	case models.LoginWrongPassword:
		respond(w, http.StatusConflict, fmt.Sprintf(msgWrongPasswordFmt, result.Remaining))
	}
}

// HandleActivate implements POST /api/identity/activate. The enable is
// fire-and-forget; the response does not depend on the directory write.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[models.ActivateRequest](h, w, r)
	if !ok {
		return
	}

	h.identity.Activate(r.Context(), req)
	respond(w, http.StatusOK, msgActivated)
}

// loginTimeLayouts covers the formats lock timestamps have been stored in:
// RFC 3339 from this service, zone-less ISO and US-style strings from
// earlier writers.
var loginTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 15:04:05",
}

func parseLoginTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range loginTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
