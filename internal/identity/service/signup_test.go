package service

import (
	"context"
	"errors"

	"idguard/internal/captcha"
	"idguard/internal/identity/models"
)

func (s *ServiceSuite) signupReq(email string) *models.SignupRequest {
	return &models.SignupRequest{Captcha: "token", Email: email}
}

func (s *ServiceSuite) TestSignupAccepted() {
	s.mockCaptcha.EXPECT().Verify(gomockAny, "token").Return(&captcha.Result{Success: true}, nil)
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "new@example.com").Return(false, nil)

	outcome := s.service.Signup(context.Background(), s.signupReq("new@example.com"))
	s.Equal(models.SignupAccepted, outcome)
}

func (s *ServiceSuite) TestSignupBlockedEmail() {
	s.mockCaptcha.EXPECT().Verify(gomockAny, "token").Return(&captcha.Result{Success: true}, nil)
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "spam@blocked.org").Return(true, nil)

	outcome := s.service.Signup(context.Background(), s.signupReq("spam@blocked.org"))
	s.Equal(models.SignupEmailBlocked, outcome)
}

func (s *ServiceSuite) TestSignupCaptchaRejected() {
	// The blocklist must not be consulted for a failed captcha; no
	// expectation is armed for it.
	s.mockCaptcha.EXPECT().Verify(gomockAny, "token").
		Return(&captcha.Result{Success: false, ErrorCodes: []string{"invalid-input-response"}}, nil)

	outcome := s.service.Signup(context.Background(), s.signupReq("new@example.com"))
	s.Equal(models.SignupCaptchaRejected, outcome)
}

func (s *ServiceSuite) TestSignupCaptchaUnavailable() {
	s.mockCaptcha.EXPECT().Verify(gomockAny, "token").Return(nil, errors.New("connect refused"))

	outcome := s.service.Signup(context.Background(), s.signupReq("new@example.com"))
	s.Equal(models.SignupCaptchaUnavailable, outcome)
}

func (s *ServiceSuite) TestSignupBlocklistUnavailableDenies() {
	s.mockCaptcha.EXPECT().Verify(gomockAny, "token").Return(&captcha.Result{Success: true}, nil)
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "new@example.com").Return(false, errors.New("blob store down"))

	outcome := s.service.Signup(context.Background(), s.signupReq("new@example.com"))
	s.Equal(models.SignupEmailBlocked, outcome)
}
