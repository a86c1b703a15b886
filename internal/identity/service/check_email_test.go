package service

import (
	"context"
	"errors"

	"idguard/internal/identity/models"
)

func (s *ServiceSuite) TestCheckEmailAllowed() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "ok@example.com").Return(false, nil)

	outcome := s.service.CheckEmail(context.Background(), "ok@example.com", "obj-1")
	s.Equal(models.EmailAllowed, outcome)
}

func (s *ServiceSuite) TestCheckEmailBlockedDisablesAccount() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "spam@blocked.org").Return(true, nil)
	s.mockDirectory.EXPECT().DisableAccount(gomockAny, "obj-1").Return(nil)

	outcome := s.service.CheckEmail(context.Background(), "spam@blocked.org", "obj-1")
	s.Equal(models.EmailBlocked, outcome)
}

func (s *ServiceSuite) TestCheckEmailBlockedWithoutAccount() {
	// No object id means nothing to disable; no directory expectation.
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "spam@blocked.org").Return(true, nil)

	outcome := s.service.CheckEmail(context.Background(), "spam@blocked.org", "")
	s.Equal(models.EmailBlocked, outcome)
}

func (s *ServiceSuite) TestCheckEmailDisableFailureStillBlocks() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "spam@blocked.org").Return(true, nil)
	s.mockDirectory.EXPECT().DisableAccount(gomockAny, "obj-1").Return(errors.New("directory down"))

	outcome := s.service.CheckEmail(context.Background(), "spam@blocked.org", "obj-1")
	s.Equal(models.EmailBlocked, outcome)
}

func (s *ServiceSuite) TestCheckEmailFetchFailureDeniesWithoutDisabling() {
	// Uncertainty denies the request but must not disable the account.
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "ok@example.com").Return(false, errors.New("blob store down"))

	outcome := s.service.CheckEmail(context.Background(), "ok@example.com", "obj-1")
	s.Equal(models.EmailBlocked, outcome)
}
