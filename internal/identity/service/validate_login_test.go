package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	"idguard/internal/directory"
	"idguard/internal/identity/models"
)

func (s *ServiceSuite) TestValidateLoginBlockedEmail() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "spam@blocked.org").Return(true, nil)
	s.mockDirectory.EXPECT().DisableAccount(gomockAny, "obj-1").Return(nil)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:           "spam@blocked.org",
		ObjectID:        "obj-1",
		PasswordCorrect: true,
	})
	s.Equal(models.LoginBlocked, result.Outcome)
}

func (s *ServiceSuite) TestValidateLoginBlocklistUnavailableDenies() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, errors.New("blob store down"))

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:           "user@example.com",
		ObjectID:        "obj-1",
		PasswordCorrect: true,
	})
	s.Equal(models.LoginBlocked, result.Outcome)
}

func (s *ServiceSuite) TestValidateLoginCleanCorrectPassword() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:             "user@example.com",
		ObjectID:          "obj-1",
		PasswordCorrect:   true,
		IncorrectAttempts: intPtr(0),
	})
	s.Equal(models.LoginAllowed, result.Outcome)
}

func (s *ServiceSuite) TestValidateLoginCorrectPasswordResetsCounter() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")
	s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomock.Cond(func(x any) bool {
			p, ok := x.(directory.AccountPatch)
			if !ok {
				return false
			}
			return p.IncorrectAttempts != nil && *p.IncorrectAttempts == 0 && p.ClearNextLoginTime
		})).
		Return(nil)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:             "user@example.com",
		ObjectID:          "obj-1",
		PasswordCorrect:   true,
		IncorrectAttempts: intPtr(3),
	})
	s.Equal(models.LoginAllowed, result.Outcome)
}

func (s *ServiceSuite) TestValidateLoginWrongPassword() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")
	s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomock.Cond(func(x any) bool {
			p, ok := x.(directory.AccountPatch)
			if !ok {
				return false
			}
			return p.IncorrectAttempts != nil && *p.IncorrectAttempts == 4 && p.NextLoginEnabledTime == nil
		})).
		Return(nil)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:             "user@example.com",
		ObjectID:          "obj-1",
		PasswordCorrect:   false,
		IncorrectAttempts: intPtr(3),
	})
	s.Equal(models.LoginWrongPassword, result.Outcome)
	s.Equal(1, result.Remaining)
}

func (s *ServiceSuite) TestValidateLoginThresholdLocksAccount() {
	lockedUntil := s.now.Add(30 * time.Minute)

	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")
	s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomock.Cond(func(x any) bool {
			p, ok := x.(directory.AccountPatch)
			if !ok {
				return false
			}
			return p.IncorrectAttempts != nil && *p.IncorrectAttempts == 5 &&
				p.NextLoginEnabledTime != nil && p.NextLoginEnabledTime.Equal(lockedUntil)
		})).
		Return(nil)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:             "user@example.com",
		ObjectID:          "obj-1",
		PasswordCorrect:   false,
		IncorrectAttempts: intPtr(4),
	})
	s.Equal(models.LoginLockedNow, result.Outcome)
	s.Require().NotNil(result.LockedUntil)
	s.True(result.LockedUntil.Equal(lockedUntil))
}

func (s *ServiceSuite) TestValidateLoginStillLocked() {
	lockedUntil := s.now.Add(10 * time.Minute)

	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:                "user@example.com",
		ObjectID:             "obj-1",
		PasswordCorrect:      true,
		IncorrectAttempts:    intPtr(5),
		NextLoginEnabledTime: timePtr(lockedUntil),
	})
	s.Equal(models.LoginStillLocked, result.Outcome)
	s.Require().NotNil(result.LockedUntil)
	s.True(result.LockedUntil.Equal(lockedUntil))
}

func (s *ServiceSuite) TestValidateLoginElapsedLockResetsBeforeCounting() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")

	reset := s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomock.Cond(func(x any) bool {
			p, ok := x.(directory.AccountPatch)
			if !ok {
				return false
			}
			return p.IncorrectAttempts != nil && *p.IncorrectAttempts == 0 && p.ClearNextLoginTime
		})).
		Return(nil)
	s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomock.Cond(func(x any) bool {
			p, ok := x.(directory.AccountPatch)
			if !ok {
				return false
			}
			return p.IncorrectAttempts != nil && *p.IncorrectAttempts == 1
		})).
		Return(nil).
		After(reset)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:                "user@example.com",
		ObjectID:             "obj-1",
		PasswordCorrect:      false,
		IncorrectAttempts:    intPtr(5),
		NextLoginEnabledTime: timePtr(s.now.Add(-time.Minute)),
	})
	s.Equal(models.LoginWrongPassword, result.Outcome)
	s.Equal(4, result.Remaining)
}

func (s *ServiceSuite) TestValidateLoginReadsStateFromDirectory() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")
	s.mockDirectory.EXPECT().GetAccount(gomockAny, "obj-1").Return(&directory.Account{
		ObjectID:          "obj-1",
		AccountEnabled:    true,
		IncorrectAttempts: 2,
	}, nil)
	s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomock.Cond(func(x any) bool {
			p, ok := x.(directory.AccountPatch)
			if !ok {
				return false
			}
			return p.IncorrectAttempts != nil && *p.IncorrectAttempts == 3
		})).
		Return(nil)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:           "user@example.com",
		ObjectID:        "obj-1",
		PasswordCorrect: false,
	})
	s.Equal(models.LoginWrongPassword, result.Outcome)
	s.Equal(2, result.Remaining)
}

func (s *ServiceSuite) TestValidateLoginDirectoryReadFailureAssumesClean() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")
	s.mockDirectory.EXPECT().GetAccount(gomockAny, "obj-1").Return(nil, errors.New("directory down"))

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:           "user@example.com",
		ObjectID:        "obj-1",
		PasswordCorrect: true,
	})
	s.Equal(models.LoginAllowed, result.Outcome)
}

func (s *ServiceSuite) TestValidateLoginPatchFailureKeepsDecision() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.expectLock("obj-1")
	s.mockDirectory.EXPECT().
		PatchAccount(gomockAny, "obj-1", gomockAny).
		Return(errors.New("directory down"))

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:             "user@example.com",
		ObjectID:          "obj-1",
		PasswordCorrect:   false,
		IncorrectAttempts: intPtr(1),
	})
	s.Equal(models.LoginWrongPassword, result.Outcome)
	s.Equal(3, result.Remaining)
}

func (s *ServiceSuite) TestValidateLoginLockerFailureContinues() {
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)
	s.mockLocker.EXPECT().Acquire(gomockAny, "obj-1").Return(nil, errors.New("redis down"))

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:             "user@example.com",
		ObjectID:          "obj-1",
		PasswordCorrect:   true,
		IncorrectAttempts: intPtr(0),
	})
	s.Equal(models.LoginAllowed, result.Outcome)
}

func (s *ServiceSuite) TestValidateLoginWithoutObjectIDSkipsDirectory() {
	// No account to lock, read or patch; only the blocklist is consulted.
	s.mockBlocklist.EXPECT().IsBlocked(gomockAny, "user@example.com").Return(false, nil)

	result := s.service.ValidateLogin(context.Background(), models.LoginAttempt{
		Email:           "user@example.com",
		PasswordCorrect: false,
	})
	s.Equal(models.LoginWrongPassword, result.Outcome)
	s.Equal(4, result.Remaining)
}
