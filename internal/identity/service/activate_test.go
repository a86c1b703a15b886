package service

import (
	"context"
	"errors"

	"idguard/internal/identity/models"
)

func (s *ServiceSuite) TestActivateEnablesAccount() {
	s.mockDirectory.EXPECT().EnableAccount(gomockAny, "obj-1").Return(nil)

	s.service.Activate(context.Background(), &models.ActivateRequest{
		ObjectID: "obj-1",
		Email:    "user@example.com",
		Name:     "User",
	})
}

func (s *ServiceSuite) TestActivateSwallowsDirectoryFailure() {
	s.mockDirectory.EXPECT().EnableAccount(gomockAny, "obj-1").Return(errors.New("directory down"))

	s.NotPanics(func() {
		s.service.Activate(context.Background(), &models.ActivateRequest{ObjectID: "obj-1"})
	})
}
