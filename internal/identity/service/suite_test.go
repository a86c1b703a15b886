package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Blocklist,CaptchaVerifier,Directory,AccountLocker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idguard/internal/identity/service/mocks"
	"idguard/internal/platform/config"
)

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockBlocklist *mocks.MockBlocklist
	mockCaptcha   *mocks.MockCaptchaVerifier
	mockDirectory *mocks.MockDirectory
	mockLocker    *mocks.MockAccountLocker
	now           time.Time
	service       *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockBlocklist = mocks.NewMockBlocklist(s.ctrl)
	s.mockCaptcha = mocks.NewMockCaptchaVerifier(s.ctrl)
	s.mockDirectory = mocks.NewMockDirectory(s.ctrl)
	s.mockLocker = mocks.NewMockAccountLocker(s.ctrl)
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(
		s.mockBlocklist,
		s.mockCaptcha,
		s.mockDirectory,
		config.LockoutConfig{Threshold: 5, LockDuration: 30 * time.Minute},
		WithLogger(logger),
		WithLocker(s.mockLocker),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// expectLock arms the per-account mutex expectation validate-login takes for
// any attempt that carries an object id.
func (s *ServiceSuite) expectLock(objectID string) {
	s.mockLocker.EXPECT().Acquire(gomock.Any(), objectID).Return(func() {}, nil)
}

var gomockAny = gomock.Any()

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }
