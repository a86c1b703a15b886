package service

import (
	"context"

	"idguard/internal/identity/models"
)

// Activate re-enables a directory account once registration completes,
// undoing an earlier precautionary disable. Best-effort: callers fire and
// forget, a failed write is logged and counted only.
func (s *Service) Activate(ctx context.Context, req *models.ActivateRequest) {
	ctx, span := s.tracer.Start(ctx, "identity.Activate")
	defer span.End()

	if err := s.directory.EnableAccount(ctx, req.ObjectID); err != nil {
		s.logger.ErrorContext(ctx, "failed to enable account", "error", err, "object_id", req.ObjectID)
		s.countPatchFailure()
		return
	}
	s.countEnabled()
	s.audit(ctx, "account_activated", "object_id", req.ObjectID, "email", req.Email)
}
