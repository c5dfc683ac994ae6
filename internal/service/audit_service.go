package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/langschool-api/internal/models"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService writes audit trail entries. Failures never fail the request.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record stores an audit entry for a privileged mutation performed by actor.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, resource, resourceID string, values interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AuditLog{
		ActorEmail: actor.Email,
		Action:     action,
		Resource:   resource,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if values != nil {
		body, err := json.Marshal(values)
		if err != nil {
			s.logger.Warn("failed to encode audit values", zap.String("action", action), zap.Error(err))
		} else {
			entry.NewValues = body
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}
