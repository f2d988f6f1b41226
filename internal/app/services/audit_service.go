package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditEntityCode       = "code"
	AuditEntityRedemption = "reward_redemption"
	AuditEntityTicket     = "scratch_ticket"
	AuditEntityCampaign   = "scratch_campaign"
	AuditEntityReward     = "reward"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// LogAudit records a create or update of an entity inside tx
func (s *AuditService) LogAudit(tx *gorm.DB, entityType, entityID string, action models.AuditAction, data interface{}, changedBy *uuid.UUID, now time.Time) error {
	auditLog := &models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ChangedBy:  changedBy,
		ChangedAt:  now,
	}

	if data != nil {
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal audit data: %w", err)
		}
		auditLog.Data = datatypes.JSON(jsonBytes)
	}

	return tx.Create(auditLog).Error
}

// LogStatusChange records a status transition inside tx
func (s *AuditService) LogStatusChange(tx *gorm.DB, entityType, entityID string, fromStatus, toStatus string, reason *string, changedBy *uuid.UUID, now time.Time) error {
	auditLog := &models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     models.AuditActionStatusChange,
		ToStatus:   &toStatus,
		Reason:     reason,
		ChangedBy:  changedBy,
		ChangedAt:  now,
	}
	if fromStatus != "" {
		auditLog.FromStatus = &fromStatus
	}

	return tx.Create(auditLog).Error
}

// GetEntityHistory retrieves the audit trail of one entity, oldest first
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("changed_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, errors.NewUnavailableError(err, "Failed to get audit history")
	}

	return logs, nil
}

// GetAuditLogs retrieves audit logs with pagination
func (s *AuditService) GetAuditLogs(ctx context.Context, entityType string, pagination *models.PaginationRequest) (*models.Pagination[[]models.AuditLog], error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	return paginate[models.AuditLog](query, pagination, "changed_at")
}
