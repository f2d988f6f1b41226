package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"gorm.io/gorm"
)

// RewardService manages the reward catalog of a business.
type RewardService struct {
	db           *gorm.DB
	validator    *infrastructures.Validator
	tx           *TxRunner
	entitlements *EntitlementService
	audit        *AuditService
}

func NewRewardService(db *gorm.DB, validator *infrastructures.Validator, tx *TxRunner, entitlements *EntitlementService, audit *AuditService) *RewardService {
	return &RewardService{
		db:           db,
		validator:    validator,
		tx:           tx,
		entitlements: entitlements,
		audit:        audit,
	}
}

func (s *RewardService) CreateReward(ctx context.Context, req *models.RewardCreateRequest) (*models.Reward, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid business ID format")
	}

	if err := s.entitlements.CheckRewardQuota(ctx, businessID); err != nil {
		return nil, err
	}

	reward := &models.Reward{
		BusinessID:        businessID,
		Name:              req.Name,
		Description:       req.Description,
		StampsCost:        req.StampsCost,
		Stock:             models.UnlimitedStock,
		ExpiresAt:         req.ExpiresAt,
		OneTimeUse:        req.OneTimeUse,
		Active:            true,
		ImageURL:          req.ImageURL,
		SpecialConditions: req.SpecialConditions,
		Version:           1,
	}
	if req.Stock != nil {
		reward.Stock = *req.Stock
	}

	err = s.tx.Run(ctx, "reward.create", func(tx *gorm.DB) error {
		if err := tx.Create(reward).Error; err != nil {
			return err
		}
		return s.audit.LogAudit(tx, AuditEntityReward, reward.ID.String(), models.AuditActionCreate, reward, nil, s.tx.Now())
	})
	if err != nil {
		return nil, err
	}

	return reward, nil
}

func (s *RewardService) GetReward(ctx context.Context, rewardId string) (*models.Reward, error) {
	rewardUUID, err := uuid.Parse(rewardId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid reward ID format")
	}

	var reward models.Reward
	err = s.db.WithContext(ctx).Where("id = ?", rewardUUID).First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Reward not found")
		}
		return nil, errors.NewUnavailableError(err, "Failed to get reward")
	}

	return &reward, nil
}

// ListRewards lists a business's catalog. activeOnly hides deactivated rewards.
func (s *RewardService) ListRewards(ctx context.Context, businessID uuid.UUID, activeOnly bool, pagination *models.PaginationRequest) (*models.Pagination[[]models.Reward], error) {
	query := s.db.WithContext(ctx).Model(&models.Reward{}).Where("business_id = ?", businessID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	return paginate[models.Reward](query, pagination, "created_at")
}

// UpdateReward changes catalog fields. Stock is only ever set explicitly here;
// nothing replenishes it automatically.
func (s *RewardService) UpdateReward(ctx context.Context, businessID uuid.UUID, rewardId string, req *models.RewardUpdateRequest) (*models.Reward, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	rewardUUID, err := uuid.Parse(rewardId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid reward ID format")
	}

	if req.Active != nil && *req.Active {
		current, err := s.GetReward(ctx, rewardId)
		if err != nil {
			return nil, err
		}
		if !current.Active {
			if err := s.entitlements.CheckRewardQuota(ctx, businessID); err != nil {
				return nil, err
			}
		}
	}

	var reward models.Reward
	err = s.tx.Run(ctx, "reward.update", func(tx *gorm.DB) error {
		now := s.tx.Now()
		if err := tx.Where("id = ? AND business_id = ?", rewardUUID, businessID).First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NewNotFoundError("Reward not found")
			}
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
			reward.Name = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
			reward.Description = req.Description
		}
		if req.StampsCost != nil {
			updates["stamps_cost"] = *req.StampsCost
			reward.StampsCost = *req.StampsCost
		}
		if req.Stock != nil {
			updates["stock"] = *req.Stock
			updates["stock_set_at"] = now
			reward.Stock = *req.Stock
			reward.StockSetAt = &now
		}
		if req.ExpiresAt != nil {
			updates["expires_at"] = *req.ExpiresAt
			reward.ExpiresAt = req.ExpiresAt
		}
		if req.OneTimeUse != nil {
			updates["one_time_use"] = *req.OneTimeUse
			reward.OneTimeUse = *req.OneTimeUse
		}
		if req.Active != nil {
			updates["active"] = *req.Active
			reward.Active = *req.Active
		}
		if req.ImageURL != nil {
			updates["image_url"] = *req.ImageURL
			reward.ImageURL = req.ImageURL
		}
		if req.SpecialConditions != nil {
			updates["special_conditions"] = *req.SpecialConditions
			reward.SpecialConditions = req.SpecialConditions
		}
		if len(updates) == 0 {
			return nil
		}

		updates["version"] = gorm.Expr("version + 1")
		updates["updated_at"] = now
		result := tx.Model(&models.Reward{}).
			Where("id = ? AND version = ?", reward.ID, reward.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
		reward.Version++
		reward.UpdatedAt = now

		return s.audit.LogAudit(tx, AuditEntityReward, reward.ID.String(), models.AuditActionUpdate, req, &businessID, now)
	})
	if err != nil {
		return nil, err
	}

	return &reward, nil
}

// DeleteReward removes a reward from the catalog. Existing redemptions keep
// referencing it.
func (s *RewardService) DeleteReward(ctx context.Context, businessID uuid.UUID, rewardId string) error {
	rewardUUID, err := uuid.Parse(rewardId)
	if err != nil {
		return errors.NewBadRequestError("Invalid reward ID format")
	}

	return s.tx.Run(ctx, "reward.delete", func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND business_id = ?", rewardUUID, businessID).Delete(&models.Reward{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NewNotFoundError("Reward not found")
		}
		return s.audit.LogAudit(tx, AuditEntityReward, rewardUUID.String(), models.AuditActionUpdate,
			map[string]interface{}{"deleted": true}, &businessID, s.tx.Now())
	})
}
