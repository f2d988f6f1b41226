package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RewardRedemptionService exchanges stamps for rewards and drives the
// resulting redemption through delivery, expiry or cancellation.
type RewardRedemptionService struct {
	db        *gorm.DB
	validator *infrastructures.Validator
	tx        *TxRunner
	registry  *CodeRegistry
	cards     *CardService
	audit     *AuditService
	metrics   *infrastructures.Metrics
	codeTTL   time.Duration
}

func NewRewardRedemptionService(
	db *gorm.DB,
	validator *infrastructures.Validator,
	config *infrastructures.AppConfig,
	tx *TxRunner,
	registry *CodeRegistry,
	cards *CardService,
	audit *AuditService,
	metrics *infrastructures.Metrics,
) *RewardRedemptionService {
	return &RewardRedemptionService{
		db:        db,
		validator: validator,
		tx:        tx,
		registry:  registry,
		cards:     cards,
		audit:     audit,
		metrics:   metrics,
		codeTTL:   config.RedemptionCodeTTL,
	}
}

// RedeemReward debits the reward's cost from the client's card and issues a
// PENDING redemption with a fresh delivery code, in one transaction.
func (s *RewardRedemptionService) RedeemReward(ctx context.Context, req *models.RedeemRewardRequest) (*models.RewardRedemption, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid client ID format")
	}
	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid reward ID format")
	}

	var redemption *models.RewardRedemption
	err = s.tx.Run(ctx, "reward.redeem", func(tx *gorm.DB) error {
		now := s.tx.Now()

		var reward models.Reward
		if err := tx.Where("id = ?", rewardID).First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NewNotFoundError("Reward not found")
			}
			return err
		}
		if !reward.Redeemable(now) {
			return errors.ErrRewardUnavailable
		}

		if reward.OneTimeUse {
			var previous int64
			err := tx.Model(&models.RewardRedemption{}).
				Where("reward_id = ? AND client_id = ? AND status <> ?", reward.ID, clientID, models.RedemptionStatusCancelled).
				Count(&previous).Error
			if err != nil {
				return err
			}
			if previous > 0 {
				return errors.ErrRewardAlreadyRedeemed
			}
		}

		redemptionID := uuid.New()
		mutation, err := s.cards.applyDelta(tx, models.CardDelta{
			ClientID:       clientID,
			BusinessID:     reward.BusinessID,
			AvailableDelta: -reward.StampsCost,
			UsedDelta:      reward.StampsCost,
			Type:           models.CardTransactionTypeExchange,
			Reference:      redemptionID.String(),
			Description:    reward.Name,
		}, now)
		if err != nil {
			if errors.Is(err, errors.ErrInsufficientBalance) {
				return errors.ErrNotEnoughStamps
			}
			return err
		}

		if reward.FiniteStock() {
			result := tx.Model(&models.Reward{}).
				Where("id = ? AND stock > 0", reward.ID).
				Updates(map[string]interface{}{
					"stock":      gorm.Expr("stock - 1"),
					"version":    gorm.Expr("version + 1"),
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errors.ErrRewardUnavailable
			}
		}

		expiresAt := now.Add(s.codeTTL)
		code, err := s.registry.Mint(tx, reward.BusinessID, &redemptionID, RewardPayload{
			RedemptionID: redemptionID,
			RewardID:     reward.ID,
		}, &expiresAt)
		if err != nil {
			return err
		}

		redemption = &models.RewardRedemption{
			ID:           redemptionID,
			RewardID:     reward.ID,
			ClientID:     clientID,
			BusinessID:   reward.BusinessID,
			CardID:       mutation.Card.ID,
			Code:         code.Code,
			StampsBefore: mutation.Before.AvailableStamps,
			StampsSpent:  reward.StampsCost,
			StampsAfter:  mutation.Card.AvailableStamps,
			Status:       models.RedemptionStatusPending,
			ExpiresAt:    &expiresAt,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(redemption).Error; err != nil {
			return err
		}

		return s.audit.LogStatusChange(tx, AuditEntityRedemption, redemptionID.String(),
			"", string(models.RedemptionStatusPending), nil, &clientID, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveStampsDebited(redemption.StampsSpent)
	s.metrics.ObserveRedemptionTransition(string(models.RedemptionStatusPending))
	logrus.WithFields(logrus.Fields{
		"redemption_id": redemption.ID,
		"reward_id":     redemption.RewardID,
		"client_id":     clientID,
		"stamps_spent":  redemption.StampsSpent,
	}).Info("reward redeemed")

	return redemption, nil
}

func (s *RewardRedemptionService) findByCode(tx *gorm.DB, code string) (*models.RewardRedemption, error) {
	var redemption models.RewardRedemption
	err := tx.Where("code = ?", pkg.NormalizeCode(code)).First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCodeNotFound
		}
		return nil, err
	}
	return &redemption, nil
}

func (s *RewardRedemptionService) transition(tx *gorm.DB, redemption *models.RewardRedemption, to models.RedemptionStatus, updates map[string]interface{}, now time.Time) error {
	updates["status"] = to
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = now

	result := tx.Model(&models.RewardRedemption{}).
		Where("id = ? AND status = ? AND version = ?", redemption.ID, redemption.Status, redemption.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}

	redemption.Status = to
	redemption.Version++
	redemption.UpdatedAt = now
	return nil
}

// DeliverRedemption marks a PENDING redemption as handed over. A redemption
// past its expiry is moved to EXPIRED instead and ErrRedemptionExpired is
// returned; its stamps are not refunded.
func (s *RewardRedemptionService) DeliverRedemption(ctx context.Context, req *models.DeliverRedemptionRequest) (*models.RewardRedemption, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	deliveredBy, err := uuid.Parse(req.DeliveredBy)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid staff ID format")
	}

	var redemption *models.RewardRedemption
	lapsed := false
	err = s.tx.Run(ctx, "redemption.deliver", func(tx *gorm.DB) error {
		now := s.tx.Now()
		lapsed = false

		var err error
		redemption, err = s.findByCode(tx, req.Code)
		if err != nil {
			return err
		}

		switch redemption.Status {
		case models.RedemptionStatusPending:
		case models.RedemptionStatusExpired:
			return errors.ErrRedemptionExpired
		default:
			return errors.ErrInvalidTransition
		}

		if pkg.IsExpired(redemption.ExpiresAt, now) {
			lapsed = true
			return errors.ErrRedemptionExpired
		}

		if _, err := s.registry.Claim(tx, redemption.Code, models.CodeKindReward, &deliveredBy, now); err != nil {
			switch {
			case errors.Is(err, errors.ErrCodeExpired):
				lapsed = true
				return errors.ErrRedemptionExpired
			case errors.Is(err, errors.ErrCodeAlreadyClaimed):
				return errors.ErrInvalidTransition
			}
			return err
		}

		if err := s.transition(tx, redemption, models.RedemptionStatusDelivered, map[string]interface{}{
			"delivered_by": deliveredBy,
			"delivered_at": now,
		}, now); err != nil {
			return err
		}
		redemption.DeliveredBy = &deliveredBy
		redemption.DeliveredAt = &now

		return s.audit.LogStatusChange(tx, AuditEntityRedemption, redemption.ID.String(),
			string(models.RedemptionStatusPending), string(models.RedemptionStatusDelivered), nil, &deliveredBy, now)
	})
	if err != nil {
		if lapsed {
			s.expire(ctx, redemption)
		}
		return nil, err
	}

	s.metrics.ObserveRedemptionTransition(string(models.RedemptionStatusDelivered))
	logrus.WithFields(logrus.Fields{
		"redemption_id": redemption.ID,
		"delivered_by":  deliveredBy,
	}).Info("redemption delivered")

	return redemption, nil
}

// expire persists PENDING -> EXPIRED for a redemption found lapsed inside a
// transaction that has since rolled back.
func (s *RewardRedemptionService) expire(ctx context.Context, redemption *models.RewardRedemption) {
	if redemption == nil {
		return
	}
	err := s.tx.Run(ctx, "redemption.expire", func(tx *gorm.DB) error {
		now := s.tx.Now()
		current, err := s.findByCode(tx, redemption.Code)
		if err != nil {
			return err
		}
		if current.Status != models.RedemptionStatusPending {
			return nil
		}
		if err := s.transition(tx, current, models.RedemptionStatusExpired, map[string]interface{}{}, now); err != nil {
			return err
		}
		if err := tx.Model(&models.Code{}).
			Where("code = ? AND status = ?", current.Code, models.CodeStatusActive).
			Updates(map[string]interface{}{
				"status":     models.CodeStatusExpired,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		return s.audit.LogStatusChange(tx, AuditEntityRedemption, current.ID.String(),
			string(models.RedemptionStatusPending), string(models.RedemptionStatusExpired), nil, nil, now)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"redemption_id": redemption.ID, "error": err}).Warn("failed to expire redemption")
		return
	}
	s.metrics.ObserveRedemptionTransition(string(models.RedemptionStatusExpired))
}

// CancelRedemption cancels a PENDING redemption and refunds its stamps.
// Finite reward stock is given back.
func (s *RewardRedemptionService) CancelRedemption(ctx context.Context, req *models.CancelRedemptionRequest) (*models.RewardRedemption, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var redemption *models.RewardRedemption
	lapsed := false
	err := s.tx.Run(ctx, "redemption.cancel", func(tx *gorm.DB) error {
		now := s.tx.Now()
		lapsed = false

		var err error
		redemption, err = s.findByCode(tx, req.Code)
		if err != nil {
			return err
		}
		switch redemption.Status {
		case models.RedemptionStatusPending:
		case models.RedemptionStatusExpired:
			return errors.ErrRedemptionExpired
		default:
			return errors.ErrInvalidTransition
		}

		// a lapsed redemption expires without refund, as it would under the sweeper
		if pkg.IsExpired(redemption.ExpiresAt, now) {
			lapsed = true
			return errors.ErrRedemptionExpired
		}

		if err := s.transition(tx, redemption, models.RedemptionStatusCancelled, map[string]interface{}{
			"cancelled_at":  now,
			"cancel_reason": req.Reason,
		}, now); err != nil {
			return err
		}
		redemption.CancelledAt = &now
		redemption.CancelReason = req.Reason

		if _, err := s.cards.applyDelta(tx, models.CardDelta{
			ClientID:       redemption.ClientID,
			BusinessID:     redemption.BusinessID,
			AvailableDelta: redemption.StampsSpent,
			UsedDelta:      -redemption.StampsSpent,
			Type:           models.CardTransactionTypeRefund,
			Reference:      redemption.ID.String(),
			Description:    "redemption cancelled",
		}, now); err != nil {
			return err
		}

		// Soft-deleted rewards still get their stock back. Stock set by the
		// owner after this redemption was made is left as the owner set it.
		if err := tx.Unscoped().Model(&models.Reward{}).
			Where("id = ? AND stock >= 0", redemption.RewardID).
			Where("stock_set_at IS NULL OR stock_set_at <= ?", redemption.CreatedAt).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("stock + 1"),
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		if err := s.registry.release(tx, redemption.Code, now); err != nil {
			return err
		}

		return s.audit.LogStatusChange(tx, AuditEntityRedemption, redemption.ID.String(),
			string(models.RedemptionStatusPending), string(models.RedemptionStatusCancelled), req.Reason, nil, now)
	})
	if err != nil {
		if lapsed {
			s.expire(ctx, redemption)
		}
		return nil, err
	}

	s.metrics.ObserveRedemptionTransition(string(models.RedemptionStatusCancelled))
	logrus.WithFields(logrus.Fields{
		"redemption_id": redemption.ID,
		"refunded":      redemption.StampsSpent,
	}).Info("redemption cancelled")

	return redemption, nil
}

func (s *RewardRedemptionService) GetRedemption(ctx context.Context, code string) (*models.RewardRedemption, error) {
	redemption, err := s.findByCode(s.db.WithContext(ctx), code)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, errors.NewUnavailableError(err, "Failed to get redemption")
	}
	return redemption, nil
}

// ListPendingRedemptions lists a business's redemptions awaiting delivery.
// Lapsed ones are left out even before the sweeper expires them.
func (s *RewardRedemptionService) ListPendingRedemptions(ctx context.Context, businessID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.RewardRedemption], error) {
	query := s.db.WithContext(ctx).Model(&models.RewardRedemption{}).
		Where("business_id = ? AND status = ?", businessID, models.RedemptionStatusPending).
		Where("expires_at IS NULL OR expires_at > ?", s.tx.Now())
	return paginate[models.RewardRedemption](query, pagination, "created_at")
}

func (s *RewardRedemptionService) ListClientRedemptions(ctx context.Context, clientID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.RewardRedemption], error) {
	query := s.db.WithContext(ctx).Model(&models.RewardRedemption{}).
		Where("client_id = ?", clientID)
	return paginate[models.RewardRedemption](query, pagination, "created_at")
}
