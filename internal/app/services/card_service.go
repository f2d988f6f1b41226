package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssociationHook runs after a client became associated with a business,
// either through a first stamp claim or an explicit join.
type AssociationHook func(ctx context.Context, clientID, businessID uuid.UUID)

// CardService owns the stamp counters of client cards. Every balance change
// goes through applyDelta.
type CardService struct {
	db           *gorm.DB
	validator    *infrastructures.Validator
	tx           *TxRunner
	entitlements *EntitlementService
	hooks        []AssociationHook
}

func NewCardService(db *gorm.DB, validator *infrastructures.Validator, tx *TxRunner, entitlements *EntitlementService) *CardService {
	return &CardService{
		db:           db,
		validator:    validator,
		tx:           tx,
		entitlements: entitlements,
	}
}

// OnAssociation registers a hook run after a card is created.
func (s *CardService) OnAssociation(hook AssociationHook) {
	s.hooks = append(s.hooks, hook)
}

func (s *CardService) notifyAssociation(ctx context.Context, clientID, businessID uuid.UUID) {
	for _, hook := range s.hooks {
		hook(ctx, clientID, businessID)
	}
}

// ApplyDelta applies one balance change in its own transaction.
func (s *CardService) ApplyDelta(ctx context.Context, delta models.CardDelta) (*models.CardMutation, error) {
	var mutation *models.CardMutation
	err := s.tx.Run(ctx, "card.apply_delta", func(tx *gorm.DB) error {
		var err error
		mutation, err = s.applyDelta(tx, delta, s.tx.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return mutation, nil
}

// applyDelta is the single choke point for the three counters. It creates the
// card when absent, rejects deltas that would unbalance it, recomputes the
// level and writes the card transaction row, all inside tx.
func (s *CardService) applyDelta(tx *gorm.DB, delta models.CardDelta, now time.Time) (*models.CardMutation, error) {
	if delta.TotalDelta != delta.AvailableDelta+delta.UsedDelta {
		return nil, errors.ErrInvalidDelta
	}

	card, err := s.findCard(tx, delta.ClientID, delta.BusinessID)
	isNewCard := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		isNewCard = true
		card = &models.ClientCard{
			ClientID:   delta.ClientID,
			BusinessID: delta.BusinessID,
			Level:      models.LevelForStamps(0),
		}
	} else if err != nil {
		return nil, err
	}

	before := *card
	next := *card
	next.AvailableStamps += delta.AvailableDelta
	next.UsedStamps += delta.UsedDelta
	next.TotalStamps += delta.TotalDelta

	if next.AvailableStamps < 0 {
		return nil, errors.ErrInsufficientBalance
	}
	if next.UsedStamps < 0 || next.TotalStamps < 0 {
		return nil, errors.ErrInvalidDelta
	}

	next.Level = models.LevelForStamps(next.TotalStamps)
	if delta.TotalDelta > 0 {
		next.LastStampDate = &now
	}
	next.UpdatedAt = now

	if isNewCard {
		next.Version = 1
		next.CreatedAt = now
		// a concurrent first claim for the same pair makes this a no-op
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&next)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrConflict
		}
	} else {
		result := tx.Model(&models.ClientCard{}).
			Where("id = ? AND version = ?", card.ID, card.Version).
			Updates(map[string]interface{}{
				"available_stamps": next.AvailableStamps,
				"used_stamps":      next.UsedStamps,
				"total_stamps":     next.TotalStamps,
				"level":            next.Level,
				"last_stamp_date":  next.LastStampDate,
				"version":          gorm.Expr("version + 1"),
				"updated_at":       now,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrConflict
		}
		next.Version++
	}

	entry := &models.CardTransaction{
		CardID:          next.ID,
		ClientID:        next.ClientID,
		BusinessID:      next.BusinessID,
		Type:            delta.Type,
		AvailableDelta:  delta.AvailableDelta,
		UsedDelta:       delta.UsedDelta,
		TotalDelta:      delta.TotalDelta,
		AvailableStamps: next.AvailableStamps,
		UsedStamps:      next.UsedStamps,
		TotalStamps:     next.TotalStamps,
		Reference:       delta.Reference,
		Description:     delta.Description,
		CreatedAt:       now,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}

	return &models.CardMutation{
		Before:    before,
		Card:      &next,
		IsNewCard: isNewCard,
	}, nil
}

func (s *CardService) findCard(tx *gorm.DB, clientID, businessID uuid.UUID) (*models.ClientCard, error) {
	var card models.ClientCard
	err := tx.Where("client_id = ? AND business_id = ?", clientID, businessID).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Exists reports whether the client already holds a card at the business.
func (s *CardService) Exists(ctx context.Context, clientID, businessID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ClientCard{}).
		Where("client_id = ? AND business_id = ?", clientID, businessID).
		Count(&count).Error
	if err != nil {
		return false, errors.NewUnavailableError(err, "Failed to check card")
	}
	return count > 0, nil
}

func (s *CardService) GetCard(ctx context.Context, clientID, businessID uuid.UUID) (*models.ClientCard, error) {
	card, err := s.findCard(s.db.WithContext(ctx), clientID, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Card not found")
		}
		return nil, errors.NewUnavailableError(err, "Failed to get card")
	}
	return card, nil
}

// JoinBusiness creates an empty card for the client, or re-enables a disabled
// one. Joining twice returns the existing card.
func (s *CardService) JoinBusiness(ctx context.Context, clientID, businessID uuid.UUID) (*models.ClientCard, bool, error) {
	exists, err := s.Exists(ctx, clientID, businessID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		if err := s.entitlements.CheckClientQuota(ctx, businessID); err != nil {
			return nil, false, err
		}
	}

	var card *models.ClientCard
	created := false
	err = s.tx.Run(ctx, "card.join", func(tx *gorm.DB) error {
		now := s.tx.Now()
		created = false

		existing, err := s.findCard(tx, clientID, businessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			card = &models.ClientCard{
				ClientID:   clientID,
				BusinessID: businessID,
				Level:      models.LevelForStamps(0),
				Version:    1,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(card)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrConflict
			}
			created = true
			return nil
		}
		if err != nil {
			return err
		}

		card = existing
		if existing.DisabledAt == nil {
			return nil
		}
		result := tx.Model(&models.ClientCard{}).
			Where("id = ? AND version = ?", existing.ID, existing.Version).
			Updates(map[string]interface{}{
				"disabled_at": nil,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
		card.DisabledAt = nil
		card.Version++
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		logrus.WithFields(logrus.Fields{
			"client_id":   clientID,
			"business_id": businessID,
		}).Info("client joined business")
		s.notifyAssociation(ctx, clientID, businessID)
	}
	return card, created, nil
}

// DisableCard soft-disables a card. Balances are kept.
func (s *CardService) DisableCard(ctx context.Context, clientID, businessID uuid.UUID) (*models.ClientCard, error) {
	var card *models.ClientCard
	err := s.tx.Run(ctx, "card.disable", func(tx *gorm.DB) error {
		now := s.tx.Now()
		existing, err := s.findCard(tx, clientID, businessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NewNotFoundError("Card not found")
			}
			return err
		}
		card = existing
		if existing.DisabledAt != nil {
			return nil
		}

		result := tx.Model(&models.ClientCard{}).
			Where("id = ? AND version = ?", existing.ID, existing.Version).
			Updates(map[string]interface{}{
				"disabled_at": now,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
		card.DisabledAt = &now
		card.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) ListClientCards(ctx context.Context, clientID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.ClientCard], error) {
	query := s.db.WithContext(ctx).Model(&models.ClientCard{}).
		Where("client_id = ? AND disabled_at IS NULL", clientID)
	return paginate[models.ClientCard](query, pagination, "updated_at")
}

func (s *CardService) ListBusinessCards(ctx context.Context, businessID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.ClientCard], error) {
	query := s.db.WithContext(ctx).Model(&models.ClientCard{}).
		Where("business_id = ? AND disabled_at IS NULL", businessID)
	return paginate[models.ClientCard](query, pagination, "total_stamps")
}

func (s *CardService) ListCardTransactions(ctx context.Context, clientID, businessID uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.CardTransaction], error) {
	query := s.db.WithContext(ctx).Model(&models.CardTransaction{}).
		Where("client_id = ? AND business_id = ?", clientID, businessID)
	return paginate[models.CardTransaction](query, pagination, "created_at")
}
