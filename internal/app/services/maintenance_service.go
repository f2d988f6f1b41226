package services

import (
	"context"

	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SweepResult counts what one maintenance sweep expired.
type SweepResult struct {
	Codes       int64 `json:"codes"`
	Redemptions int64 `json:"redemptions"`
	Tickets     int64 `json:"tickets"`
}

// MaintenanceService expires records whose deadline passed without anyone
// touching them. Claims already expire lazily; the sweep catches the rest.
type MaintenanceService struct {
	db *gorm.DB
	tx *TxRunner
}

func NewMaintenanceService(db *gorm.DB, tx *TxRunner) *MaintenanceService {
	return &MaintenanceService{
		db: db,
		tx: tx,
	}
}

// ExpireStaleCodes moves ACTIVE stamp and reward codes past their expiry to EXPIRED.
func (s *MaintenanceService) ExpireStaleCodes(ctx context.Context) (int64, error) {
	now := s.tx.Now()
	result := s.db.WithContext(ctx).Model(&models.Code{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.CodeStatusActive, now).
		Updates(map[string]interface{}{
			"status":     models.CodeStatusExpired,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, errors.NewUnavailableError(result.Error, "Failed to expire codes")
	}
	return result.RowsAffected, nil
}

// ExpireStaleRedemptions moves lapsed PENDING redemptions to EXPIRED. Spent
// stamps stay spent.
func (s *MaintenanceService) ExpireStaleRedemptions(ctx context.Context) (int64, error) {
	now := s.tx.Now()
	result := s.db.WithContext(ctx).Model(&models.RewardRedemption{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.RedemptionStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.RedemptionStatusExpired,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, errors.NewUnavailableError(result.Error, "Failed to expire redemptions")
	}
	return result.RowsAffected, nil
}

// ExpireLapsedTickets moves ISSUED tickets of campaigns whose window ended to
// EXPIRED and retires their codes.
func (s *MaintenanceService) ExpireLapsedTickets(ctx context.Context) (int64, error) {
	var expired int64
	err := s.tx.Run(ctx, "maintenance.expire_tickets", func(tx *gorm.DB) error {
		now := s.tx.Now()
		lapsedCampaigns := tx.Model(&models.ScratchCampaign{}).Select("id").Where("end_date < ?", now)

		var ticketCodes []string
		if err := tx.Model(&models.ScratchTicket{}).
			Where("status = ? AND campaign_id IN (?)", models.TicketStatusIssued, lapsedCampaigns).
			Pluck("code", &ticketCodes).Error; err != nil {
			return err
		}
		if len(ticketCodes) == 0 {
			expired = 0
			return nil
		}

		result := tx.Model(&models.ScratchTicket{}).
			Where("status = ? AND code IN ?", models.TicketStatusIssued, ticketCodes).
			Updates(map[string]interface{}{
				"status":     models.TicketStatusExpired,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		expired = result.RowsAffected

		return tx.Model(&models.Code{}).
			Where("status = ? AND code IN ?", models.CodeStatusActive, ticketCodes).
			Updates(map[string]interface{}{
				"status":     models.CodeStatusExpired,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// Sweep runs every expiry pass and reports the counts.
func (s *MaintenanceService) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	var err error

	if result.Codes, err = s.ExpireStaleCodes(ctx); err != nil {
		return nil, err
	}
	if result.Redemptions, err = s.ExpireStaleRedemptions(ctx); err != nil {
		return nil, err
	}
	if result.Tickets, err = s.ExpireLapsedTickets(ctx); err != nil {
		return nil, err
	}

	if result.Codes+result.Redemptions+result.Tickets > 0 {
		logrus.WithFields(logrus.Fields{
			"codes":       result.Codes,
			"redemptions": result.Redemptions,
			"tickets":     result.Tickets,
		}).Info("maintenance sweep expired records")
	}
	return result, nil
}
