package services

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScratchService runs scratch campaigns: ticket issuance under the per-client
// quota, prize draws against capped inventories, and ticket redemption.
type ScratchService struct {
	db        *gorm.DB
	validator *infrastructures.Validator
	tx        *TxRunner
	registry  *CodeRegistry
	cards     *CardService
	audit     *AuditService
	metrics   *infrastructures.Metrics
	draw      func(n int64) int64
}

func NewScratchService(
	db *gorm.DB,
	validator *infrastructures.Validator,
	tx *TxRunner,
	registry *CodeRegistry,
	cards *CardService,
	audit *AuditService,
	metrics *infrastructures.Metrics,
) *ScratchService {
	s := &ScratchService{
		db:        db,
		validator: validator,
		tx:        tx,
		registry:  registry,
		cards:     cards,
		audit:     audit,
		metrics:   metrics,
		draw:      rand.Int64N,
	}
	cards.OnAssociation(func(ctx context.Context, clientID, businessID uuid.UUID) {
		s.IssueOnAssociation(ctx, clientID, businessID)
	})
	return s
}

func prizeFromRequest(campaignID uuid.UUID, position int, req *models.ScratchPrizeRequest) (*models.ScratchPrize, error) {
	prize := &models.ScratchPrize{
		CampaignID:   campaignID,
		Name:         req.Name,
		Type:         req.Type,
		Value:        req.Value,
		Probability:  req.Probability.Round(probabilityScale),
		InventoryCap: req.InventoryCap,
		Position:     req.Position,
	}
	if prize.Position == 0 {
		prize.Position = position
	}
	if req.RewardID != nil {
		rewardID, err := uuid.Parse(*req.RewardID)
		if err != nil {
			return nil, errors.NewBadRequestError("Invalid reward ID format")
		}
		prize.RewardID = &rewardID
	}
	if prize.Type == models.PrizeTypeReward && prize.RewardID == nil {
		return nil, errors.NewBadRequestError("Reward prize requires a reward ID")
	}
	if prize.Type == models.PrizeTypeStamps && prize.Value <= 0 {
		return nil, errors.NewBadRequestError("Stamp prize requires a positive value")
	}
	return prize, nil
}

func (s *ScratchService) CreateCampaign(ctx context.Context, req *models.ScratchCampaignCreateRequest) (*models.ScratchCampaign, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid business ID format")
	}

	campaign := &models.ScratchCampaign{
		ID:                uuid.New(),
		BusinessID:        businessID,
		Name:              req.Name,
		Description:       req.Description,
		StartDate:         req.StartDate.UTC(),
		EndDate:           req.EndDate.UTC(),
		Status:            models.CampaignStatusActive,
		IssuancePolicy:    req.IssuancePolicy,
		MaxCardsPerClient: req.MaxCardsPerClient,
		Version:           1,
	}
	for i := range req.Prizes {
		prize, err := prizeFromRequest(campaign.ID, i+1, &req.Prizes[i])
		if err != nil {
			return nil, err
		}
		campaign.Prizes = append(campaign.Prizes, *prize)
	}

	err = s.tx.Run(ctx, "scratch.create_campaign", func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return err
		}
		return s.audit.LogAudit(tx, AuditEntityCampaign, campaign.ID.String(), models.AuditActionCreate, campaign, &businessID, s.tx.Now())
	})
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

func (s *ScratchService) GetCampaign(ctx context.Context, campaignId string) (*models.ScratchCampaign, error) {
	campaignUUID, err := uuid.Parse(campaignId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid campaign ID format")
	}

	var campaign models.ScratchCampaign
	err = s.db.WithContext(ctx).
		Preload("Prizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Where("id = ?", campaignUUID).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Campaign not found")
		}
		return nil, errors.NewUnavailableError(err, "Failed to get campaign")
	}

	return &campaign, nil
}

func (s *ScratchService) AddPrize(ctx context.Context, businessID uuid.UUID, campaignId string, req *models.ScratchPrizeRequest) (*models.ScratchPrize, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	campaignUUID, err := uuid.Parse(campaignId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid campaign ID format")
	}

	var prize *models.ScratchPrize
	err = s.tx.Run(ctx, "scratch.add_prize", func(tx *gorm.DB) error {
		campaign, err := s.findCampaign(tx, campaignUUID)
		if err != nil {
			return err
		}
		if campaign.BusinessID != businessID {
			return errors.NewNotFoundError("Campaign not found")
		}

		var count int64
		if err := tx.Model(&models.ScratchPrize{}).Where("campaign_id = ?", campaign.ID).Count(&count).Error; err != nil {
			return err
		}
		prize, err = prizeFromRequest(campaign.ID, int(count)+1, req)
		if err != nil {
			return err
		}
		return tx.Create(prize).Error
	})
	if err != nil {
		return nil, err
	}

	return prize, nil
}

func (s *ScratchService) SetCampaignStatus(ctx context.Context, businessID uuid.UUID, campaignId string, req *models.CampaignStatusRequest) (*models.ScratchCampaign, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	campaignUUID, err := uuid.Parse(campaignId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid campaign ID format")
	}

	var campaign *models.ScratchCampaign
	err = s.tx.Run(ctx, "scratch.set_status", func(tx *gorm.DB) error {
		now := s.tx.Now()
		var err error
		campaign, err = s.findCampaign(tx, campaignUUID)
		if err != nil {
			return err
		}
		if campaign.BusinessID != businessID {
			return errors.NewNotFoundError("Campaign not found")
		}
		if campaign.Status == req.Status {
			return nil
		}

		from := campaign.Status
		result := tx.Model(&models.ScratchCampaign{}).
			Where("id = ? AND version = ?", campaign.ID, campaign.Version).
			Updates(map[string]interface{}{
				"status":     req.Status,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
		campaign.Status = req.Status
		campaign.Version++

		return s.audit.LogStatusChange(tx, AuditEntityCampaign, campaign.ID.String(),
			string(from), string(req.Status), nil, &businessID, now)
	})
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

func (s *ScratchService) findCampaign(tx *gorm.DB, campaignID uuid.UUID) (*models.ScratchCampaign, error) {
	var campaign models.ScratchCampaign
	if err := tx.Where("id = ?", campaignID).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Campaign not found")
		}
		return nil, err
	}
	return &campaign, nil
}

func (s *ScratchService) findTicket(tx *gorm.DB, ticketID uuid.UUID) (*models.ScratchTicket, error) {
	var ticket models.ScratchTicket
	if err := tx.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Scratch ticket not found")
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *ScratchService) GetTicket(ctx context.Context, ticketId string) (*models.ScratchTicket, error) {
	ticketID, err := uuid.Parse(ticketId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid ticket ID format")
	}

	ticket, err := s.findTicket(s.db.WithContext(ctx), ticketID)
	if err != nil {
		if errors.Is(err, errors.NewNotFoundError("")) {
			return nil, err
		}
		return nil, errors.NewUnavailableError(err, "Failed to get scratch ticket")
	}
	return ticket, nil
}

// IssueTicket gives the client a new ticket in an open campaign, unless the
// client already holds the campaign's maximum of non-inactive tickets.
func (s *ScratchService) IssueTicket(ctx context.Context, req *models.IssueTicketRequest) (*models.ScratchTicket, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid client ID format")
	}
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid campaign ID format")
	}

	return s.issue(ctx, clientID, campaignID)
}

func (s *ScratchService) issue(ctx context.Context, clientID, campaignID uuid.UUID) (*models.ScratchTicket, error) {
	var ticket *models.ScratchTicket
	err := s.tx.Run(ctx, "scratch.issue", func(tx *gorm.DB) error {
		now := s.tx.Now()
		campaign, err := s.findCampaign(tx, campaignID)
		if err != nil {
			return err
		}
		if !campaign.Open(now) {
			return errors.ErrCampaignClosed
		}

		ticket, err = s.issueInTx(tx, campaign, clientID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"campaign_id": campaignID,
		"client_id":   clientID,
	}).Info("scratch ticket issued")

	return ticket, nil
}

// issueInTx takes one slot of the client's allocation and creates the ticket.
// The allocation row is the serialization point for the (campaign, client)
// pair: concurrent issuers race on its version.
func (s *ScratchService) issueInTx(tx *gorm.DB, campaign *models.ScratchCampaign, clientID uuid.UUID, now time.Time) (*models.ScratchTicket, error) {
	var allocation models.ScratchAllocation
	err := tx.Where("campaign_id = ? AND client_id = ?", campaign.ID, clientID).First(&allocation).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if campaign.MaxCardsPerClient < 1 {
			return nil, errors.ErrQuotaExceeded
		}
		allocation = models.ScratchAllocation{
			CampaignID:  campaign.ID,
			ClientID:    clientID,
			IssuedCount: 1,
			Version:     1,
			UpdatedAt:   now,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&allocation)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrConflict
		}
	case err != nil:
		return nil, err
	default:
		if allocation.IssuedCount >= campaign.MaxCardsPerClient {
			return nil, errors.ErrQuotaExceeded
		}
		if err := s.adjustAllocation(tx, &allocation, 1, now); err != nil {
			return nil, err
		}
	}

	ticketID := uuid.New()
	code, err := s.registry.Mint(tx, campaign.BusinessID, &ticketID, ScratchPayload{
		TicketID:   ticketID,
		CampaignID: campaign.ID,
	}, nil)
	if err != nil {
		return nil, err
	}

	ticket := &models.ScratchTicket{
		ID:         ticketID,
		CampaignID: campaign.ID,
		ClientID:   clientID,
		BusinessID: campaign.BusinessID,
		Code:       code.Code,
		Status:     models.TicketStatusIssued,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Create(ticket).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *ScratchService) adjustAllocation(tx *gorm.DB, allocation *models.ScratchAllocation, by int, now time.Time) error {
	result := tx.Model(&models.ScratchAllocation{}).
		Where("campaign_id = ? AND client_id = ? AND version = ?", allocation.CampaignID, allocation.ClientID, allocation.Version).
		Updates(map[string]interface{}{
			"issued_count": gorm.Expr("issued_count + ?", by),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	allocation.IssuedCount += by
	allocation.Version++
	return nil
}

func (s *ScratchService) transition(tx *gorm.DB, ticket *models.ScratchTicket, to models.TicketStatus, updates map[string]interface{}, now time.Time) error {
	updates["status"] = to
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = now

	result := tx.Model(&models.ScratchTicket{}).
		Where("id = ? AND status = ? AND version = ?", ticket.ID, ticket.Status, ticket.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}

	ticket.Status = to
	ticket.Version++
	ticket.UpdatedAt = now
	return nil
}

// RevealTicket resolves the ticket's prize. Revealing an already revealed or
// redeemed ticket returns it unchanged without drawing again. An issued ticket
// whose campaign window has passed becomes EXPIRED.
func (s *ScratchService) RevealTicket(ctx context.Context, ticketId string) (*models.ScratchTicket, error) {
	ticketID, err := uuid.Parse(ticketId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid ticket ID format")
	}

	var ticket *models.ScratchTicket
	drawn := false
	lapsed := false
	err = s.tx.Run(ctx, "scratch.reveal", func(tx *gorm.DB) error {
		now := s.tx.Now()
		drawn, lapsed = false, false

		var err error
		ticket, err = s.findTicket(tx, ticketID)
		if err != nil {
			return err
		}

		switch ticket.Status {
		case models.TicketStatusRevealed, models.TicketStatusRedeemed:
			return nil
		case models.TicketStatusExpired:
			return errors.ErrTicketExpired
		case models.TicketStatusInactive:
			return errors.ErrInvalidTransition
		}

		campaign, err := s.findCampaign(tx, ticket.CampaignID)
		if err != nil {
			return err
		}
		if now.After(campaign.EndDate) {
			lapsed = true
			return errors.ErrTicketExpired
		}
		if campaign.Status != models.CampaignStatusActive {
			return errors.ErrCampaignClosed
		}

		prize, err := s.resolvePrize(tx, campaign.ID)
		if err != nil {
			return err
		}

		prizeType := models.PrizeTypeNoPrize
		updates := map[string]interface{}{
			"revealed_at": now,
		}
		if prize != nil {
			prizeType = prize.Type
			updates["prize_id"] = prize.ID
			updates["prize_value"] = prize.Value
			updates["prize_name"] = prize.Name
			ticket.PrizeID = &prize.ID
			ticket.PrizeValue = prize.Value
			ticket.PrizeName = &prize.Name
		}
		updates["prize_type"] = prizeType
		ticket.PrizeType = &prizeType
		ticket.RevealedAt = &now

		if err := s.transition(tx, ticket, models.TicketStatusRevealed, updates, now); err != nil {
			return err
		}

		if prize != nil && prize.Type == models.PrizeTypeStamps && prize.Value > 0 {
			if _, err := s.cards.applyDelta(tx, models.CardDelta{
				ClientID:       ticket.ClientID,
				BusinessID:     ticket.BusinessID,
				AvailableDelta: prize.Value,
				TotalDelta:     prize.Value,
				Type:           models.CardTransactionTypeBonus,
				Reference:      ticket.ID.String(),
				Description:    prize.Name,
			}, now); err != nil {
				return err
			}
		}

		drawn = true
		return s.audit.LogStatusChange(tx, AuditEntityTicket, ticket.ID.String(),
			string(models.TicketStatusIssued), string(models.TicketStatusRevealed), nil, &ticket.ClientID, now)
	})
	if err != nil {
		if lapsed {
			s.expireTicket(ctx, ticketID)
		}
		return nil, err
	}

	if drawn {
		s.metrics.ObservePrizeAwarded(string(*ticket.PrizeType))
		if *ticket.PrizeType == models.PrizeTypeStamps {
			s.metrics.ObserveStampsCredited(string(models.CardTransactionTypeBonus), ticket.PrizeValue)
		}
		logrus.WithFields(logrus.Fields{
			"ticket_id":  ticket.ID,
			"prize_type": *ticket.PrizeType,
		}).Info("scratch ticket revealed")
	}

	return ticket, nil
}

// resolvePrize draws a prize and takes one unit of its inventory. The cap is
// re-checked by the increment itself; a prize that ran out since it was read
// is excluded and the draw repeats. nil means no prize.
func (s *ScratchService) resolvePrize(tx *gorm.DB, campaignID uuid.UUID) (*models.ScratchPrize, error) {
	var prizes []models.ScratchPrize
	if err := tx.Where("campaign_id = ?", campaignID).Order("position ASC, id ASC").Find(&prizes).Error; err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]bool)
	for {
		prize := drawPrize(prizes, excluded, s.draw)
		if prize == nil {
			return nil, nil
		}

		result := tx.Model(&models.ScratchPrize{}).
			Where("id = ? AND (inventory_cap IS NULL OR awarded_count < inventory_cap)", prize.ID).
			Update("awarded_count", gorm.Expr("awarded_count + 1"))
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			prize.AwardedCount++
			return prize, nil
		}
		excluded[prize.ID] = true
	}
}

func (s *ScratchService) expireTicket(ctx context.Context, ticketID uuid.UUID) {
	err := s.tx.Run(ctx, "scratch.expire", func(tx *gorm.DB) error {
		now := s.tx.Now()
		ticket, err := s.findTicket(tx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != models.TicketStatusIssued {
			return nil
		}
		if err := s.transition(tx, ticket, models.TicketStatusExpired, map[string]interface{}{}, now); err != nil {
			return err
		}
		if err := s.registry.release(tx, ticket.Code, now); err != nil {
			return err
		}
		return s.audit.LogStatusChange(tx, AuditEntityTicket, ticket.ID.String(),
			string(models.TicketStatusIssued), string(models.TicketStatusExpired), nil, nil, now)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"ticket_id": ticketID, "error": err}).Warn("failed to expire scratch ticket")
	}
}

// RedeemTicket consumes a revealed ticket by claiming its code.
func (s *ScratchService) RedeemTicket(ctx context.Context, ticketId string) (*models.ScratchTicket, error) {
	ticketID, err := uuid.Parse(ticketId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid ticket ID format")
	}

	var ticket *models.ScratchTicket
	err = s.tx.Run(ctx, "scratch.redeem", func(tx *gorm.DB) error {
		now := s.tx.Now()
		var err error
		ticket, err = s.findTicket(tx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != models.TicketStatusRevealed {
			return errors.ErrInvalidTransition
		}

		if _, err := s.registry.Claim(tx, ticket.Code, models.CodeKindScratch, &ticket.ClientID, now); err != nil {
			if errors.Is(err, errors.ErrCodeAlreadyClaimed) {
				return errors.ErrInvalidTransition
			}
			return err
		}

		if err := s.transition(tx, ticket, models.TicketStatusRedeemed, map[string]interface{}{
			"redeemed_at": now,
		}, now); err != nil {
			return err
		}
		ticket.RedeemedAt = &now

		return s.audit.LogStatusChange(tx, AuditEntityTicket, ticket.ID.String(),
			string(models.TicketStatusRevealed), string(models.TicketStatusRedeemed), nil, &ticket.ClientID, now)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// InactivateTicket invalidates a ticket administratively and frees its slot in
// the client's allocation. Redeemed tickets are final.
func (s *ScratchService) InactivateTicket(ctx context.Context, ticketId string, reason *string) (*models.ScratchTicket, error) {
	ticketID, err := uuid.Parse(ticketId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid ticket ID format")
	}

	var ticket *models.ScratchTicket
	err = s.tx.Run(ctx, "scratch.inactivate", func(tx *gorm.DB) error {
		now := s.tx.Now()
		var err error
		ticket, err = s.findTicket(tx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status == models.TicketStatusRedeemed || ticket.Status == models.TicketStatusInactive {
			return errors.ErrInvalidTransition
		}

		from := ticket.Status
		if err := s.transition(tx, ticket, models.TicketStatusInactive, map[string]interface{}{}, now); err != nil {
			return err
		}

		var allocation models.ScratchAllocation
		if err := tx.Where("campaign_id = ? AND client_id = ?", ticket.CampaignID, ticket.ClientID).First(&allocation).Error; err != nil {
			return err
		}
		if err := s.adjustAllocation(tx, &allocation, -1, now); err != nil {
			return err
		}

		if err := s.registry.release(tx, ticket.Code, now); err != nil {
			return err
		}

		return s.audit.LogStatusChange(tx, AuditEntityTicket, ticket.ID.String(),
			string(from), string(models.TicketStatusInactive), reason, nil, now)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// OpenCampaign is called when a client opens a campaign. Under the
// ON_FIRST_OPEN policy a client without tickets gets one issued; otherwise the
// client's latest ticket is returned.
func (s *ScratchService) OpenCampaign(ctx context.Context, clientID uuid.UUID, campaignId string) (*models.ScratchTicket, error) {
	campaignID, err := uuid.Parse(campaignId)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid campaign ID format")
	}

	var ticket *models.ScratchTicket
	issued := false
	err = s.tx.Run(ctx, "scratch.open", func(tx *gorm.DB) error {
		now := s.tx.Now()
		issued = false
		campaign, err := s.findCampaign(tx, campaignID)
		if err != nil {
			return err
		}

		var latest models.ScratchTicket
		err = tx.Where("campaign_id = ? AND client_id = ?", campaignID, clientID).
			Order("created_at DESC").
			First(&latest).Error
		if err == nil {
			ticket = &latest
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if campaign.IssuancePolicy != models.IssuancePolicyOnFirstOpen {
			return errors.NewNotFoundError("No scratch ticket for this campaign")
		}
		if !campaign.Open(now) {
			return errors.ErrCampaignClosed
		}

		ticket, err = s.issueInTx(tx, campaign, clientID, now)
		issued = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if issued {
		logrus.WithFields(logrus.Fields{
			"ticket_id":   ticket.ID,
			"campaign_id": campaignID,
			"client_id":   clientID,
		}).Info("scratch ticket issued on first open")
	}
	return ticket, nil
}

// IssueOnAssociation issues one ticket from every open ON_ASSOCIATION campaign
// of the business. Failures are logged and skipped.
func (s *ScratchService) IssueOnAssociation(ctx context.Context, clientID, businessID uuid.UUID) []*models.ScratchTicket {
	now := s.tx.Now()

	var campaigns []models.ScratchCampaign
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND status = ? AND issuance_policy = ?", businessID, models.CampaignStatusActive, models.IssuancePolicyOnAssociation).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Find(&campaigns).Error
	if err != nil {
		logrus.WithFields(logrus.Fields{"business_id": businessID, "error": err}).Warn("failed to load association campaigns")
		return nil
	}

	tickets := make([]*models.ScratchTicket, 0, len(campaigns))
	for _, campaign := range campaigns {
		ticket, err := s.issue(ctx, clientID, campaign.ID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"campaign_id": campaign.ID,
				"client_id":   clientID,
				"error":       err,
			}).Warn("association ticket not issued")
			continue
		}
		tickets = append(tickets, ticket)
	}
	return tickets
}

func (s *ScratchService) ListClientTickets(ctx context.Context, clientID uuid.UUID, campaignID *uuid.UUID, pagination *models.PaginationRequest) (*models.Pagination[[]models.ScratchTicket], error) {
	query := s.db.WithContext(ctx).Model(&models.ScratchTicket{}).Where("client_id = ?", clientID)
	if campaignID != nil {
		query = query.Where("campaign_id = ?", *campaignID)
	}
	return paginate[models.ScratchTicket](query, pagination, "created_at")
}
