package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StampService issues stamp codes and credits them to client cards.
type StampService struct {
	validator    *infrastructures.Validator
	tx           *TxRunner
	registry     *CodeRegistry
	cards        *CardService
	entitlements *EntitlementService
	audit        *AuditService
	metrics      *infrastructures.Metrics
}

func NewStampService(
	validator *infrastructures.Validator,
	tx *TxRunner,
	registry *CodeRegistry,
	cards *CardService,
	entitlements *EntitlementService,
	audit *AuditService,
	metrics *infrastructures.Metrics,
) *StampService {
	return &StampService{
		validator:    validator,
		tx:           tx,
		registry:     registry,
		cards:        cards,
		entitlements: entitlements,
		audit:        audit,
		metrics:      metrics,
	}
}

func stampCodeFromCode(code *models.Code) (*models.StampCode, error) {
	if code.Kind != models.CodeKindStamp {
		return nil, errors.ErrCodeNotFound
	}
	payload, err := DecodePayload(code)
	if err != nil {
		return nil, err
	}
	stamp := payload.(*StampPayload)

	return &models.StampCode{
		Code:         code.Code,
		BusinessID:   code.BusinessID,
		Value:        stamp.Value,
		Type:         stamp.Type,
		PurchaseType: stamp.PurchaseType,
		Description:  stamp.Description,
		Status:       code.Status,
		ExpiresAt:    code.ExpiresAt,
		ClaimedBy:    code.ClaimedBy,
		ClaimedAt:    code.ClaimedAt,
		CreatedAt:    code.CreatedAt,
	}, nil
}

// IssueStamp mints a stamp code worth req.Value stamps after checking the
// business's monthly stamp quota.
func (s *StampService) IssueStamp(ctx context.Context, req *models.IssueStampRequest) (*models.StampCode, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid business ID format")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.tx.Now()) {
		return nil, errors.NewBadRequestError("Expiry must be in the future")
	}

	if err := s.entitlements.CheckStampQuota(ctx, businessID, req.Value); err != nil {
		return nil, err
	}

	payload := StampPayload{
		Value:        req.Value,
		Type:         req.Type,
		PurchaseType: req.PurchaseType,
		Description:  req.Description,
	}
	var expiresAt = req.ExpiresAt
	if expiresAt != nil {
		utc := expiresAt.UTC()
		expiresAt = &utc
	}

	var code *models.Code
	err = s.tx.Run(ctx, "stamp.issue", func(tx *gorm.DB) error {
		var err error
		code, err = s.registry.Mint(tx, businessID, nil, payload, expiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"business_id": businessID,
		"value":       req.Value,
		"type":        req.Type,
	}).Info("stamp code issued")

	return stampCodeFromCode(code)
}

// RedeemStamp claims a stamp code for a client and credits its value to the
// client's card at the issuing business. The claim and the credit commit
// together or not at all.
func (s *StampService) RedeemStamp(ctx context.Context, req *models.RedeemStampRequest) (*models.LedgerResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid client ID format")
	}
	value := pkg.NormalizeCode(req.Code)

	// A first claim creates a card, which counts against the client quota.
	// The gate is external, so it is consulted before the transaction.
	peeked, err := s.registry.Get(ctx, value)
	if err != nil && !errors.Is(err, errors.ErrCodeNotFound) {
		return nil, errors.NewUnavailableError(err, "Failed to look up stamp code")
	}
	if err == nil && peeked.Kind == models.CodeKindStamp && peeked.Status == models.CodeStatusActive {
		exists, err := s.cards.Exists(ctx, clientID, peeked.BusinessID)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := s.entitlements.CheckClientQuota(ctx, peeked.BusinessID); err != nil {
				return nil, err
			}
		}
	}

	var result *models.LedgerResult
	err = s.tx.Run(ctx, "stamp.redeem", func(tx *gorm.DB) error {
		now := s.tx.Now()

		code, err := s.registry.Claim(tx, value, models.CodeKindStamp, &clientID, now)
		if err != nil {
			return err
		}
		stampCode, err := stampCodeFromCode(code)
		if err != nil {
			return err
		}

		mutation, err := s.cards.applyDelta(tx, models.CardDelta{
			ClientID:       clientID,
			BusinessID:     code.BusinessID,
			AvailableDelta: stampCode.Value,
			TotalDelta:     stampCode.Value,
			Type:           models.CardTransactionTypeAccumulation,
			Reference:      code.Code,
			Description:    fmt.Sprintf("%s stamp", stampCode.Type),
		}, now)
		if err != nil {
			return err
		}

		result = &models.LedgerResult{
			StampCode:   stampCode,
			Card:        mutation.Card,
			StampsAdded: stampCode.Value,
			IsNewCard:   mutation.IsNewCard,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrCodeExpired) {
			s.registry.MarkExpired(ctx, value, s.tx.Now())
		}
		return nil, err
	}

	s.metrics.ObserveStampsCredited(string(models.CardTransactionTypeAccumulation), result.StampsAdded)
	logrus.WithFields(logrus.Fields{
		"client_id":   clientID,
		"business_id": result.Card.BusinessID,
		"stamps":      result.StampsAdded,
		"new_card":    result.IsNewCard,
	}).Info("stamp code redeemed")

	if result.IsNewCard {
		s.cards.notifyAssociation(ctx, clientID, result.Card.BusinessID)
	}
	return result, nil
}

func (s *StampService) GetStampCode(ctx context.Context, value string) (*models.StampCode, error) {
	code, err := s.registry.Get(ctx, value)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, errors.NewUnavailableError(err, "Failed to get stamp code")
	}
	return stampCodeFromCode(code)
}

func (s *StampService) ListStampCodes(ctx context.Context, businessID uuid.UUID, status models.CodeStatus, pagination *models.PaginationRequest) (*models.Pagination[[]models.StampCode], error) {
	page, err := s.registry.ListByBusiness(ctx, businessID, models.CodeKindStamp, status, pagination)
	if err != nil {
		return nil, err
	}

	items := make([]models.StampCode, 0, len(page.Items))
	for i := range page.Items {
		stampCode, err := stampCodeFromCode(&page.Items[i])
		if err != nil {
			return nil, errors.NewInternalServerError(err, "Failed to decode stamp code")
		}
		items = append(items, *stampCode)
	}

	return &models.Pagination[[]models.StampCode]{
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
		Items:      items,
	}, nil
}

// CancelStampCode withdraws an unclaimed stamp code of the business.
func (s *StampService) CancelStampCode(ctx context.Context, businessID uuid.UUID, value string) (*models.StampCode, error) {
	var code *models.Code
	err := s.tx.Run(ctx, "stamp.cancel", func(tx *gorm.DB) error {
		now := s.tx.Now()
		existing, err := s.registry.find(tx, value)
		if err != nil {
			return err
		}
		if existing.Kind != models.CodeKindStamp || existing.BusinessID != businessID {
			return errors.ErrCodeNotFound
		}

		code, err = s.registry.Cancel(tx, existing.Code, now)
		if err != nil {
			return err
		}
		return s.audit.LogStatusChange(tx, AuditEntityCode, code.Code,
			string(models.CodeStatusActive), string(models.CodeStatusCancelled), nil, &businessID, now)
	})
	if err != nil {
		return nil, err
	}
	return stampCodeFromCode(code)
}
