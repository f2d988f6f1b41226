package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	codeLength      = 24
	maxMintAttempts = 5
)

var codePrefixes = map[models.CodeKind]string{
	models.CodeKindStamp:   "STP",
	models.CodeKindReward:  "RWD",
	models.CodeKindScratch: "SCR",
}

// Payload is what a registry code is bound to. The concrete type decides
// the code kind.
type Payload interface {
	Kind() models.CodeKind
}

type StampPayload struct {
	Value        int64               `json:"value"`
	Type         models.StampType    `json:"type"`
	PurchaseType models.PurchaseType `json:"purchase_type,omitempty"`
	Description  *string             `json:"description,omitempty"`
}

func (StampPayload) Kind() models.CodeKind { return models.CodeKindStamp }

type RewardPayload struct {
	RedemptionID uuid.UUID `json:"redemption_id"`
	RewardID     uuid.UUID `json:"reward_id"`
}

func (RewardPayload) Kind() models.CodeKind { return models.CodeKindReward }

type ScratchPayload struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
}

func (ScratchPayload) Kind() models.CodeKind { return models.CodeKindScratch }

// DecodePayload returns the typed payload of a code.
func DecodePayload(code *models.Code) (Payload, error) {
	var payload Payload
	switch code.Kind {
	case models.CodeKindStamp:
		payload = &StampPayload{}
	case models.CodeKindReward:
		payload = &RewardPayload{}
	case models.CodeKindScratch:
		payload = &ScratchPayload{}
	default:
		return nil, fmt.Errorf("unknown code kind %q", code.Kind)
	}
	if err := json.Unmarshal(code.Payload, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", code.Kind, err)
	}
	return payload, nil
}

// CodeRegistry mints single-use codes and enforces single-claim semantics.
type CodeRegistry struct {
	db *gorm.DB
}

func NewCodeRegistry(db *gorm.DB) *CodeRegistry {
	return &CodeRegistry{
		db: db,
	}
}

// Mint creates an ACTIVE code bound to payload. A collision with an existing
// code is resolved by drawing a new one.
func (r *CodeRegistry) Mint(tx *gorm.DB, businessID uuid.UUID, ownerID *uuid.UUID, payload Payload, expiresAt *time.Time) (*models.Code, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", payload.Kind(), err)
	}

	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		value, err := pkg.RandomCode(codePrefixes[payload.Kind()], codeLength)
		if err != nil {
			return nil, errors.NewInternalServerError(err, "Failed to generate code")
		}

		code := &models.Code{
			Code:       value,
			Kind:       payload.Kind(),
			BusinessID: businessID,
			OwnerID:    ownerID,
			Status:     models.CodeStatusActive,
			Payload:    datatypes.JSON(raw),
			ExpiresAt:  expiresAt,
			Version:    1,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(code)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			return code, nil
		}
		logrus.WithField("kind", payload.Kind()).Warn("code collision, minting again")
	}

	return nil, errors.NewInternalServerError(nil, "Failed to mint a unique code")
}

// Get returns a code by value, any status.
func (r *CodeRegistry) Get(ctx context.Context, value string) (*models.Code, error) {
	return r.find(r.db.WithContext(ctx), value)
}

func (r *CodeRegistry) find(tx *gorm.DB, value string) (*models.Code, error) {
	var code models.Code
	err := tx.Where("code = ?", pkg.NormalizeCode(value)).First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

// Claim moves an ACTIVE code of the given kind to USED. The transition is a
// compare-and-swap on the code version, so of many concurrent claimers exactly
// one succeeds and the rest see ErrCodeAlreadyClaimed.
//
// An ACTIVE code past its expiry fails with ErrCodeExpired; the caller persists
// the EXPIRED status with MarkExpired once its transaction has rolled back.
func (r *CodeRegistry) Claim(tx *gorm.DB, value string, kind models.CodeKind, claimant *uuid.UUID, now time.Time) (*models.Code, error) {
	code, err := r.find(tx, value)
	if err != nil {
		return nil, err
	}
	if code.Kind != kind {
		return nil, errors.ErrCodeNotFound
	}

	switch code.Status {
	case models.CodeStatusActive:
	case models.CodeStatusExpired:
		return nil, errors.ErrCodeExpired
	default:
		return nil, errors.ErrCodeAlreadyClaimed
	}

	// scratch codes live as long as their campaign window
	if kind != models.CodeKindScratch && pkg.IsExpired(code.ExpiresAt, now) {
		return nil, errors.ErrCodeExpired
	}
	if kind == models.CodeKindStamp && claimant == nil {
		return nil, errors.NewBadRequestError("Stamp code claim requires a client")
	}

	result := tx.Model(&models.Code{}).
		Where("code = ? AND status = ? AND version = ?", code.Code, models.CodeStatusActive, code.Version).
		Updates(map[string]interface{}{
			"status":     models.CodeStatusUsed,
			"claimed_by": claimant,
			"claimed_at": now,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errors.ErrCodeAlreadyClaimed
	}

	code.Status = models.CodeStatusUsed
	code.ClaimedBy = claimant
	code.ClaimedAt = &now
	code.Version++
	code.UpdatedAt = now
	return code, nil
}

// Cancel moves an ACTIVE code to CANCELLED.
func (r *CodeRegistry) Cancel(tx *gorm.DB, value string, now time.Time) (*models.Code, error) {
	code, err := r.find(tx, value)
	if err != nil {
		return nil, err
	}
	if code.Status != models.CodeStatusActive {
		return nil, errors.ErrCodeAlreadyClaimed
	}

	result := tx.Model(&models.Code{}).
		Where("code = ? AND version = ?", code.Code, code.Version).
		Updates(map[string]interface{}{
			"status":     models.CodeStatusCancelled,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkg.ErrConflict
	}

	code.Status = models.CodeStatusCancelled
	code.Version++
	code.UpdatedAt = now
	return code, nil
}

// release cancels a code if it is still ACTIVE and is a no-op otherwise.
func (r *CodeRegistry) release(tx *gorm.DB, value string, now time.Time) error {
	return tx.Model(&models.Code{}).
		Where("code = ? AND status = ?", value, models.CodeStatusActive).
		Updates(map[string]interface{}{
			"status":     models.CodeStatusCancelled,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}).Error
}

// MarkExpired persists ACTIVE -> EXPIRED for a code whose claim failed on
// expiry. Failures are logged; the next sweep catches the code anyway.
func (r *CodeRegistry) MarkExpired(ctx context.Context, value string, now time.Time) {
	err := r.db.WithContext(ctx).Model(&models.Code{}).
		Where("code = ? AND status = ?", pkg.NormalizeCode(value), models.CodeStatusActive).
		Updates(map[string]interface{}{
			"status":     models.CodeStatusExpired,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}).Error
	if err != nil {
		logrus.WithFields(logrus.Fields{"code": value, "error": err}).Warn("failed to mark code expired")
	}
}

// ListByBusiness pages through the codes of one kind a business minted.
func (r *CodeRegistry) ListByBusiness(ctx context.Context, businessID uuid.UUID, kind models.CodeKind, status models.CodeStatus, pagination *models.PaginationRequest) (*models.Pagination[[]models.Code], error) {
	query := r.db.WithContext(ctx).Model(&models.Code{}).
		Where("business_id = ? AND kind = ?", businessID, kind)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return paginate[models.Code](query, pagination, "created_at")
}
