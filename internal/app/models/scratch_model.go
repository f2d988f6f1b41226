package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "ACTIVE"
	CampaignStatusInactive CampaignStatus = "INACTIVE"
)

type IssuancePolicy string

const (
	IssuancePolicyOnAssociation IssuancePolicy = "ON_ASSOCIATION"
	IssuancePolicyOnFirstOpen   IssuancePolicy = "ON_FIRST_OPEN"
	IssuancePolicyManual        IssuancePolicy = "MANUAL"
)

type ScratchCampaign struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"business_id"`
	Name              string         `gorm:"size:255;not null" json:"name"`
	Description       *string        `json:"description,omitempty"`
	StartDate         time.Time      `gorm:"not null" json:"start_date"`
	EndDate           time.Time      `gorm:"not null" json:"end_date"`
	Status            CampaignStatus `gorm:"size:16;not null;index" json:"status"`
	IssuancePolicy    IssuancePolicy `gorm:"size:16;not null" json:"issuance_policy"`
	MaxCardsPerClient int            `gorm:"not null" json:"max_cards_per_client"`
	Prizes            []ScratchPrize `gorm:"foreignKey:CampaignID" json:"prizes,omitempty"`
	Version           int64          `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *ScratchCampaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Open reports whether tickets may be issued at now.
func (c *ScratchCampaign) Open(now time.Time) bool {
	return c.Status == CampaignStatusActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

type PrizeType string

const (
	PrizeTypeStamps   PrizeType = "STAMPS"
	PrizeTypeReward   PrizeType = "REWARD"
	PrizeTypeDiscount PrizeType = "DISCOUNT"
	// PrizeTypeNoPrize is what a ticket resolves to when nothing is left to win.
	PrizeTypeNoPrize PrizeType = "NO_PRIZE"
)

type ScratchPrize struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Type         PrizeType       `gorm:"size:16;not null" json:"type"`
	Value        int64           `gorm:"not null;default:0" json:"value"`
	RewardID     *uuid.UUID      `gorm:"type:uuid" json:"reward_id,omitempty"`
	Probability  decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"probability"`
	InventoryCap *int64          `json:"inventory_cap,omitempty"`
	AwardedCount int64           `gorm:"not null;default:0" json:"awarded_count"`
	Position     int             `gorm:"not null;default:0" json:"position"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *ScratchPrize) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Available reports whether the prize may still be drawn.
func (p *ScratchPrize) Available() bool {
	return p.InventoryCap == nil || p.AwardedCount < *p.InventoryCap
}

type TicketStatus string

const (
	TicketStatusIssued   TicketStatus = "ISSUED"
	TicketStatusRevealed TicketStatus = "REVEALED"
	TicketStatusRedeemed TicketStatus = "REDEEMED"
	TicketStatusExpired  TicketStatus = "EXPIRED"
	TicketStatusInactive TicketStatus = "INACTIVE"
)

type ScratchTicket struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID    `gorm:"type:uuid;not null;index:idx_scratch_tickets_campaign_client" json:"campaign_id"`
	ClientID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_scratch_tickets_campaign_client" json:"client_id"`
	BusinessID uuid.UUID    `gorm:"type:uuid;not null" json:"business_id"`
	Code       string       `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Status     TicketStatus `gorm:"size:16;not null;index" json:"status"`
	PrizeID    *uuid.UUID   `gorm:"type:uuid" json:"prize_id,omitempty"`
	PrizeType  *PrizeType   `gorm:"size:16" json:"prize_type,omitempty"`
	PrizeValue int64        `gorm:"not null;default:0" json:"prize_value"`
	PrizeName  *string      `json:"prize_name,omitempty"`
	RevealedAt *time.Time   `json:"revealed_at,omitempty"`
	RedeemedAt *time.Time   `json:"redeemed_at,omitempty"`
	Version    int64        `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *ScratchTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ScratchAllocation counts a client's non-inactive tickets in a campaign.
// Its version serializes concurrent issuance for the same client.
type ScratchAllocation struct {
	CampaignID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"campaign_id"`
	ClientID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"client_id"`
	IssuedCount int       `gorm:"not null;default:0" json:"issued_count"`
	Version     int64     `gorm:"not null;default:1" json:"version"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type ScratchPrizeRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Type         PrizeType       `json:"type" validate:"required,oneof=STAMPS REWARD DISCOUNT NO_PRIZE"`
	Value        int64           `json:"value" validate:"min=0"`
	RewardID     *string         `json:"reward_id,omitempty" validate:"omitempty,uuid"`
	Probability  decimal.Decimal `json:"probability" validate:"gte=0,lte=1000"`
	InventoryCap *int64          `json:"inventory_cap,omitempty" validate:"omitempty,min=0"`
	Position     int             `json:"position" validate:"min=0"`
}

type ScratchCampaignCreateRequest struct {
	BusinessID        string                `json:"business_id" validate:"required,uuid"`
	Name              string                `json:"name" validate:"required,max=255"`
	Description       *string               `json:"description,omitempty" validate:"omitempty,max=1000"`
	StartDate         time.Time             `json:"start_date" validate:"required"`
	EndDate           time.Time             `json:"end_date" validate:"required,gtfield=StartDate"`
	IssuancePolicy    IssuancePolicy        `json:"issuance_policy" validate:"required,oneof=ON_ASSOCIATION ON_FIRST_OPEN MANUAL"`
	MaxCardsPerClient int                   `json:"max_cards_per_client" validate:"required,min=1"`
	Prizes            []ScratchPrizeRequest `json:"prizes" validate:"dive"`
}

type IssueTicketRequest struct {
	ClientID   string `json:"client_id" validate:"required,uuid"`
	CampaignID string `json:"campaign_id" validate:"required,uuid"`
}

type CampaignStatusRequest struct {
	Status CampaignStatus `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}
