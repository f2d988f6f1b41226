package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "PENDING"
	RedemptionStatusDelivered RedemptionStatus = "DELIVERED"
	RedemptionStatusExpired   RedemptionStatus = "EXPIRED"
	RedemptionStatusCancelled RedemptionStatus = "CANCELLED"
)

// RewardRedemption is the ticket produced by exchanging stamps for a reward.
// StampsBefore - StampsSpent = StampsAfter.
type RewardRedemption struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RewardID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"reward_id"`
	ClientID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"client_id"`
	BusinessID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"business_id"`
	CardID       uuid.UUID        `gorm:"type:uuid;not null" json:"card_id"`
	Code         string           `gorm:"size:64;not null;uniqueIndex" json:"code"`
	StampsBefore int64            `gorm:"not null" json:"stamps_before"`
	StampsSpent  int64            `gorm:"not null" json:"stamps_spent"`
	StampsAfter  int64            `gorm:"not null" json:"stamps_after"`
	Status       RedemptionStatus `gorm:"size:16;not null;index" json:"status"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
	DeliveredBy  *uuid.UUID       `gorm:"type:uuid" json:"delivered_by,omitempty"`
	DeliveredAt  *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason *string          `json:"cancel_reason,omitempty"`
	Version      int64            `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *RewardRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type RedeemRewardRequest struct {
	ClientID string `json:"client_id" validate:"required,uuid"`
	RewardID string `json:"reward_id" validate:"required,uuid"`
}

type DeliverRedemptionRequest struct {
	Code        string `json:"code" validate:"required,max=64"`
	DeliveredBy string `json:"delivered_by" validate:"required,uuid"`
}

type CancelRedemptionRequest struct {
	Code   string  `json:"code" validate:"required,max=64"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=255"`
}
