package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnlimitedStock marks a reward whose stock is never decremented.
const UnlimitedStock int64 = -1

type Reward struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"business_id"`
	Name              string         `gorm:"size:255;not null" json:"name"`
	Description       *string        `json:"description,omitempty"`
	StampsCost        int64          `gorm:"not null" json:"stamps_cost"`
	Stock             int64          `gorm:"not null" json:"stock"`
	StockSetAt        *time.Time     `json:"stock_set_at,omitempty"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	OneTimeUse        bool           `gorm:"not null;default:false" json:"one_time_use"`
	Active            bool           `gorm:"not null;default:true" json:"active"`
	ImageURL          *string        `json:"image_url,omitempty"`
	SpecialConditions *string        `json:"special_conditions,omitempty"`
	Version           int64          `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// FiniteStock reports whether redemptions draw the stock down.
func (r *Reward) FiniteStock() bool {
	return r.Stock >= 0
}

// Redeemable reports whether the reward can be exchanged at now.
func (r *Reward) Redeemable(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return false
	}
	return r.Stock != 0
}

type RewardCreateRequest struct {
	BusinessID        string     `json:"business_id" validate:"required,uuid"`
	Name              string     `json:"name" validate:"required,max=255"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	StampsCost        int64      `json:"stamps_cost" validate:"required,min=1"`
	Stock             *int64     `json:"stock,omitempty" validate:"omitempty,min=-1"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	OneTimeUse        bool       `json:"one_time_use"`
	ImageURL          *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	SpecialConditions *string    `json:"special_conditions,omitempty" validate:"omitempty,max=1000"`
}

type RewardUpdateRequest struct {
	Name              *string    `json:"name,omitempty" validate:"omitempty,max=255"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	StampsCost        *int64     `json:"stamps_cost,omitempty" validate:"omitempty,min=1"`
	Stock             *int64     `json:"stock,omitempty" validate:"omitempty,min=-1"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	OneTimeUse        *bool      `json:"one_time_use,omitempty"`
	Active            *bool      `json:"active,omitempty"`
	ImageURL          *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	SpecialConditions *string    `json:"special_conditions,omitempty" validate:"omitempty,max=1000"`
}
