package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardTransactionType string

const (
	CardTransactionTypeAccumulation CardTransactionType = "ACCUMULATION"
	CardTransactionTypeExchange     CardTransactionType = "EXCHANGE"
	CardTransactionTypeBonus        CardTransactionType = "BONUS"
	CardTransactionTypeRefund       CardTransactionType = "REFUND"
)

// CardTransaction is the history row written with every card mutation.
type CardTransaction struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CardID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"card_id"`
	ClientID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"client_id"`
	BusinessID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"business_id"`
	Type            CardTransactionType `gorm:"size:16;not null" json:"type"`
	AvailableDelta  int64               `json:"available_delta"`
	UsedDelta       int64               `json:"used_delta"`
	TotalDelta      int64               `json:"total_delta"`
	AvailableStamps int64               `json:"available_stamps"`
	UsedStamps      int64               `json:"used_stamps"`
	TotalStamps     int64               `json:"total_stamps"`
	Reference       string              `gorm:"size:128;index" json:"reference"`
	Description     string              `gorm:"size:255" json:"description"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (t *CardTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
