package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientCard is the per (client, business) stamp balance.
// TotalStamps = AvailableStamps + UsedStamps at all times.
type ClientCard struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_client_cards_client_business" json:"client_id"`
	BusinessID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_client_cards_client_business;index" json:"business_id"`
	TotalStamps     int64      `gorm:"not null;default:0" json:"total_stamps"`
	AvailableStamps int64      `gorm:"not null;default:0" json:"available_stamps"`
	UsedStamps      int64      `gorm:"not null;default:0" json:"used_stamps"`
	Level           int        `gorm:"not null;default:1" json:"level"`
	LastStampDate   *time.Time `json:"last_stamp_date,omitempty"`
	DisabledAt      *time.Time `json:"disabled_at,omitempty"`
	Version         int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *ClientCard) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Balanced reports whether the counters satisfy the card invariant.
func (c *ClientCard) Balanced() bool {
	return c.AvailableStamps >= 0 && c.UsedStamps >= 0 &&
		c.TotalStamps == c.AvailableStamps+c.UsedStamps
}

// LevelThresholds are the minimum lifetime stamps for levels 1..n.
var LevelThresholds = []int64{0, 10, 25, 50, 100}

// LevelForStamps maps lifetime stamps to a level. Monotonic in total.
func LevelForStamps(total int64) int {
	level := 1
	for i, threshold := range LevelThresholds {
		if total >= threshold {
			level = i + 1
		}
	}
	return level
}

// CardDelta is the only shape in which card counters change.
type CardDelta struct {
	ClientID       uuid.UUID
	BusinessID     uuid.UUID
	AvailableDelta int64
	TotalDelta     int64
	UsedDelta      int64
	Type           CardTransactionType
	Reference      string
	Description    string
}

// CardMutation captures a card before and after one applied delta.
type CardMutation struct {
	Before    ClientCard  `json:"before"`
	Card      *ClientCard `json:"card"`
	IsNewCard bool        `json:"is_new_card"`
}
