package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CodeKind tags what a registry code unlocks. Each kind has its own claim rules.
type CodeKind string

const (
	CodeKindStamp   CodeKind = "STAMP"
	CodeKindReward  CodeKind = "REWARD"
	CodeKindScratch CodeKind = "SCRATCH"
)

type CodeStatus string

const (
	CodeStatusActive    CodeStatus = "ACTIVE"
	CodeStatusUsed      CodeStatus = "USED"
	CodeStatusExpired   CodeStatus = "EXPIRED"
	CodeStatusCancelled CodeStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s CodeStatus) Terminal() bool {
	return s != CodeStatusActive
}

// Code is a single-use token owned by the code registry until claimed.
type Code struct {
	Code       string         `gorm:"primaryKey;size:64" json:"code"`
	Kind       CodeKind       `gorm:"size:16;not null;index" json:"kind"`
	BusinessID uuid.UUID      `gorm:"type:uuid;not null;index" json:"business_id"`
	OwnerID    *uuid.UUID     `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Status     CodeStatus     `gorm:"size:16;not null;index" json:"status"`
	Payload    datatypes.JSON `json:"payload"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	ClaimedBy  *uuid.UUID     `gorm:"type:uuid" json:"claimed_by,omitempty"`
	ClaimedAt  *time.Time     `json:"claimed_at,omitempty"`
	Version    int64          `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type StampType string

const (
	StampTypePurchase  StampType = "PURCHASE"
	StampTypeVisit     StampType = "VISIT"
	StampTypePromotion StampType = "PROMOTION"
	StampTypeBonus     StampType = "BONUS"
)

type PurchaseType string

const (
	PurchaseTypeInStore  PurchaseType = "IN_STORE"
	PurchaseTypeTakeaway PurchaseType = "TAKEAWAY"
	PurchaseTypeDelivery PurchaseType = "DELIVERY"
	PurchaseTypeOnline   PurchaseType = "ONLINE"
	PurchaseTypeOther    PurchaseType = "OTHER"
)

// StampCode is the stamp-kind registry code seen through its payload.
type StampCode struct {
	Code         string       `json:"code"`
	BusinessID   uuid.UUID    `json:"business_id"`
	Value        int64        `json:"value"`
	Type         StampType    `json:"type"`
	PurchaseType PurchaseType `json:"purchase_type,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Status       CodeStatus   `json:"status"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	ClaimedBy    *uuid.UUID   `json:"claimed_by,omitempty"`
	ClaimedAt    *time.Time   `json:"claimed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type IssueStampRequest struct {
	BusinessID   string       `json:"business_id" validate:"required,uuid"`
	Value        int64        `json:"value" validate:"required,min=1,max=1000"`
	Type         StampType    `json:"type" validate:"required,oneof=PURCHASE VISIT PROMOTION BONUS"`
	PurchaseType PurchaseType `json:"purchase_type,omitempty" validate:"omitempty,oneof=IN_STORE TAKEAWAY DELIVERY ONLINE OTHER"`
	Description  *string      `json:"description,omitempty" validate:"omitempty,max=255"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
}

type RedeemStampRequest struct {
	Code     string `json:"code" validate:"required,max=64"`
	ClientID string `json:"client_id" validate:"required,uuid"`
}

// LedgerResult is the outcome of a successful stamp claim.
type LedgerResult struct {
	StampCode   *StampCode  `json:"stamp_code"`
	Card        *ClientCard `json:"card"`
	StampsAdded int64       `json:"stamps_added"`
	IsNewCard   bool        `json:"is_new_card"`
}
