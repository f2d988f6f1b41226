package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the ledger owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Code{},
		&ClientCard{},
		&CardTransaction{},
		&Reward{},
		&RewardRedemption{},
		&ScratchCampaign{},
		&ScratchPrize{},
		&ScratchTicket{},
		&ScratchAllocation{},
		&AuditLog{},
	)
}
