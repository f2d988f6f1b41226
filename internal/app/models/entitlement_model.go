package models

// Unlimited is the plan limit value meaning "no cap".
const Unlimited int64 = -1

// PlanLimits are the subscription-plan quotas of a business.
type PlanLimits struct {
	MaxStampsPerPeriod int64 `json:"max_stamps_per_period"`
	MaxActiveRewards   int64 `json:"max_active_rewards"`
	MaxClients         int64 `json:"max_clients"`
}

// EntitlementUsage is what the business consumed in one billing period.
type EntitlementUsage struct {
	Period        string `json:"period"`
	StampsIssued  int64  `json:"stamps_issued"`
	RewardsActive int64  `json:"rewards_active"`
	Clients       int64  `json:"clients"`
}
