package model

import "time"

// Plan 订阅计划，每次请求根据身份权益重新计算，不落库
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// UsageLedger 免费额度计数，每个用户一行
type UsageLedger struct {
	UserID    string `gorm:"primaryKey;type:varchar(64)"`
	FreeUsage int    `gorm:"not null;default:0;check:chk_usage_non_negative,free_usage >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UsageLedger) TableName() string { return "usage_ledgers" }
