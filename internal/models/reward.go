package models

import "time"

// RewardMetrics is the group snapshot that earned a reward.
type RewardMetrics struct {
	Participants int    `json:"participants"`
	TotalAmount  Money  `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	ProductName  string `json:"product_name"`
	Discount     Money  `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`
}

// Reward is one leader reward grant. The unique index on GroupID makes the
// grant exactly-once per completed group.
type Reward struct {
	ID         uint          `gorm:"primarykey" json:"id"`
	CustomerID string        `gorm:"index:idx_rewards_customer_status;not null" json:"customer_id"`
	GroupID    uint          `gorm:"uniqueIndex;not null" json:"group_id"`
	GroupCode  string        `json:"group_code"`
	Type       string        `gorm:"not null" json:"type"`
	Amount     Money         `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status     string        `gorm:"index:idx_rewards_customer_status;not null" json:"status"` // pending/approved/paid/cancelled
	Metrics    RewardMetrics `gorm:"embedded;embeddedPrefix:metric_" json:"metrics"`
	PaidAt     *time.Time    `json:"paid_at,omitempty"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName sets the table name.
func (Reward) TableName() string {
	return "rewards"
}
