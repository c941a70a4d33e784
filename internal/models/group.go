package models

import (
	"time"

	"github.com/grocerly/groupbuy/internal/constants"
)

// LeaderSnapshot is the leader identity captured at group creation.
// It is an owned value, not a live reference to the customer service.
type LeaderSnapshot struct {
	CustomerID string `gorm:"index;not null" json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// ProductSnapshot is the product captured at group creation. Later changes
// to the catalog product do not affect an existing group; in particular the
// group price is immutable once the group exists.
type ProductSnapshot struct {
	ProductID    string `gorm:"index;not null" json:"product_id"`
	Name         string `json:"name"`
	Banner       string `json:"banner"`
	RegularPrice Money  `gorm:"type:decimal(20,2);not null;default:0" json:"regular_price"`
	GroupPrice   Money  `gorm:"type:decimal(20,2);not null;default:0" json:"group_price"`
	Weight       string `json:"weight"`
	Category     string `json:"category"`
}

// DeliveryAddress is the leader-supplied address snapshot.
type DeliveryAddress struct {
	Type            string  `json:"type"`
	CompleteAddress string  `json:"complete_address"`
	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
}

// Group is one group buy.
type Group struct {
	ID                  uint            `gorm:"primarykey" json:"id"`
	Code                string          `gorm:"uniqueIndex;not null" json:"code"`                         // human-shareable identifier
	Leader              LeaderSnapshot  `gorm:"embedded;embeddedPrefix:leader_" json:"leader"`            // leader snapshot
	Product             ProductSnapshot `gorm:"embedded;embeddedPrefix:product_" json:"product"`          // product snapshot
	MinParticipants     int             `gorm:"not null" json:"min_participants"`                         // min >= 2
	MaxParticipants     int             `gorm:"not null" json:"max_participants"`                         // max >= min
	CurrentParticipants int             `gorm:"not null;default:0" json:"current_participants"`           // denormalized, equals len(participants)
	Status              string          `gorm:"index:idx_groups_status_expires;not null" json:"status"`   // active/completed/expired/cancelled
	ExpiresAt           time.Time       `gorm:"index:idx_groups_status_expires;not null" json:"expires_at"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	DeliveryAddress     DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	TotalAmount         Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`  // set on completion
	Discount            Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`      // set on completion
	LeaderReward        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"leader_reward"` // set on completion
	RewardPaid          bool            `gorm:"not null;default:false" json:"reward_paid"`
	CreatedAt           time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	Participants []GroupParticipant `gorm:"foreignKey:GroupID" json:"participants,omitempty"`
}

// TableName sets the table name.
func (Group) TableName() string {
	return "group_buys"
}

// IsFull reports whether the group has reached max capacity.
func (g *Group) IsFull() bool {
	return g.CurrentParticipants >= g.MaxParticipants
}

// IsMinimumReached reports whether the group has reached min capacity.
func (g *Group) IsMinimumReached() bool {
	return g.CurrentParticipants >= g.MinParticipants
}

// IsExpired reports whether the group is past its deadline at the given time.
func (g *Group) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// IsActive reports whether the group is still open.
func (g *Group) IsActive() bool {
	return g.Status == constants.GroupStatusActive
}

// GroupParticipant is one committed participant of a group. The leader is
// always the first row. The unique index rejects duplicate joins by the
// same customer.
type GroupParticipant struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	GroupID    uint      `gorm:"uniqueIndex:idx_group_customer;not null" json:"-"`
	CustomerID string    `gorm:"uniqueIndex:idx_group_customer;not null" json:"customer_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Quantity   int       `gorm:"not null;default:1" json:"quantity"`
	JoinedAt   time.Time `gorm:"index;not null" json:"joined_at"`
}

// TableName sets the table name.
func (GroupParticipant) TableName() string {
	return "group_participants"
}
