package repository

import (
	"errors"

	"github.com/grocerly/groupbuy/internal/constants"
	"github.com/grocerly/groupbuy/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RewardTotals sums a customer's reward amounts by payout state. Pending
// covers everything not yet paid out, including approved rewards.
type RewardTotals struct {
	Paid    models.Money
	Pending models.Money
}

// RewardRepository is the reward ledger data access interface.
type RewardRepository interface {
	Create(reward *models.Reward) error
	GetByGroupID(groupID uint) (*models.Reward, error)
	ListByCustomer(customerID string) ([]models.Reward, error)
	SumByCustomer(customerID string) (RewardTotals, error)
	Approve(id uint) (int64, error)
	WithTx(tx *gorm.DB) *GormRewardRepository
}

// GormRewardRepository is the GORM implementation.
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a reward repository.
func NewRewardRepository(db *gorm.DB) *GormRewardRepository {
	return &GormRewardRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRewardRepository) WithTx(tx *gorm.DB) *GormRewardRepository {
	if tx == nil {
		return r
	}
	return &GormRewardRepository{db: tx}
}

// Create appends a reward. The unique index on group_id keeps the ledger at
// one reward per group.
func (r *GormRewardRepository) Create(reward *models.Reward) error {
	if err := r.db.Create(reward).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRewardExists
		}
		return err
	}
	return nil
}

// GetByGroupID fetches the reward granted for a group, nil when none exists.
func (r *GormRewardRepository) GetByGroupID(groupID uint) (*models.Reward, error) {
	var reward models.Reward
	err := r.db.Where("group_id = ?", groupID).First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// ListByCustomer returns a customer's rewards, newest first.
func (r *GormRewardRepository) ListByCustomer(customerID string) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&rewards).Error
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// SumByCustomer totals reward amounts grouped by payout state.
func (r *GormRewardRepository) SumByCustomer(customerID string) (RewardTotals, error) {
	var rows []struct {
		Status string
		Total  decimal.Decimal
	}
	err := r.db.Model(&models.Reward{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("customer_id = ?", customerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return RewardTotals{}, err
	}
	paid := decimal.Zero
	pending := decimal.Zero
	for _, row := range rows {
		switch row.Status {
		case constants.RewardStatusPaid:
			paid = paid.Add(row.Total)
		case constants.RewardStatusPending, constants.RewardStatusApproved:
			pending = pending.Add(row.Total)
		}
	}
	return RewardTotals{
		Paid:    models.NewMoneyFromDecimal(paid),
		Pending: models.NewMoneyFromDecimal(pending),
	}, nil
}

// Approve moves a pending reward to approved. Returns the number of rows
// changed; zero means the reward was missing or already processed.
func (r *GormRewardRepository) Approve(id uint) (int64, error) {
	res := r.db.Model(&models.Reward{}).
		Where("id = ? AND status = ?", id, constants.RewardStatusPending).
		Update("status", constants.RewardStatusApproved)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
