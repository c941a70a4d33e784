package repository

import (
	"errors"
	"time"

	"github.com/grocerly/groupbuy/internal/constants"
	"github.com/grocerly/groupbuy/internal/models"

	"gorm.io/gorm"
)

// Storage-level sentinel errors. The service layer translates these into
// domain errors once it knows the surrounding context.
var (
	// ErrDuplicateCode means the generated group code collided with an
	// existing record; the caller retries with a fresh code.
	ErrDuplicateCode = errors.New("group code already exists")
	// ErrParticipantExists means the customer already holds a participant
	// row in the group.
	ErrParticipantExists = errors.New("participant already exists")
	// ErrNoOpenSlot means the conditional slot claim matched no row: the
	// group is full, or no longer active, or does not exist.
	ErrNoOpenSlot = errors.New("no open participant slot")
	// ErrNotActive means a status transition was attempted on a group that
	// already left the active state.
	ErrNotActive = errors.New("group is not active")
	// ErrParticipantMissing means the customer has no participant row.
	ErrParticipantMissing = errors.New("participant not found")
	// ErrRewardExists means a reward was already granted for the group.
	ErrRewardExists = errors.New("reward already granted for group")
)

// CompletionUpdate carries the totals written when a group completes.
type CompletionUpdate struct {
	TotalAmount  models.Money
	Discount     models.Money
	LeaderReward models.Money
	CompletedAt  time.Time
}

// GroupLeaderStats aggregates a customer's activity as leader.
type GroupLeaderStats struct {
	TotalGroups       int64
	ActiveGroups      int64
	CompletedGroups   int64
	TotalParticipants int64
}

// GroupRepository is the group data access interface.
type GroupRepository interface {
	Create(group *models.Group) error
	GetByID(id uint) (*models.Group, error)
	GetByCode(code string) (*models.Group, error)
	AddParticipant(groupID uint, participant *models.GroupParticipant) error
	RemoveParticipant(groupID uint, customerID string) error
	MarkCompleted(groupID uint, update CompletionUpdate) error
	MarkExpired(groupID uint) error
	MarkCancelled(groupID uint) error
	ListExpiredActive(now time.Time) ([]models.Group, error)
	ListActiveForProduct(productID string, now time.Time) ([]models.Group, error)
	ListForCustomer(customerID string, offset, limit int) ([]models.Group, int64, error)
	LeaderStats(customerID string) (GroupLeaderStats, error)
	WithTx(tx *gorm.DB) *GormGroupRepository
}

// GormGroupRepository is the GORM implementation.
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a group repository.
func NewGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormGroupRepository) WithTx(tx *gorm.DB) *GormGroupRepository {
	if tx == nil {
		return r
	}
	return &GormGroupRepository{db: tx}
}

// Create inserts a new group together with its initial participant rows.
func (r *GormGroupRepository) Create(group *models.Group) error {
	if err := r.db.Create(group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

// GetByID fetches a group with its participants, joined order preserved.
func (r *GormGroupRepository) GetByID(id uint) (*models.Group, error) {
	var group models.Group
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at asc, id asc")
	}).First(&group, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// GetByCode fetches a group by its shareable code.
func (r *GormGroupRepository) GetByCode(code string) (*models.Group, error) {
	var group models.Group
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at asc, id asc")
	}).Where("code = ?", code).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// AddParticipant appends a participant and bumps the denormalized counter in
// one transaction. The counter update is a single conditional statement, so
// two concurrent joins racing for the last slot cannot both pass the
// capacity check; the unique (group_id, customer_id) index rejects duplicate
// joins the same way.
func (r *GormGroupRepository) AddParticipant(groupID uint, participant *models.GroupParticipant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.Group{}).
			Where("id = ? AND status = ? AND current_participants < max_participants",
				groupID, constants.GroupStatusActive).
			UpdateColumn("current_participants", gorm.Expr("current_participants + 1"))
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrNoOpenSlot
		}
		participant.GroupID = groupID
		if err := tx.Create(participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrParticipantExists
			}
			return err
		}
		return nil
	})
}

// RemoveParticipant deletes the participant row and decrements the counter
// in one transaction.
func (r *GormGroupRepository) RemoveParticipant(groupID uint, customerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND customer_id = ?", groupID, customerID).
			Delete(&models.GroupParticipant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrParticipantMissing
		}
		release := tx.Model(&models.Group{}).
			Where("id = ? AND status = ? AND current_participants > 0",
				groupID, constants.GroupStatusActive).
			UpdateColumn("current_participants", gorm.Expr("current_participants - 1"))
		if release.Error != nil {
			return release.Error
		}
		if release.RowsAffected == 0 {
			return ErrNotActive
		}
		return nil
	})
}

// MarkCompleted flips an active group to completed and writes the completion
// totals. The status guard makes the transition idempotent: a group that
// already left the active state is not touched. Callers that grant a reward
// run this together with the reward insert in one transaction via WithTx.
func (r *GormGroupRepository) MarkCompleted(groupID uint, update CompletionUpdate) error {
	res := r.db.Model(&models.Group{}).
		Where("id = ? AND status = ?", groupID, constants.GroupStatusActive).
		Updates(map[string]interface{}{
			"status":        constants.GroupStatusCompleted,
			"completed_at":  update.CompletedAt,
			"total_amount":  update.TotalAmount,
			"discount":      update.Discount,
			"leader_reward": update.LeaderReward,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotActive
	}
	return nil
}

// MarkExpired flips an active group to expired.
func (r *GormGroupRepository) MarkExpired(groupID uint) error {
	return r.flipStatus(groupID, constants.GroupStatusExpired)
}

// MarkCancelled flips an active group to cancelled.
func (r *GormGroupRepository) MarkCancelled(groupID uint) error {
	return r.flipStatus(groupID, constants.GroupStatusCancelled)
}

func (r *GormGroupRepository) flipStatus(groupID uint, status string) error {
	res := r.db.Model(&models.Group{}).
		Where("id = ? AND status = ?", groupID, constants.GroupStatusActive).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotActive
	}
	return nil
}

// ListExpiredActive returns all active groups past their deadline.
func (r *GormGroupRepository) ListExpiredActive(now time.Time) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at asc, id asc")
	}).
		Where("status = ? AND expires_at < ?", constants.GroupStatusActive, now).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ListActiveForProduct returns active, unexpired groups for a product.
func (r *GormGroupRepository) ListActiveForProduct(productID string, now time.Time) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at asc, id asc")
	}).
		Where("product_product_id = ? AND status = ? AND expires_at > ?",
			productID, constants.GroupStatusActive, now).
		Order("created_at desc").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ListForCustomer returns one page of groups where the customer is leader or
// participant, newest first, together with the total match count.
func (r *GormGroupRepository) ListForCustomer(customerID string, offset, limit int) ([]models.Group, int64, error) {
	member := r.db.Model(&models.GroupParticipant{}).
		Select("group_id").
		Where("customer_id = ?", customerID)
	base := r.db.Model(&models.Group{}).
		Where("leader_customer_id = ? OR id IN (?)", customerID, member)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var groups []models.Group
	query := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at asc, id asc")
	}).
		Where("leader_customer_id = ? OR id IN (?)", customerID, member).
		Order("created_at desc")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&groups).Error; err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// LeaderStats aggregates group counts for a customer as leader.
func (r *GormGroupRepository) LeaderStats(customerID string) (GroupLeaderStats, error) {
	var stats GroupLeaderStats
	base := func() *gorm.DB {
		return r.db.Model(&models.Group{}).Where("leader_customer_id = ?", customerID)
	}
	if err := base().Count(&stats.TotalGroups).Error; err != nil {
		return stats, err
	}
	if err := base().Where("status = ?", constants.GroupStatusActive).
		Count(&stats.ActiveGroups).Error; err != nil {
		return stats, err
	}
	if err := base().Where("status = ?", constants.GroupStatusCompleted).
		Count(&stats.CompletedGroups).Error; err != nil {
		return stats, err
	}
	var total struct {
		Total int64
	}
	if err := base().Select("COALESCE(SUM(current_participants), 0) AS total").
		Scan(&total).Error; err != nil {
		return stats, err
	}
	stats.TotalParticipants = total.Total
	return stats, nil
}
