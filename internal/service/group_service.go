package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/grocerly/groupbuy/internal/cache"
	"github.com/grocerly/groupbuy/internal/constants"
	"github.com/grocerly/groupbuy/internal/logger"
	"github.com/grocerly/groupbuy/internal/metrics"
	"github.com/grocerly/groupbuy/internal/models"
	"github.com/grocerly/groupbuy/internal/queue"
	"github.com/grocerly/groupbuy/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	groupCodeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	productGroupsTTL    = 30 * time.Second
	productGroupsPrefix = "product_groups"
)

var leaderRewardRate = decimal.NewFromInt(constants.LeaderRewardRatePercent).Div(decimal.NewFromInt(100))

// GroupService implements the group-buying lifecycle.
type GroupService struct {
	groupRepo   repository.GroupRepository
	rewardRepo  repository.RewardRepository
	queueClient *queue.Client
}

// NewGroupService creates the group service.
func NewGroupService(groupRepo repository.GroupRepository, rewardRepo repository.RewardRepository, queueClient *queue.Client) *GroupService {
	return &GroupService{
		groupRepo:   groupRepo,
		rewardRepo:  rewardRepo,
		queueClient: queueClient,
	}
}

// CustomerInfo identifies the acting customer, taken from the verified token.
type CustomerInfo struct {
	CustomerID string
	Name       string
	Phone      string
}

// ProductInput is the product snapshot supplied at group creation.
type ProductInput struct {
	ProductID    string       `json:"product_id" binding:"required"`
	Name         string       `json:"name" binding:"required"`
	Banner       string       `json:"banner"`
	RegularPrice models.Money `json:"regular_price"`
	GroupPrice   models.Money `json:"group_price"`
	Weight       string       `json:"weight"`
	Category     string       `json:"category"`
}

// DeliveryAddressInput is the delivery address supplied at group creation.
type DeliveryAddressInput struct {
	Type            string  `json:"type"`
	CompleteAddress string  `json:"complete_address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

// CreateGroupInput carries the create request.
type CreateGroupInput struct {
	Product         ProductInput         `json:"product" binding:"required"`
	MinParticipants int                  `json:"min_participants"`
	MaxParticipants int                  `json:"max_participants"`
	DurationHours   int                  `json:"duration_hours"`
	Quantity        int                  `json:"quantity"`
	DeliveryAddress DeliveryAddressInput `json:"delivery_address"`
}

// ExpireSweepResult summarizes one sweep over past-due groups.
type ExpireSweepResult struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Expired   int `json:"expired"`
}

// LeaderStatsResult aggregates a customer's leader activity and rewards.
type LeaderStatsResult struct {
	TotalGroups       int64        `json:"total_groups"`
	ActiveGroups      int64        `json:"active_groups"`
	CompletedGroups   int64        `json:"completed_groups"`
	TotalParticipants int64        `json:"total_participants"`
	PaidRewards       models.Money `json:"paid_rewards"`
	PendingRewards    models.Money `json:"pending_rewards"`
}

// Create opens a new group. The leader becomes participant #1 and a delayed
// expiry task is scheduled for the group's deadline.
func (s *GroupService) Create(leader CustomerInfo, input CreateGroupInput) (*models.Group, error) {
	if strings.TrimSpace(leader.CustomerID) == "" {
		return nil, ErrGroupInvalid
	}
	if strings.TrimSpace(input.Product.ProductID) == "" || strings.TrimSpace(input.Product.Name) == "" {
		return nil, ErrGroupInvalid
	}

	minParticipants := input.MinParticipants
	if minParticipants == 0 {
		minParticipants = constants.DefaultMinParticipants
	}
	maxParticipants := input.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = constants.DefaultMaxParticipants
	}
	durationHours := input.DurationHours
	if durationHours == 0 {
		durationHours = constants.DefaultDurationHours
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = constants.DefaultJoinQuantity
	}

	if minParticipants < 2 || maxParticipants < minParticipants || durationHours < 0 || quantity < 1 {
		return nil, ErrGroupInvalid
	}
	if input.Product.GroupPrice.Decimal.LessThanOrEqual(decimal.Zero) ||
		input.Product.RegularPrice.Decimal.LessThan(input.Product.GroupPrice.Decimal) {
		return nil, ErrGroupInvalid
	}
	addressType, err := normalizeAddressType(input.DeliveryAddress.Type)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(durationHours) * time.Hour)

	group := &models.Group{
		Leader: models.LeaderSnapshot{
			CustomerID: leader.CustomerID,
			Name:       leader.Name,
			Phone:      leader.Phone,
		},
		Product: models.ProductSnapshot{
			ProductID:    input.Product.ProductID,
			Name:         input.Product.Name,
			Banner:       input.Product.Banner,
			RegularPrice: input.Product.RegularPrice,
			GroupPrice:   input.Product.GroupPrice,
			Weight:       input.Product.Weight,
			Category:     input.Product.Category,
		},
		MinParticipants:     minParticipants,
		MaxParticipants:     maxParticipants,
		CurrentParticipants: 1,
		Status:              constants.GroupStatusActive,
		ExpiresAt:           expiresAt,
		DeliveryAddress: models.DeliveryAddress{
			Type:            addressType,
			CompleteAddress: input.DeliveryAddress.CompleteAddress,
			Latitude:        input.DeliveryAddress.Latitude,
			Longitude:       input.DeliveryAddress.Longitude,
		},
		Participants: []models.GroupParticipant{{
			CustomerID: leader.CustomerID,
			Name:       leader.Name,
			Phone:      leader.Phone,
			Quantity:   quantity,
			JoinedAt:   now,
		}},
	}

	created := false
	for attempt := 0; attempt < constants.GroupCodeMaxAttempts; attempt++ {
		code, err := generateGroupCode()
		if err != nil {
			return nil, ErrGroupCodeGenerate
		}
		group.Code = code
		err = s.groupRepo.Create(group)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return nil, err
	}
	if !created {
		return nil, ErrGroupCodeGenerate
	}

	if err := s.queueClient.EnqueueGroupExpire(queue.GroupExpirePayload{GroupID: group.ID}, time.Until(expiresAt)); err != nil {
		// The sweep endpoint picks up past-due groups, so a failed enqueue
		// only delays expiry.
		logger.Warnw("group_enqueue_expire_failed",
			"group_id", group.ID,
			"group_code", group.Code,
			"error", err,
		)
	}

	metrics.GroupsCreatedTotal.Inc()
	s.invalidateProductCache(group.Product.ProductID)
	logger.Infow("group_created",
		"group_id", group.ID,
		"group_code", group.Code,
		"product_id", group.Product.ProductID,
		"leader_id", group.Leader.CustomerID,
		"expires_at", expiresAt,
	)
	return group, nil
}

// GetByCode returns a group with its participants.
func (s *GroupService) GetByCode(code string) (*models.Group, error) {
	group, err := s.groupRepo.GetByCode(strings.TrimSpace(strings.ToUpper(code)))
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Join adds the customer to the group. Past-due groups are settled on the
// spot before the join is rejected; filling the last slot completes the
// group immediately.
func (s *GroupService) Join(code string, customer CustomerInfo, quantity int) (*models.Group, error) {
	group, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if group.Status != constants.GroupStatusActive {
		return nil, ErrGroupNotActive
	}
	now := time.Now()
	if group.IsExpired(now) {
		if err := s.settleDueGroup(group); err != nil && !errors.Is(err, ErrGroupNotActive) {
			return nil, err
		}
		return nil, ErrGroupExpired
	}

	if quantity == 0 {
		quantity = constants.DefaultJoinQuantity
	}
	if quantity < 1 {
		return nil, ErrGroupInvalid
	}

	participant := &models.GroupParticipant{
		CustomerID: customer.CustomerID,
		Name:       customer.Name,
		Phone:      customer.Phone,
		Quantity:   quantity,
		JoinedAt:   now,
	}
	if err := s.groupRepo.AddParticipant(group.ID, participant); err != nil {
		switch {
		case errors.Is(err, repository.ErrParticipantExists):
			return nil, ErrAlreadyJoined
		case errors.Is(err, repository.ErrNoOpenSlot):
			return nil, s.classifyClosedSlot(group.ID)
		default:
			return nil, err
		}
	}

	metrics.GroupJoinsTotal.Inc()
	s.invalidateProductCache(group.Product.ProductID)

	joined, err := s.groupRepo.GetByID(group.ID)
	if err != nil {
		return nil, err
	}
	if joined == nil {
		return nil, ErrGroupNotFound
	}
	logger.Infow("group_joined",
		"group_id", joined.ID,
		"group_code", joined.Code,
		"customer_id", customer.CustomerID,
		"participants", joined.CurrentParticipants,
	)

	if joined.IsFull() && joined.IsMinimumReached() {
		if err := s.complete(joined); err != nil && !errors.Is(err, ErrGroupNotActive) {
			return nil, err
		}
		return s.groupRepo.GetByID(joined.ID)
	}
	return joined, nil
}

// classifyClosedSlot re-reads the group to turn a failed slot claim into the
// precise domain error.
func (s *GroupService) classifyClosedSlot(groupID uint) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if group.Status != constants.GroupStatusActive {
		return ErrGroupNotActive
	}
	if group.IsFull() {
		return ErrGroupFull
	}
	return ErrGroupNotActive
}

// Leave removes a non-leader participant from an active group.
func (s *GroupService) Leave(groupID uint, customerID string) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.Status != constants.GroupStatusActive {
		return nil, ErrGroupNotActive
	}
	if group.Leader.CustomerID == customerID {
		return nil, ErrLeaderCannotLeave
	}
	if err := s.groupRepo.RemoveParticipant(groupID, customerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrParticipantMissing):
			return nil, ErrNotParticipant
		case errors.Is(err, repository.ErrNotActive):
			return nil, ErrGroupNotActive
		default:
			return nil, err
		}
	}
	s.invalidateProductCache(group.Product.ProductID)
	logger.Infow("group_left",
		"group_id", groupID,
		"customer_id", customerID,
	)
	return s.groupRepo.GetByID(groupID)
}

// Cancel lets the leader close an active group without reward.
func (s *GroupService) Cancel(groupID uint, customerID string) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.Leader.CustomerID != customerID {
		return nil, ErrNotLeader
	}
	if err := s.groupRepo.MarkCancelled(groupID); err != nil {
		if errors.Is(err, repository.ErrNotActive) {
			return nil, ErrGroupNotActive
		}
		return nil, err
	}
	metrics.GroupsCancelledTotal.Inc()
	s.invalidateProductCache(group.Product.ProductID)
	logger.Infow("group_cancelled",
		"group_id", groupID,
		"group_code", group.Code,
		"leader_id", customerID,
	)
	return s.groupRepo.GetByID(groupID)
}

// Complete lets the leader settle an active group early once the minimum is
// reached.
func (s *GroupService) Complete(groupID uint, customerID string) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.Leader.CustomerID != customerID {
		return nil, ErrNotLeader
	}
	if group.Status != constants.GroupStatusActive {
		return nil, ErrGroupNotActive
	}
	if !group.IsMinimumReached() {
		return nil, ErrMinParticipantsNotReached
	}
	if err := s.complete(group); err != nil {
		return nil, err
	}
	return s.groupRepo.GetByID(groupID)
}

// complete computes the totals from the participant rows, flips the status,
// and grants the leader reward in the same transaction.
func (s *GroupService) complete(group *models.Group) error {
	totalAmount := decimal.Zero
	discount := decimal.Zero
	for _, p := range group.Participants {
		qty := decimal.NewFromInt(int64(p.Quantity))
		totalAmount = totalAmount.Add(qty.Mul(group.Product.GroupPrice.Decimal))
		discount = discount.Add(qty.Mul(group.Product.RegularPrice.Decimal.Sub(group.Product.GroupPrice.Decimal)))
	}
	rewardAmount := discount.Mul(leaderRewardRate)

	// No reward row when there is nothing to pay out (group price equal to
	// the regular price yields a zero discount).
	var reward *models.Reward
	if rewardAmount.IsPositive() {
		reward = &models.Reward{
			CustomerID: group.Leader.CustomerID,
			GroupCode:  group.Code,
			Type:       constants.RewardTypeGroupLeader,
			Amount:     models.NewMoneyFromDecimal(rewardAmount),
			Status:     constants.RewardStatusPending,
			Metrics: models.RewardMetrics{
				Participants: group.CurrentParticipants,
				TotalAmount:  models.NewMoneyFromDecimal(totalAmount),
				ProductName:  group.Product.Name,
				Discount:     models.NewMoneyFromDecimal(discount),
			},
		}
	}

	update := repository.CompletionUpdate{
		TotalAmount:  models.NewMoneyFromDecimal(totalAmount),
		Discount:     models.NewMoneyFromDecimal(discount),
		LeaderReward: models.NewMoneyFromDecimal(rewardAmount),
		CompletedAt:  time.Now(),
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.groupRepo.WithTx(tx).MarkCompleted(group.ID, update); err != nil {
			return err
		}
		if reward != nil {
			reward.GroupID = group.ID
			if err := s.rewardRepo.WithTx(tx).Create(reward); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// A lost completion race surfaces as either error depending on which
		// statement ran first; both mean the group is already settled.
		if errors.Is(err, repository.ErrNotActive) || errors.Is(err, repository.ErrRewardExists) {
			return ErrGroupNotActive
		}
		return err
	}

	metrics.GroupsCompletedTotal.Inc()
	s.invalidateProductCache(group.Product.ProductID)

	if reward != nil {
		metrics.RewardsGrantedTotal.Inc()
		if err := s.queueClient.EnqueueRewardApprove(queue.RewardApprovePayload{RewardID: reward.ID}); err != nil {
			logger.Warnw("reward_enqueue_approve_failed",
				"reward_id", reward.ID,
				"group_id", group.ID,
				"error", err,
			)
		}
	}
	logger.Infow("group_completed",
		"group_id", group.ID,
		"group_code", group.Code,
		"participants", group.CurrentParticipants,
		"total_amount", update.TotalAmount.String(),
		"leader_reward", update.LeaderReward.String(),
	)
	return nil
}

// settleDueGroup applies the expiry outcome to a past-due group: completed
// when the minimum was reached, expired otherwise.
func (s *GroupService) settleDueGroup(group *models.Group) error {
	if group.IsMinimumReached() {
		return s.complete(group)
	}
	if err := s.groupRepo.MarkExpired(group.ID); err != nil {
		if errors.Is(err, repository.ErrNotActive) {
			return ErrGroupNotActive
		}
		return err
	}
	metrics.GroupsExpiredTotal.Inc()
	s.invalidateProductCache(group.Product.ProductID)
	logger.Infow("group_expired",
		"group_id", group.ID,
		"group_code", group.Code,
		"participants", group.CurrentParticipants,
	)
	return nil
}

// ProcessExpired sweeps every past-due active group. Safe to re-run: groups
// already settled are skipped by the guarded status flips.
func (s *GroupService) ProcessExpired(now time.Time) (*ExpireSweepResult, error) {
	groups, err := s.groupRepo.ListExpiredActive(now)
	if err != nil {
		return nil, err
	}
	result := &ExpireSweepResult{Processed: len(groups)}
	for i := range groups {
		group := &groups[i]
		wasComplete := group.IsMinimumReached()
		if err := s.settleDueGroup(group); err != nil {
			if errors.Is(err, ErrGroupNotActive) {
				continue
			}
			logger.Errorw("group_sweep_settle_failed",
				"group_id", group.ID,
				"group_code", group.Code,
				"error", err,
			)
			continue
		}
		if wasComplete {
			result.Completed++
		} else {
			result.Expired++
		}
	}
	return result, nil
}

// ExpireDue settles a single group if its deadline has passed. Used by the
// queue worker; early or repeated deliveries are no-ops.
func (s *GroupService) ExpireDue(groupID uint) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return err
	}
	if group == nil || group.Status != constants.GroupStatusActive {
		return nil
	}
	if !group.IsExpired(time.Now()) {
		return nil
	}
	if err := s.settleDueGroup(group); err != nil && !errors.Is(err, ErrGroupNotActive) {
		return err
	}
	return nil
}

// ListActiveForProduct returns joinable groups for a product, served from a
// short-lived cache.
func (s *GroupService) ListActiveForProduct(ctx context.Context, productID string) ([]models.Group, error) {
	cacheKey := productGroupsKey(productID)
	var cached []models.Group
	hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
	if cacheErr == nil && hit {
		return cached, nil
	}

	groups, err := s.groupRepo.ListActiveForProduct(productID, time.Now())
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(ctx, cacheKey, groups, productGroupsTTL)
	return groups, nil
}

// ListForCustomer returns one page of the customer's groups as leader or
// participant, with the total match count.
func (s *GroupService) ListForCustomer(customerID string, page, pageSize int) ([]models.Group, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	return s.groupRepo.ListForCustomer(customerID, (page-1)*pageSize, pageSize)
}

// LeaderStats aggregates group counts and reward totals for the customer.
func (s *GroupService) LeaderStats(customerID string) (*LeaderStatsResult, error) {
	stats, err := s.groupRepo.LeaderStats(customerID)
	if err != nil {
		return nil, err
	}
	totals, err := s.rewardRepo.SumByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	return &LeaderStatsResult{
		TotalGroups:       stats.TotalGroups,
		ActiveGroups:      stats.ActiveGroups,
		CompletedGroups:   stats.CompletedGroups,
		TotalParticipants: stats.TotalParticipants,
		PaidRewards:       totals.Paid,
		PendingRewards:    totals.Pending,
	}, nil
}

// ListRewards returns the customer's reward ledger entries, newest first.
func (s *GroupService) ListRewards(customerID string) ([]models.Reward, error) {
	return s.rewardRepo.ListByCustomer(customerID)
}

// ApproveReward moves a pending reward to approved. Repeated deliveries are
// no-ops.
func (s *GroupService) ApproveReward(rewardID uint) error {
	affected, err := s.rewardRepo.Approve(rewardID)
	if err != nil {
		return err
	}
	if affected > 0 {
		logger.Infow("reward_approved", "reward_id", rewardID)
	}
	return nil
}

func (s *GroupService) invalidateProductCache(productID string) {
	_ = cache.Del(context.Background(), productGroupsKey(productID))
}

func productGroupsKey(productID string) string {
	return fmt.Sprintf("%s:%s", productGroupsPrefix, productID)
}

func normalizeAddressType(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return constants.AddressTypeHome, nil
	}
	switch trimmed {
	case constants.AddressTypeHome, constants.AddressTypeHotel,
		constants.AddressTypeOffice, constants.AddressTypeOther,
		constants.AddressTypeCustom:
		return trimmed, nil
	default:
		return "", ErrGroupInvalid
	}
}

func generateGroupCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(groupCodeAlphabet)))
	for i := 0; i < constants.GroupCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(groupCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
