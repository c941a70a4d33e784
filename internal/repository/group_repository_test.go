package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/grocerly/groupbuy/internal/constants"
	"github.com/grocerly/groupbuy/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupGroupRepoDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Group{}, &models.GroupParticipant{}, &models.Reward{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestGroup(code string, min, max int, expiresAt time.Time) *models.Group {
	now := time.Now()
	return &models.Group{
		Code: code,
		Leader: models.LeaderSnapshot{
			CustomerID: "cust-leader",
			Name:       "Leader",
			Phone:      "0700000001",
		},
		Product: models.ProductSnapshot{
			ProductID:    "prod-1",
			Name:         "Basmati Rice 5kg",
			RegularPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			GroupPrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(8)),
		},
		MinParticipants:     min,
		MaxParticipants:     max,
		CurrentParticipants: 1,
		Status:              constants.GroupStatusActive,
		ExpiresAt:           expiresAt,
		Participants: []models.GroupParticipant{{
			CustomerID: "cust-leader",
			Name:       "Leader",
			Phone:      "0700000001",
			Quantity:   1,
			JoinedAt:   now,
		}},
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_dup_code")
	repo := NewGroupRepository(db)

	first := newTestGroup("AAAA1111", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first group failed: %v", err)
	}

	second := newTestGroup("AAAA1111", 2, 5, time.Now().Add(time.Hour))
	second.Leader.CustomerID = "cust-other"
	second.Participants[0].CustomerID = "cust-other"
	err := repo.Create(second)
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestAddParticipantIncrementsCounter(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_add")
	repo := NewGroupRepository(db)

	group := newTestGroup("BBBB2222", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}

	err := repo.AddParticipant(group.ID, &models.GroupParticipant{
		CustomerID: "cust-2",
		Name:       "Second",
		Quantity:   2,
		JoinedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("add participant failed: %v", err)
	}

	got, err := repo.GetByID(group.ID)
	if err != nil {
		t.Fatalf("get group failed: %v", err)
	}
	if got.CurrentParticipants != 2 {
		t.Fatalf("expected 2 participants, got %d", got.CurrentParticipants)
	}
	if len(got.Participants) != 2 {
		t.Fatalf("expected 2 participant rows, got %d", len(got.Participants))
	}
	if got.CurrentParticipants != len(got.Participants) {
		t.Fatalf("counter out of sync: %d vs %d", got.CurrentParticipants, len(got.Participants))
	}
}

func TestAddParticipantDuplicate(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_add_dup")
	repo := NewGroupRepository(db)

	group := newTestGroup("CCCC3333", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}

	err := repo.AddParticipant(group.ID, &models.GroupParticipant{
		CustomerID: "cust-leader",
		Quantity:   1,
		JoinedAt:   time.Now(),
	})
	if !errors.Is(err, ErrParticipantExists) {
		t.Fatalf("expected ErrParticipantExists, got %v", err)
	}

	// The failed insert must roll back the claimed slot.
	got, err := repo.GetByID(group.ID)
	if err != nil {
		t.Fatalf("get group failed: %v", err)
	}
	if got.CurrentParticipants != 1 {
		t.Fatalf("duplicate join must not change counter, got %d", got.CurrentParticipants)
	}
}

func TestAddParticipantFull(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_add_full")
	repo := NewGroupRepository(db)

	group := newTestGroup("DDDD4444", 2, 2, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	if err := repo.AddParticipant(group.ID, &models.GroupParticipant{
		CustomerID: "cust-2", Quantity: 1, JoinedAt: time.Now(),
	}); err != nil {
		t.Fatalf("add second participant failed: %v", err)
	}

	err := repo.AddParticipant(group.ID, &models.GroupParticipant{
		CustomerID: "cust-3", Quantity: 1, JoinedAt: time.Now(),
	})
	if !errors.Is(err, ErrNoOpenSlot) {
		t.Fatalf("expected ErrNoOpenSlot, got %v", err)
	}
}

func TestAddParticipantNotActive(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_add_inactive")
	repo := NewGroupRepository(db)

	group := newTestGroup("EEEE5555", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	if err := repo.MarkCancelled(group.ID); err != nil {
		t.Fatalf("cancel group failed: %v", err)
	}

	err := repo.AddParticipant(group.ID, &models.GroupParticipant{
		CustomerID: "cust-2", Quantity: 1, JoinedAt: time.Now(),
	})
	if !errors.Is(err, ErrNoOpenSlot) {
		t.Fatalf("expected ErrNoOpenSlot, got %v", err)
	}
}

func TestRemoveParticipant(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_remove")
	repo := NewGroupRepository(db)

	group := newTestGroup("FFFF6666", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	if err := repo.AddParticipant(group.ID, &models.GroupParticipant{
		CustomerID: "cust-2", Quantity: 1, JoinedAt: time.Now(),
	}); err != nil {
		t.Fatalf("add participant failed: %v", err)
	}

	if err := repo.RemoveParticipant(group.ID, "cust-2"); err != nil {
		t.Fatalf("remove participant failed: %v", err)
	}
	got, err := repo.GetByID(group.ID)
	if err != nil {
		t.Fatalf("get group failed: %v", err)
	}
	if got.CurrentParticipants != 1 || len(got.Participants) != 1 {
		t.Fatalf("expected 1 participant after leave, got %d/%d",
			got.CurrentParticipants, len(got.Participants))
	}

	err = repo.RemoveParticipant(group.ID, "cust-2")
	if !errors.Is(err, ErrParticipantMissing) {
		t.Fatalf("expected ErrParticipantMissing, got %v", err)
	}
}

func TestMarkCompletedIdempotent(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_complete")
	repo := NewGroupRepository(db)

	group := newTestGroup("GGGG7777", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}

	update := CompletionUpdate{
		TotalAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(16)),
		Discount:     models.NewMoneyFromDecimal(decimal.NewFromInt(4)),
		LeaderReward: models.NewMoneyFromDecimal(decimal.RequireFromString("0.20")),
		CompletedAt:  time.Now(),
	}
	if err := repo.MarkCompleted(group.ID, update); err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}

	got, err := repo.GetByID(group.ID)
	if err != nil {
		t.Fatalf("get group failed: %v", err)
	}
	if got.Status != constants.GroupStatusCompleted {
		t.Fatalf("expected completed status, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
	if !got.TotalAmount.Decimal.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("unexpected total amount: %s", got.TotalAmount.String())
	}

	// Second transition must be a no-op.
	err = repo.MarkCompleted(group.ID, update)
	if !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestCompletionTransactionRollsBack(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_complete_tx")
	groupRepo := NewGroupRepository(db)
	rewardRepo := NewRewardRepository(db)

	group := newTestGroup("PPPP6666", 2, 5, time.Now().Add(time.Hour))
	if err := groupRepo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	if err := rewardRepo.Create(&models.Reward{
		CustomerID: "cust-leader",
		GroupID:    group.ID,
		GroupCode:  group.Code,
		Type:       constants.RewardTypeGroupLeader,
		Amount:     models.NewMoneyFromDecimal(decimal.RequireFromString("0.20")),
		Status:     constants.RewardStatusPending,
	}); err != nil {
		t.Fatalf("seed reward failed: %v", err)
	}

	update := CompletionUpdate{
		TotalAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(16)),
		Discount:     models.NewMoneyFromDecimal(decimal.NewFromInt(4)),
		LeaderReward: models.NewMoneyFromDecimal(decimal.RequireFromString("0.20")),
		CompletedAt:  time.Now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := groupRepo.WithTx(tx).MarkCompleted(group.ID, update); err != nil {
			return err
		}
		return rewardRepo.WithTx(tx).Create(&models.Reward{
			CustomerID: "cust-leader",
			GroupID:    group.ID,
			GroupCode:  group.Code,
			Type:       constants.RewardTypeGroupLeader,
			Amount:     update.LeaderReward,
			Status:     constants.RewardStatusPending,
		})
	})
	if !errors.Is(err, ErrRewardExists) {
		t.Fatalf("expected ErrRewardExists, got %v", err)
	}

	// The failed reward insert must roll back the status flip.
	got, err := groupRepo.GetByID(group.ID)
	if err != nil {
		t.Fatalf("get group failed: %v", err)
	}
	if got.Status != constants.GroupStatusActive {
		t.Fatalf("expected active status after rollback, got %s", got.Status)
	}
}

func TestStatusFlipGuards(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_flips")
	repo := NewGroupRepository(db)

	group := newTestGroup("HHHH8888", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group failed: %v", err)
	}

	if err := repo.MarkExpired(group.ID); err != nil {
		t.Fatalf("mark expired failed: %v", err)
	}
	if err := repo.MarkCancelled(group.ID); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive on second flip, got %v", err)
	}
	if err := repo.MarkExpired(group.ID); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive on repeat expire, got %v", err)
	}
}

func TestListExpiredActive(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_list_expired")
	repo := NewGroupRepository(db)

	now := time.Now()
	due := newTestGroup("IIII9999", 2, 5, now.Add(-time.Hour))
	if err := repo.Create(due); err != nil {
		t.Fatalf("create due group failed: %v", err)
	}
	fresh := newTestGroup("JJJJ0000", 2, 5, now.Add(time.Hour))
	fresh.Leader.CustomerID = "cust-fresh"
	fresh.Participants[0].CustomerID = "cust-fresh"
	if err := repo.Create(fresh); err != nil {
		t.Fatalf("create fresh group failed: %v", err)
	}

	groups, err := repo.ListExpiredActive(now)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(groups) != 1 || groups[0].Code != "IIII9999" {
		t.Fatalf("expected only the due group, got %+v", groups)
	}
}

func TestListForCustomer(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_list_customer")
	repo := NewGroupRepository(db)

	led := newTestGroup("KKKK1111", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(led); err != nil {
		t.Fatalf("create led group failed: %v", err)
	}

	joined := newTestGroup("LLLL2222", 2, 5, time.Now().Add(time.Hour))
	joined.Leader.CustomerID = "cust-other"
	joined.Participants[0].CustomerID = "cust-other"
	if err := repo.Create(joined); err != nil {
		t.Fatalf("create joined group failed: %v", err)
	}
	if err := repo.AddParticipant(joined.ID, &models.GroupParticipant{
		CustomerID: "cust-leader", Quantity: 1, JoinedAt: time.Now(),
	}); err != nil {
		t.Fatalf("add participant failed: %v", err)
	}

	unrelated := newTestGroup("MMMM3333", 2, 5, time.Now().Add(time.Hour))
	unrelated.Leader.CustomerID = "cust-stranger"
	unrelated.Participants[0].CustomerID = "cust-stranger"
	if err := repo.Create(unrelated); err != nil {
		t.Fatalf("create unrelated group failed: %v", err)
	}

	groups, total, err := repo.ListForCustomer("cust-leader", 0, 10)
	if err != nil {
		t.Fatalf("list for customer failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.Code == "MMMM3333" {
			t.Fatalf("unrelated group must not be listed")
		}
	}

	// Paging keeps the total while limiting the page.
	page, total, err := repo.ListForCustomer("cust-leader", 0, 1)
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if total != 2 || len(page) != 1 {
		t.Fatalf("expected total 2 with 1 row, got %d/%d", total, len(page))
	}
}

func TestLeaderStats(t *testing.T) {
	db := setupGroupRepoDB(t, "group_repo_leader_stats")
	repo := NewGroupRepository(db)

	active := newTestGroup("NNNN4444", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(active); err != nil {
		t.Fatalf("create active group failed: %v", err)
	}
	if err := repo.AddParticipant(active.ID, &models.GroupParticipant{
		CustomerID: "cust-2", Quantity: 1, JoinedAt: time.Now(),
	}); err != nil {
		t.Fatalf("add participant failed: %v", err)
	}

	done := newTestGroup("OOOO5555", 2, 5, time.Now().Add(time.Hour))
	if err := repo.Create(done); err != nil {
		t.Fatalf("create done group failed: %v", err)
	}
	if err := repo.MarkCompleted(done.ID, CompletionUpdate{
		TotalAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(8)),
		Discount:     models.NewMoneyFromDecimal(decimal.NewFromInt(2)),
		LeaderReward: models.NewMoneyFromDecimal(decimal.RequireFromString("0.10")),
		CompletedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("complete group failed: %v", err)
	}

	stats, err := repo.LeaderStats("cust-leader")
	if err != nil {
		t.Fatalf("leader stats failed: %v", err)
	}
	if stats.TotalGroups != 2 {
		t.Fatalf("expected 2 total groups, got %d", stats.TotalGroups)
	}
	if stats.ActiveGroups != 1 {
		t.Fatalf("expected 1 active group, got %d", stats.ActiveGroups)
	}
	if stats.CompletedGroups != 1 {
		t.Fatalf("expected 1 completed group, got %d", stats.CompletedGroups)
	}
	if stats.TotalParticipants != 3 {
		t.Fatalf("expected 3 participants across groups, got %d", stats.TotalParticipants)
	}
}
