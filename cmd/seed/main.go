package main

import (
	"time"

	"github.com/grocerly/groupbuy/internal/config"
	"github.com/grocerly/groupbuy/internal/constants"
	"github.com/grocerly/groupbuy/internal/logger"
	"github.com/grocerly/groupbuy/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("failed to initialize database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("failed to migrate database: %v", err)
	}

	now := time.Now()
	groups := []models.Group{
		{
			Code: "DEMO0001",
			Leader: models.LeaderSnapshot{
				CustomerID: "demo-leader-1",
				Name:       "Asha Patel",
				Phone:      "0700000001",
			},
			Product: models.ProductSnapshot{
				ProductID:    "demo-prod-rice",
				Name:         "Basmati Rice 5kg",
				RegularPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("12.50")),
				GroupPrice:   models.NewMoneyFromDecimal(decimal.RequireFromString("9.80")),
				Weight:       "5kg",
				Category:     "staples",
			},
			MinParticipants:     3,
			MaxParticipants:     10,
			CurrentParticipants: 1,
			Status:              constants.GroupStatusActive,
			ExpiresAt:           now.Add(48 * time.Hour),
			DeliveryAddress: models.DeliveryAddress{
				Type:            constants.AddressTypeHome,
				CompleteAddress: "12 Market Street, Riverside",
			},
			Participants: []models.GroupParticipant{{
				CustomerID: "demo-leader-1",
				Name:       "Asha Patel",
				Phone:      "0700000001",
				Quantity:   1,
				JoinedAt:   now,
			}},
		},
		{
			Code: "DEMO0002",
			Leader: models.LeaderSnapshot{
				CustomerID: "demo-leader-2",
				Name:       "Brian Ochieng",
				Phone:      "0700000002",
			},
			Product: models.ProductSnapshot{
				ProductID:    "demo-prod-oil",
				Name:         "Sunflower Oil 2L",
				RegularPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("7.20")),
				GroupPrice:   models.NewMoneyFromDecimal(decimal.RequireFromString("5.90")),
				Weight:       "2L",
				Category:     "staples",
			},
			MinParticipants:     constants.DefaultMinParticipants,
			MaxParticipants:     constants.DefaultMaxParticipants,
			CurrentParticipants: 1,
			Status:              constants.GroupStatusActive,
			ExpiresAt:           now.Add(time.Duration(constants.DefaultDurationHours) * time.Hour),
			DeliveryAddress: models.DeliveryAddress{
				Type:            constants.AddressTypeOffice,
				CompleteAddress: "Unit 4, Greenfield Business Park",
			},
			Participants: []models.GroupParticipant{{
				CustomerID: "demo-leader-2",
				Name:       "Brian Ochieng",
				Phone:      "0700000002",
				Quantity:   2,
				JoinedAt:   now,
			}},
		},
	}

	for i := range groups {
		group := &groups[i]
		var existing models.Group
		if err := models.DB.Where("code = ?", group.Code).First(&existing).Error; err == nil {
			stdLog.Printf("group already exists: %s", group.Code)
			continue
		}
		if err := models.DB.Create(group).Error; err != nil {
			stdLog.Printf("failed to create group %s: %v", group.Code, err)
			continue
		}
		stdLog.Printf("created group: %s (%s)", group.Code, group.Product.Name)
	}

	stdLog.Printf("seed finished")
}
