package provider

import (
	"github.com/grocerly/groupbuy/internal/cache"
	"github.com/grocerly/groupbuy/internal/config"
	"github.com/grocerly/groupbuy/internal/logger"
	"github.com/grocerly/groupbuy/internal/models"
	"github.com/grocerly/groupbuy/internal/queue"
	"github.com/grocerly/groupbuy/internal/repository"
	"github.com/grocerly/groupbuy/internal/service"
)

// Container holds the application's shared dependencies, built once at
// startup.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	GroupRepo  repository.GroupRepository
	RewardRepo repository.RewardRepository

	// Services
	GroupService *service.GroupService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.GroupRepo = repository.NewGroupRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
}

func (c *Container) initServices() {
	c.GroupService = service.NewGroupService(c.GroupRepo, c.RewardRepo, c.QueueClient)
}
