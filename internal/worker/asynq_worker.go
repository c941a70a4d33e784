package worker

import (
	"context"
	"encoding/json"

	"github.com/grocerly/groupbuy/internal/logger"
	"github.com/grocerly/groupbuy/internal/provider"
	"github.com/grocerly/groupbuy/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer handles queued group-buy tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds task handlers onto the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGroupExpire, c.handleGroupExpire)
	mux.HandleFunc(queue.TaskRewardApprove, c.handleRewardApprove)
}

// handleGroupExpire settles a group whose deadline passed. The service skips
// groups that are not yet due or already settled, so redeliveries and sweep
// overlap are harmless.
func (c *Consumer) handleGroupExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_group_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GroupExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_group_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.GroupID == 0 {
		logger.Debugw("worker_group_expire_skip_invalid_payload", "group_id", payload.GroupID)
		return nil
	}
	if err := c.GroupService.ExpireDue(payload.GroupID); err != nil {
		logger.Warnw("worker_group_expire_failed", "group_id", payload.GroupID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleRewardApprove(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_reward_approve_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RewardApprovePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_reward_approve_unmarshal_failed", "error", err)
		return err
	}
	if payload.RewardID == 0 {
		logger.Debugw("worker_reward_approve_skip_invalid_payload", "reward_id", payload.RewardID)
		return nil
	}
	if err := c.GroupService.ApproveReward(payload.RewardID); err != nil {
		logger.Warnw("worker_reward_approve_failed", "reward_id", payload.RewardID, "error", err)
		return err
	}
	return nil
}
