package queue

import (
	"encoding/json"

	"github.com/grocerly/groupbuy/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGroupExpire applies the expiry transition to a past-due group.
	TaskGroupExpire = constants.TaskGroupExpire
	// TaskRewardApprove moves a pending leader reward to approved.
	TaskRewardApprove = constants.TaskRewardApprove
)

// GroupExpirePayload identifies the group to expire.
type GroupExpirePayload struct {
	GroupID uint `json:"group_id"`
}

// RewardApprovePayload identifies the reward to approve.
type RewardApprovePayload struct {
	RewardID uint `json:"reward_id"`
}

// NewGroupExpireTask builds the delayed expiry task.
func NewGroupExpireTask(payload GroupExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGroupExpire, body), nil
}

// NewRewardApproveTask builds the reward approval task.
func NewRewardApproveTask(payload RewardApprovePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRewardApprove, body), nil
}
