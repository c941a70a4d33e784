package constants

// Group statuses. A group starts active and ends in exactly one of the
// terminal states; there are no backward transitions.
const (
	GroupStatusActive    = "active"
	GroupStatusCompleted = "completed"
	GroupStatusExpired   = "expired"
	GroupStatusCancelled = "cancelled"
)

// Reward statuses.
const (
	RewardStatusPending   = "pending"
	RewardStatusApproved  = "approved"
	RewardStatusPaid      = "paid"
	RewardStatusCancelled = "cancelled"
)

// Reward types.
const (
	RewardTypeGroupLeader = "group_leader"
)

// Delivery address types accepted on group creation.
const (
	AddressTypeHome   = "home"
	AddressTypeHotel  = "hotel"
	AddressTypeOffice = "office"
	AddressTypeOther  = "other"
	AddressTypeCustom = "custom"
)

// Group defaults.
const (
	DefaultMinParticipants  = 5
	DefaultMaxParticipants  = 20
	DefaultDurationHours    = 72
	DefaultJoinQuantity     = 1
	GroupCodeLength         = 8
	GroupCodeMaxAttempts    = 10
	LeaderRewardRatePercent = 5
)

// Listing pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Queue names.
const (
	QueueDefault = "default"
)

// Async task type names.
const (
	TaskGroupExpire   = "group:expire"
	TaskRewardApprove = "reward:approve"
)
