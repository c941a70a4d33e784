package service

import "errors"

// Domain errors surfaced by the service layer. Handlers map these onto
// HTTP status codes.
var (
	ErrGroupNotFound             = errors.New("group not found")
	ErrGroupInvalid              = errors.New("invalid group parameters")
	ErrGroupCodeGenerate         = errors.New("could not generate unique group code")
	ErrGroupNotActive            = errors.New("group is not active")
	ErrGroupExpired              = errors.New("group has expired")
	ErrGroupFull                 = errors.New("group is full")
	ErrAlreadyJoined             = errors.New("customer already joined group")
	ErrNotParticipant            = errors.New("customer is not a participant")
	ErrNotLeader                 = errors.New("customer is not the group leader")
	ErrLeaderCannotLeave         = errors.New("group leader cannot leave own group")
	ErrMinParticipantsNotReached = errors.New("minimum participants not reached")
)
