package public

import (
	"errors"

	"github.com/grocerly/groupbuy/internal/http/response"
	"github.com/grocerly/groupbuy/internal/logger"
	"github.com/grocerly/groupbuy/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps a domain error onto a response code and message.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			appErr := response.WrapError(rule.code, rule.msg, err)
			response.Error(c, appErr.Code, appErr.Message)
			return
		}
	}
	appErr := response.WrapError(response.CodeInternal, fallbackMsg, err)
	logger.Errorw("group_handler_unmapped_error",
		"path", c.FullPath(),
		"code", appErr.Code,
		"error", appErr,
	)
	response.Error(c, appErr.Code, appErr.Message)
}

var groupLookupErrorRules = []mappedHandlerError{
	{target: service.ErrGroupNotFound, code: response.CodeNotFound, msg: "group not found"},
}

var groupCreateErrorRules = []mappedHandlerError{
	{target: service.ErrGroupInvalid, code: response.CodeBadRequest, msg: "invalid group parameters"},
	{target: service.ErrGroupCodeGenerate, code: response.CodeInternal, msg: "could not allocate group code"},
}

var groupJoinErrorRules = []mappedHandlerError{
	{target: service.ErrGroupNotFound, code: response.CodeNotFound, msg: "group not found"},
	{target: service.ErrGroupExpired, code: response.CodeBadRequest, msg: "group has expired"},
	{target: service.ErrGroupFull, code: response.CodeBadRequest, msg: "group is full"},
	{target: service.ErrGroupNotActive, code: response.CodeBadRequest, msg: "group is not active"},
	{target: service.ErrAlreadyJoined, code: response.CodeBadRequest, msg: "already joined this group"},
	{target: service.ErrGroupInvalid, code: response.CodeBadRequest, msg: "invalid join parameters"},
}

var groupLeaveErrorRules = []mappedHandlerError{
	{target: service.ErrGroupNotFound, code: response.CodeNotFound, msg: "group not found"},
	{target: service.ErrGroupNotActive, code: response.CodeBadRequest, msg: "group is not active"},
	{target: service.ErrLeaderCannotLeave, code: response.CodeBadRequest, msg: "leader cannot leave own group"},
	{target: service.ErrNotParticipant, code: response.CodeBadRequest, msg: "not a participant of this group"},
}

var groupCancelErrorRules = []mappedHandlerError{
	{target: service.ErrGroupNotFound, code: response.CodeNotFound, msg: "group not found"},
	{target: service.ErrNotLeader, code: response.CodeForbidden, msg: "only the leader can cancel the group"},
	{target: service.ErrGroupNotActive, code: response.CodeBadRequest, msg: "group is not active"},
}

var groupCompleteErrorRules = []mappedHandlerError{
	{target: service.ErrGroupNotFound, code: response.CodeNotFound, msg: "group not found"},
	{target: service.ErrNotLeader, code: response.CodeForbidden, msg: "only the leader can complete the group"},
	{target: service.ErrGroupNotActive, code: response.CodeBadRequest, msg: "group is not active"},
	{target: service.ErrMinParticipantsNotReached, code: response.CodeBadRequest, msg: "minimum participants not reached"},
}
