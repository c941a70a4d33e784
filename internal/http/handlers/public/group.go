package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/grocerly/groupbuy/internal/http/response"
	"github.com/grocerly/groupbuy/internal/service"

	"github.com/gin-gonic/gin"
)

// JoinGroupRequest is the join request body.
type JoinGroupRequest struct {
	Quantity int `json:"quantity"`
}

// CreateGroup opens a new group with the caller as leader.
func (h *Handler) CreateGroup(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}

	var req service.CreateGroupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	group, err := h.GroupService.Create(customer, req)
	if err != nil {
		respondWithMappedError(c, err, groupCreateErrorRules, "failed to create group")
		return
	}
	response.Success(c, group)
}

// GetGroup returns a group by its shareable code.
func (h *Handler) GetGroup(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		response.BadRequest(c, "group code required")
		return
	}

	group, err := h.GroupService.GetByCode(code)
	if err != nil {
		respondWithMappedError(c, err, groupLookupErrorRules, "failed to fetch group")
		return
	}
	response.Success(c, group)
}

// JoinGroup adds the caller to the group identified by its share code.
func (h *Handler) JoinGroup(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}
	code := strings.TrimSpace(c.Param("id"))
	if code == "" {
		response.BadRequest(c, "group code required")
		return
	}

	var req JoinGroupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}

	group, err := h.GroupService.Join(code, customer, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, groupJoinErrorRules, "failed to join group")
		return
	}
	response.Success(c, group)
}

// LeaveGroup removes the caller from the group.
func (h *Handler) LeaveGroup(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.GroupService.Leave(groupID, customer.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, groupLeaveErrorRules, "failed to leave group")
		return
	}
	response.Success(c, group)
}

// CancelGroup lets the leader close the group without reward.
func (h *Handler) CancelGroup(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.GroupService.Cancel(groupID, customer.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, groupCancelErrorRules, "failed to cancel group")
		return
	}
	response.Success(c, group)
}

// CompleteGroup lets the leader settle the group once the minimum is reached.
func (h *Handler) CompleteGroup(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.GroupService.Complete(groupID, customer.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, groupCompleteErrorRules, "failed to complete group")
		return
	}
	response.Success(c, group)
}

// ListProductGroups returns joinable groups for a product.
func (h *Handler) ListProductGroups(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		response.BadRequest(c, "product id required")
		return
	}

	groups, err := h.GroupService.ListActiveForProduct(c.Request.Context(), productID)
	if err != nil {
		respondWithMappedError(c, err, nil, "failed to fetch groups")
		return
	}
	response.Success(c, groups)
}

// ListMyGroups returns one page of the caller's groups as leader or
// participant.
func (h *Handler) ListMyGroups(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	groups, total, err := h.GroupService.ListForCustomer(customer.CustomerID, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, nil, "failed to fetch groups")
		return
	}
	response.SuccessWithPage(c, groups, response.BuildPagination(page, pageSize, total))
}

// LeaderStats returns the caller's aggregated leader activity and rewards.
func (h *Handler) LeaderStats(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}

	stats, err := h.GroupService.LeaderStats(customer.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, nil, "failed to fetch leader stats")
		return
	}
	response.Success(c, stats)
}

// LeaderRewards returns the caller's reward ledger, newest first.
func (h *Handler) LeaderRewards(c *gin.Context) {
	customer, ok := getCustomer(c)
	if !ok {
		return
	}

	rewards, err := h.GroupService.ListRewards(customer.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, nil, "failed to fetch rewards")
		return
	}
	response.Success(c, rewards)
}

// ProcessExpiredGroups sweeps past-due active groups. Guarded by the cron
// token middleware; runs are idempotent.
func (h *Handler) ProcessExpiredGroups(c *gin.Context) {
	result, err := h.GroupService.ProcessExpired(time.Now())
	if err != nil {
		respondWithMappedError(c, err, nil, "failed to process expired groups")
		return
	}
	response.Success(c, result)
}

func parseGroupID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid group id")
		return 0, false
	}
	return uint(id), true
}
