package public

import (
	"strings"

	"github.com/grocerly/groupbuy/internal/constants"
	"github.com/grocerly/groupbuy/internal/http/response"
	"github.com/grocerly/groupbuy/internal/service"

	"github.com/gin-gonic/gin"
)

// getCustomer reads the authenticated customer from the context, set by the
// customer auth middleware. Writes the 401 response itself on failure.
func getCustomer(c *gin.Context) (service.CustomerInfo, bool) {
	value, ok := c.Get("customer_id")
	if !ok {
		response.Unauthorized(c, "authentication required")
		return service.CustomerInfo{}, false
	}
	customerID, ok := value.(string)
	if !ok || strings.TrimSpace(customerID) == "" {
		response.Unauthorized(c, "invalid customer identity")
		return service.CustomerInfo{}, false
	}
	return service.CustomerInfo{
		CustomerID: customerID,
		Name:       c.GetString("customer_name"),
		Phone:      c.GetString("customer_phone"),
	}, true
}

// normalizePagination clamps listing page parameters to sane bounds.
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	return page, pageSize
}
