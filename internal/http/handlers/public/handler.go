package public

import "github.com/grocerly/groupbuy/internal/provider"

// Handler serves the customer-facing group-buy API.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
