package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination is the page window extracted from a list request.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads the page and limit query params, clamping them to
// sane bounds. Malformed values coerce to the defaults rather than failing
// the request.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := cast.ToInt(c.Query("page"))
	if page <= 0 {
		page = 1
	}

	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
