package utils

import "github.com/gofiber/fiber/v2"

// ParsePagination reads and clamps page/limit query parameters. Limit falls
// back to defaultLimit and never exceeds maxLimit; page starts at 1.
func ParsePagination(c *fiber.Ctx, defaultLimit, maxLimit int) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset = (page - 1) * limit
	return page, limit, offset
}

// TotalPages computes the page count for a pagination envelope.
func TotalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
