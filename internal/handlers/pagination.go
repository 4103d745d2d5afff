package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// parsePagination reads page and limit query values, falling back to page 1
// and the default limit.
func parsePagination(c *fiber.Ctx) (int, int, bool) {
	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			_ = badRequest(c, "page must be a positive integer")
			return 0, 0, false
		}
		page = parsed
	}

	limit := defaultPageLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageLimit {
			_ = badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxPageLimit))
			return 0, 0, false
		}
		limit = parsed
	}
	return page, limit, true
}

func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
