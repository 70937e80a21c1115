package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-collab-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// NewPaginationParams normalizes a page/limit pair. Pages start at 1; a zero
// limit means "unset" and falls back to defaultLimit, a negative one clamps to
// the minimum, and anything above the maximum is capped.
func NewPaginationParams(page, limit, defaultLimit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	switch {
	case limit == 0:
		limit = defaultLimit
	case limit < constants.MinPageSize:
		limit = constants.MinPageSize
	case limit > constants.MaxPageSize:
		limit = constants.MaxPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// ParsePaginationParams parses raw query values. Missing or non-numeric values
// fall back to the defaults instead of failing the request.
func ParsePaginationParams(rawPage, rawLimit string, defaultLimit int) PaginationParams {
	page, err := strconv.Atoi(rawPage)
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(rawLimit)
	if err != nil {
		limit = defaultLimit
	}
	return NewPaginationParams(page, limit, defaultLimit)
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context, defaultLimit int) PaginationParams {
	return ParsePaginationParams(c.Query("page"), c.Query("limit"), defaultLimit)
}
