package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams extracts pagination parameters from request
func GetPaginationParams(c echo.Context) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// CursorParams is the after-id cursor used by message history.
type CursorParams struct {
	AfterID int64
	Limit   int
}

func GetCursorParams(c echo.Context, defaultLimit int) CursorParams {
	afterID, _ := strconv.ParseInt(c.QueryParam("after_id"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	if afterID < 0 {
		afterID = 0
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = defaultLimit
	}

	return CursorParams{AfterID: afterID, Limit: limit}
}
