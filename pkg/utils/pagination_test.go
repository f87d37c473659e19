package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetPaginationParams(t *testing.T) {
	p := GetPaginationParams(newContext("page=3&limit=10"))
	assert.Equal(t, PaginationParams{Page: 3, PageSize: 10, Offset: 20}, p)

	p = GetPaginationParams(newContext("page=-1&limit=1000"))
	assert.Equal(t, PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}, p)
}

func TestGetCursorParams(t *testing.T) {
	p := GetCursorParams(newContext("after_id=42&limit=5"), 50)
	assert.Equal(t, CursorParams{AfterID: 42, Limit: 5}, p)

	p = GetCursorParams(newContext("after_id=abc"), 50)
	assert.Equal(t, CursorParams{AfterID: 0, Limit: 50}, p)
}
