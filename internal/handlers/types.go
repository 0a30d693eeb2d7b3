package handlers

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// listResponse is the standard envelope for collection endpoints
type listResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// messageResponse is the standard envelope for mutations without a body
type messageResponse struct {
	Message string `json:"message"`
}

// dataResponse wraps a single entity
type dataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// paramID parses a numeric path parameter
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(400, "invalid "+name)
	}
	return uint(id), nil
}

// queryInt parses an optional integer query parameter with a default
func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// parseDate parses YYYY-MM-DD request dates
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// parseOptionalDate returns nil for empty input
func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
