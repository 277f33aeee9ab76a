package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseIDParam parses a numeric path parameter, returning 0 when invalid.
func parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// parseIntQuery parses a numeric query parameter with a default.
func parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// pagination extracts page/page_size query parameters.
func pagination(c *gin.Context) (int, int) {
	return parseIntQuery(c, "page", 1), parseIntQuery(c, "page_size", 20)
}
