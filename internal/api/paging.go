package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 10
	defaultJobLimit = 20
	maxLimit        = 100
)

type page struct {
	Page  int
	Limit int
}

func (p page) offset() int { return (p.Page - 1) * p.Limit }

// parsePage reads ?page and ?limit. Missing or unparsable values fall back to
// the defaults; out-of-range values are clamped.
func parsePage(c *gin.Context, defaultLimit int) page {
	p := page{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.Limit = min(max(n, 1), maxLimit)
	}
	return p
}

func ceilDiv(total, limit int) int {
	return (total + limit - 1) / limit
}
