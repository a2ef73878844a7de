package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination 分页请求参数
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"pageSize" form:"pageSize"`
}

// Normalize 修正非法参数，pageSize 限制在 [1, 100]
func (p *Pagination) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// PaginationFromQuery 从 ?page=&pageSize= 读取分页参数
func PaginationFromQuery(c *gin.Context) Pagination {
	p := Pagination{
		Page:     atoiOrZero(c.Query("page")),
		PageSize: atoiOrZero(c.Query("pageSize")),
	}
	p.Normalize()
	return p
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
