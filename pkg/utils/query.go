package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// 接受的日期格式
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime 解析 RFC3339 或 YYYY-MM-DD
func ParseTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// QueryDecimal 可选的金额参数，缺省返回 nil
func QueryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return &d, nil
}

// QueryInt 可选的整数参数
func QueryInt(c *gin.Context, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return &n, nil
}

// QueryTime 可选的日期参数
func QueryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &t, nil
}

// QueryParser 依次解析多个可选参数，记录第一个错误
type QueryParser struct {
	c   *gin.Context
	err error
}

func NewQueryParser(c *gin.Context) *QueryParser {
	return &QueryParser{c: c}
}

func (p *QueryParser) Decimal(key string) *decimal.Decimal {
	if p.err != nil {
		return nil
	}
	v, err := QueryDecimal(p.c, key)
	p.err = err
	return v
}

func (p *QueryParser) Int(key string) *int {
	if p.err != nil {
		return nil
	}
	v, err := QueryInt(p.c, key)
	p.err = err
	return v
}

func (p *QueryParser) Time(key string) *time.Time {
	if p.err != nil {
		return nil
	}
	v, err := QueryTime(p.c, key)
	p.err = err
	return v
}

func (p *QueryParser) Err() error {
	return p.err
}
