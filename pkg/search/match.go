// Package search 提供文档谓词与两种检索策略（全量扫描 / 分批流式）
package search

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Predicate 对单个文档的匹配判断
type Predicate[T any] func(T) bool

// All 所有谓词均满足；nil 谓词被忽略
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range preds {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// ContainsFold 大小写不敏感的子串匹配，空 needle 恒为真
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// đ/Đ 在 NFD 下不会分解，需要单独映射
var stripMarks = runes.Remove(runes.In(unicode.Mn))

var dStroke = strings.NewReplacer("đ", "d", "Đ", "D")

// FoldAccents 去掉变音符号: "Cá Hồi" -> "Ca Hoi"
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return dStroke.Replace(out)
}

// HasAccent 字符串是否含有变音字符
func HasAccent(s string) bool {
	return FoldAccents(s) != s
}

// MatchName 商品名检索：
// 查询词带声调时按原文匹配，否则两边都去声调后匹配。
// 原文匹配前两边统一成 NFC，NFD 存储的名字也能命中
func MatchName(name, query string) bool {
	if query == "" {
		return true
	}
	if HasAccent(query) {
		return ContainsFold(norm.NFC.String(name), norm.NFC.String(query))
	}
	return ContainsFold(FoldAccents(name), query)
}

// DecimalBetween 闭区间，nil 表示不限
func DecimalBetween(v decimal.Decimal, min, max *decimal.Decimal) bool {
	if min != nil && v.LessThan(*min) {
		return false
	}
	if max != nil && v.GreaterThan(*max) {
		return false
	}
	return true
}

// IntBetween 闭区间，nil 表示不限
func IntBetween(v int, min, max *int) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

// TimeBetween 闭区间，nil 表示不限
func TimeBetween(v time.Time, from, to *time.Time) bool {
	if from != nil && v.Before(*from) {
		return false
	}
	if to != nil && v.After(*to) {
		return false
	}
	return true
}
