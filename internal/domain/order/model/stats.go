package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TopProductsLimit 热销榜条数
const TopProductsLimit = 5

// ProductSales 单个商品的销量汇总
type ProductSales struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// Totals 一组订单的合计
type Totals struct {
	Revenue decimal.Decimal
	Orders  int
	// Products 订单行数合计
	Products int
}

// Sum 调用方负责先按状态与时间过滤
func Sum(orders []Order) Totals {
	t := Totals{Revenue: decimal.Zero}
	for i := range orders {
		t.Revenue = t.Revenue.Add(orders[i].TotalAmount)
		t.Orders++
		t.Products += len(orders[i].Items)
	}
	return t
}

// QuantitiesByProduct 按商品合计数量，用于成本计算
func QuantitiesByProduct(orders []Order) map[string]int {
	out := make(map[string]int)
	for i := range orders {
		for _, item := range orders[i].Items {
			out[item.ProductID] += item.Quantity
		}
	}
	return out
}

// MonthlyRevenue 按创建月份(UTC)汇总到 12 个桶
func MonthlyRevenue(orders []Order) [12]decimal.Decimal {
	var months [12]decimal.Decimal
	for i := range months {
		months[i] = decimal.Zero
	}
	for i := range orders {
		m := orders[i].CreatedAt.UTC().Month()
		months[m-1] = months[m-1].Add(orders[i].TotalAmount)
	}
	return months
}

// CountByStatus 六种状态均有键，未知状态忽略
func CountByStatus(orders []Order) map[Status]int {
	out := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		out[s] = 0
	}
	for i := range orders {
		if _, ok := out[orders[i].Status]; ok {
			out[orders[i].Status]++
		}
	}
	return out
}

// TopProducts 按收入降序取前 n 个，收入相同按商品 id 升序
func TopProducts(orders []Order, n int) []ProductSales {
	byID := make(map[string]*ProductSales)
	for i := range orders {
		for _, item := range orders[i].Items {
			ps, ok := byID[item.ProductID]
			if !ok {
				ps = &ProductSales{ID: item.ProductID, Name: item.ProductName, Revenue: decimal.Zero}
				byID[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.Subtotal())
		}
	}

	out := make([]ProductSales, 0, len(byID))
	for _, ps := range byID {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// YearRange [year-01-01, year+1-01-01) UTC
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
