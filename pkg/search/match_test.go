package search

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMatchName(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"Cá", "ca", true},
		{"Cá", "cá", true},
		{"Cá", "xyz", false},
		{"Cá hồi Na Uy", "HOI", true},
		{"Cá hồi Na Uy", "hồi", true},
		{"Cá hồi Na Uy", "hói", false},
		{"Đậu hũ", "dau", true},
		{"Mực ống", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchName(tt.name, tt.query))
		})
	}
}

func TestMatchNameMixedNormalization(t *testing.T) {
	decomposed := "Ca\u0301 ho\u0302\u0300i" // Cá hồi, NFD
	composed := "Cá hồi"

	assert.True(t, MatchName(decomposed, "cá"))
	assert.True(t, MatchName(decomposed, "hồi"))
	assert.True(t, MatchName(composed, "ca\u0301"))
	assert.False(t, MatchName(decomposed, "hói"))
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "Ca hoi", FoldAccents("Cá hồi"))
	assert.Equal(t, "Dau", FoldAccents("Đậu"))
	assert.True(t, HasAccent("tôm"))
	assert.False(t, HasAccent("tom"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("SUMMER50", "mer5"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("SUMMER50", "winter"))
}

func TestRanges(t *testing.T) {
	lo, hi := decimal.NewFromInt(100), decimal.NewFromInt(200)

	t.Run("decimal bounds are inclusive", func(t *testing.T) {
		assert.True(t, DecimalBetween(decimal.NewFromInt(100), &lo, &hi))
		assert.True(t, DecimalBetween(decimal.NewFromInt(200), &lo, &hi))
		assert.False(t, DecimalBetween(decimal.NewFromInt(201), &lo, &hi))
		assert.True(t, DecimalBetween(decimal.NewFromInt(5000), &lo, nil))
	})

	t.Run("int bounds", func(t *testing.T) {
		min, max := 1, 3
		assert.True(t, IntBetween(3, &min, &max))
		assert.False(t, IntBetween(0, &min, nil))
	})

	t.Run("time bounds are inclusive", func(t *testing.T) {
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
		assert.True(t, TimeBetween(from, &from, &to))
		assert.True(t, TimeBetween(to, &from, &to))
		assert.False(t, TimeBetween(to.Add(time.Second), &from, &to))
	})
}

func TestAll(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }
	positive := func(n int) bool { return n > 0 }
	p := All[int](even, nil, positive)

	assert.True(t, p(4))
	assert.False(t, p(-4))
	assert.False(t, p(3))
}
