package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the aggregate view over a whole list.
type Summary struct {
	Total      decimal.Decimal
	Count      int
	ByCategory []CategoryAmount // amount desc, then name asc
}

// Total sums every amount. Zero for an empty list.
func Total(list ExpenseList) decimal.Decimal {
	total := decimal.Zero
	for _, e := range list {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory sums amounts per exact category string.
func ByCategory(list ExpenseList) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, e := range list {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	return sums
}

// Summarize computes total, count and a deterministically ordered
// per-category breakdown.
func Summarize(list ExpenseList) Summary {
	sums := ByCategory(list)
	rows := make([]CategoryAmount, 0, len(sums))
	for name, amt := range sums {
		rows = append(rows, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})
	return Summary{
		Total:      Total(list),
		Count:      len(list),
		ByCategory: rows,
	}
}
