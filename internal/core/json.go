package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// expenseJSON is the persisted shape: amount is written as a JSON number,
// id is omitted for records created before ids existed.
type expenseJSON struct {
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
	ID       string      `json:"id,omitempty"`
}

func (e Expense) MarshalJSON() ([]byte, error) {
	return json.Marshal(expenseJSON{
		Amount:   json.Number(e.Amount.String()),
		Category: e.Category,
		Date:     e.Date,
		ID:       e.ID,
	})
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw expenseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amt, err := decimal.NewFromString(raw.Amount.String())
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw.Amount.String(), ErrInvalidAmount)
	}
	*e = Expense{
		ID:       raw.ID,
		Amount:   amt,
		Category: raw.Category,
		Date:     raw.Date,
	}
	return nil
}

// SummaryJSON is the wire shape of a Summary, shared by the HTTP API and
// the CLI. Amounts are JSON numbers with their full precision.
type SummaryJSON struct {
	Total      json.Number            `json:"total"`
	Count      int                    `json:"count"`
	ByCategory map[string]json.Number `json:"by_category"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	byCategory := make(map[string]json.Number, len(s.ByCategory))
	for _, c := range s.ByCategory {
		byCategory[c.Name] = json.Number(c.Amount.String())
	}
	return json.Marshal(SummaryJSON{
		Total:      json.Number(s.Total.String()),
		Count:      s.Count,
		ByCategory: byCategory,
	})
}
