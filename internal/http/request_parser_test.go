package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 10.10, "category": "Food", "date": "2024-01-02", "id": "abc"}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Error("IsJSON() = false, want true")
	}

	in := p.ExpenseInput()
	if in.Amount != "10.10" {
		t.Errorf("Amount = %q, want literal 10.10", in.Amount)
	}
	if in.Category != "Food" || in.Date != "2024-01-02" {
		t.Errorf("unexpected input: %+v", in)
	}
	if p.Get("id") != "abc" {
		t.Errorf("Get(id) = %q", p.Get("id"))
	}
	if p.Get("missing") != "" {
		t.Errorf("Get(missing) = %q, want empty", p.Get("missing"))
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("amount=4%2C20&category=+Bus+"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("IsJSON() = true, want false")
	}
	in := p.ExpenseInput()
	if in.Amount != "4,20" {
		t.Errorf("Amount = %q, want 4,20", in.Amount)
	}
	// trimming is left to the domain
	if in.Category != " Bus " {
		t.Errorf("Category = %q", in.Category)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Get("amount") != "" {
		t.Error("expected empty value")
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated json", `{"amount": 1`},
		{"json array", `[1, 2]`},
		{"oversized", "amount=" + strings.Repeat("9", maxBodyBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if err := NewRequestBodyParser(req).Parse(); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestRequestBodyParser_ParseIsIdempotent(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"category":"x"}`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if p.Get("category") != "x" {
		t.Errorf("Get(category) = %q", p.Get("category"))
	}
}
