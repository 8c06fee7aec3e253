package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendbook/internal/chart"
	"spendbook/internal/core"
	"spendbook/internal/services"
	"spendbook/internal/store/memory"
)

func testApp(t *testing.T, seed ...core.Expense) (*app, *bytes.Buffer, *memory.Store) {
	t.Helper()
	st := memory.New(seed...)
	out := &bytes.Buffer{}
	clock := func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	a := &app{
		out: out,
		open: func(context.Context) (*services.ExpenseService, func() error, error) {
			svc := services.NewExpenseService(st, services.WithClock(clock))
			return svc, svc.Close, nil
		},
		renderer: chart.BarChartRenderer{},
	}
	return a, out, st
}

func run(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func seed() []core.Expense {
	return []core.Expense{
		{ID: "id-1", Amount: decimal.RequireFromString("10"), Category: "Food", Date: "2024-01-01"},
		{ID: "id-2", Amount: decimal.RequireFromString("20"), Category: "Travel", Date: "2024-01-02"},
	}
}

func TestAddDefaultsDateToToday(t *testing.T) {
	a, out, st := testApp(t)

	if err := run(a, "add", "4,50", "Coffee"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out.String(), "Added #1: 4.50 Coffee on 2024-03-09") {
		t.Errorf("output = %q", out.String())
	}
	list, _ := st.Load(context.Background())
	if len(list) != 1 || list[0].Date != "2024-03-09" {
		t.Errorf("stored = %+v", list)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	tests := [][]string{
		{"add", "ten", "Food"},
		{"add", "1", "Food", "tomorrow"},
		{"add", "1"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			a, _, st := testApp(t)
			if err := run(a, args...); err == nil {
				t.Fatal("expected error")
			}
			if st.Saves() != 0 {
				t.Error("nothing should be saved")
			}
		})
	}
}

func TestList(t *testing.T) {
	a, out, _ := testApp(t, seed()...)

	if err := run(a, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "Food") || !strings.Contains(lines[2], "20.00") || !strings.Contains(lines[2], "id-2") {
		t.Errorf("unexpected rows: %q", lines[1:])
	}

	empty, out, _ := testApp(t)
	if err := run(empty, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "No expenses recorded.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestEditAndDelete(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"edit keeps date", []string{"edit", "2", "25", "Trains"}, nil},
		{"edit stale id", []string{"edit", "2", "25", "Trains", "--id", "id-1"}, core.ErrStalePosition},
		{"edit out of range", []string{"edit", "3", "1", "Food"}, core.ErrOutOfRange},
		{"delete", []string{"delete", "1", "--id", "id-1"}, nil},
		{"delete zero", []string{"delete", "0"}, core.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, st := testApp(t, seed()...)
			err := run(a, tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if st.Saves() != 0 {
					t.Error("rejected change must not write")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEditKeepsStoredDate(t *testing.T) {
	a, _, st := testApp(t, seed()...)
	if err := run(a, "edit", "2", "25", "Trains"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	list, _ := st.Load(context.Background())
	if list[1].Date != "2024-01-02" || list[1].Category != "Trains" || list[1].ID != "id-2" {
		t.Errorf("edited = %+v", list[1])
	}
}

func TestPositionMustBeNumeric(t *testing.T) {
	a, _, _ := testApp(t, seed()...)
	if err := run(a, "delete", "first"); err == nil || !strings.Contains(err.Error(), "invalid position") {
		t.Fatalf("err = %v", err)
	}
}

func TestSummary(t *testing.T) {
	a, out, _ := testApp(t, seed()...)
	if err := run(a, "summary"); err != nil {
		t.Fatalf("summary: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "Total: 30.00 (2 expenses)") {
		t.Errorf("output = %q", got)
	}
	if strings.Index(got, "Travel") > strings.Index(got, "Food") {
		t.Error("larger category should be listed first")
	}

	a, out, _ = testApp(t, seed()...)
	if err := run(a, "summary", "--json"); err != nil {
		t.Fatalf("summary --json: %v", err)
	}
	if !strings.Contains(out.String(), `"total": 30`) || !strings.Contains(out.String(), `"Travel": 20`) {
		t.Errorf("json = %q", out.String())
	}
}

func TestChartWritesPNG(t *testing.T) {
	a, _, _ := testApp(t, seed()...)
	path := filepath.Join(t.TempDir(), "out.png")

	if err := run(a, "chart", "-o", path); err != nil {
		t.Fatalf("chart: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestChartWithoutDataLeavesNoFile(t *testing.T) {
	a, _, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "out.png")

	if err := run(a, "chart", "-o", path); !errors.Is(err, chart.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty chart file left behind")
	}
}

func TestChartFailureKeepsExistingFile(t *testing.T) {
	a, _, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "out.png")
	if err := os.WriteFile(path, []byte("previous chart"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(a, "chart", "-o", path); err == nil {
		t.Fatal("expected error")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "previous chart" {
		t.Errorf("existing file changed: %q, %v", data, err)
	}
}
