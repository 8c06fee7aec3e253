package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendbook/internal/amqp"
	"spendbook/internal/core"
	"spendbook/internal/log"
	"spendbook/internal/store"
)

// ChangePublisher is notified after every successful save.
type ChangePublisher interface {
	PublishExpensesChanged(ctx context.Context, msg *amqp.ExpensesChangedMessage) error
}

// ExpenseInput is the raw user input for an add or an edit.
type ExpenseInput struct {
	Amount   string
	Category string
	Date     string
}

// ExpenseService runs the load, mutate, save cycle against a store and
// announces each change.
type ExpenseService struct {
	store     store.Store
	publisher ChangePublisher
	now       func() time.Time
	newID     func() string

	// serializes mutations issued through this process only
	mu sync.Mutex
}

type Option func(*ExpenseService)

// WithPublisher enables change notifications.
func WithPublisher(p ChangePublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithClock overrides the clock used to default missing dates.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithIDGenerator overrides how new expense ids are produced.
func WithIDGenerator(newID func() string) Option {
	return func(s *ExpenseService) { s.newID = newID }
}

func NewExpenseService(st store.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store: st,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the full list in insertion order.
func (s *ExpenseService) List(ctx context.Context) (core.ExpenseList, error) {
	list, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return list, nil
}

// Summary loads the list and aggregates it.
func (s *ExpenseService) Summary(ctx context.Context) (core.Summary, error) {
	list, err := s.List(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(list), nil
}

// Add appends a new expense and returns its 1-based position.
func (s *ExpenseService) Add(ctx context.Context, in ExpenseInput) (int, core.Expense, error) {
	e, err := core.ParseExpense(in.Amount, in.Category, in.Date, s.now())
	if err != nil {
		return 0, core.Expense{}, err
	}
	e.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.List(ctx)
	if err != nil {
		return 0, core.Expense{}, err
	}
	list, position := list.Append(e)
	if err := s.save(ctx, list); err != nil {
		return 0, core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense added", expenseFields(log.OpCreate, position).
		WithExpense(e.Category, e.Amount.String(), e.Date).ToSlice()...)
	s.publish(ctx, amqp.OperationAdd, position, list)
	return position, e, nil
}

// Edit overwrites the expense at position. An empty date keeps the stored
// one. A non-empty id must match the record at position.
func (s *ExpenseService) Edit(ctx context.Context, position int, id string, in ExpenseInput) (core.Expense, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date := strings.TrimSpace(in.Date)
	if date != "" {
		if date, err = core.NormalizeDate(date, s.now()); err != nil {
			return core.Expense{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.List(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	if err := list.CheckID(position, id); err != nil {
		return core.Expense{}, err
	}
	current, err := list.At(position)
	if err != nil {
		return core.Expense{}, err
	}

	updated := core.Expense{
		ID:       current.ID,
		Amount:   amount,
		Category: strings.TrimSpace(in.Category),
		Date:     date,
	}
	if updated.Date == "" {
		updated.Date = current.Date
	}
	if err := list.Replace(position, updated); err != nil {
		return core.Expense{}, err
	}
	if err := s.save(ctx, list); err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense updated", expenseFields(log.OpUpdate, position).
		WithExpense(updated.Category, updated.Amount.String(), updated.Date).ToSlice()...)
	s.publish(ctx, amqp.OperationEdit, position, list)
	return updated, nil
}

// Delete removes the expense at position and returns it.
func (s *ExpenseService) Delete(ctx context.Context, position int, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.List(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	if err := list.CheckID(position, id); err != nil {
		return core.Expense{}, err
	}
	list, removed, err := list.Remove(position)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.save(ctx, list); err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense deleted", expenseFields(log.OpDelete, position).
		WithExpense(removed.Category, removed.Amount.String(), removed.Date).
		With("remaining", len(list)).ToSlice()...)
	s.publish(ctx, amqp.OperationDelete, position, list)
	return removed, nil
}

// Ping checks that the store can be read.
func (s *ExpenseService) Ping(ctx context.Context) error {
	_, err := s.List(ctx)
	return err
}

func (s *ExpenseService) save(ctx context.Context, list core.ExpenseList) error {
	if err := s.store.Save(ctx, list); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}

// publish never fails the request: the list is already saved.
func (s *ExpenseService) publish(ctx context.Context, operation string, position int, list core.ExpenseList) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpensesChangedMessage(operation, position, len(list), core.Total(list))
	if err := s.publisher.PublishExpensesChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expenses changed message",
			expenseFields(operation, position).WithError(err).ToSlice()...)
	}
}

func expenseFields(op string, position int) log.LogFields {
	return log.NewFields().WithComponent(log.ComponentExpense).WithOperation(op).WithPosition(position)
}

// Close releases the store and the publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}
