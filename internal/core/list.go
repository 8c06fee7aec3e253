package core

// Clone returns a copy that shares no backing array with l.
func (l ExpenseList) Clone() ExpenseList {
	out := make(ExpenseList, len(l))
	copy(out, l)
	return out
}

func (l ExpenseList) index(position int) (int, error) {
	if position < 1 || position > len(l) {
		return 0, ErrOutOfRange
	}
	return position - 1, nil
}

// At returns the expense at the 1-based position.
func (l ExpenseList) At(position int) (Expense, error) {
	i, err := l.index(position)
	if err != nil {
		return Expense{}, err
	}
	return l[i], nil
}

// CheckID verifies that the expense at position still carries id. An empty
// id skips the check, as do legacy records without an id.
func (l ExpenseList) CheckID(position int, id string) error {
	e, err := l.At(position)
	if err != nil {
		return err
	}
	if id == "" || e.ID == "" {
		return nil
	}
	if e.ID != id {
		return ErrStalePosition
	}
	return nil
}

// Append adds e as the last element and returns the new list together with
// the position of e.
func (l ExpenseList) Append(e Expense) (ExpenseList, int) {
	l = append(l, e)
	return l, len(l)
}

// Replace overwrites amount, category and date of the element at position.
// The stored id is kept.
func (l ExpenseList) Replace(position int, e Expense) error {
	i, err := l.index(position)
	if err != nil {
		return err
	}
	l[i].Amount = e.Amount
	l[i].Category = e.Category
	l[i].Date = e.Date
	return nil
}

// Remove deletes the element at position, returning the shortened list and
// the removed element.
func (l ExpenseList) Remove(position int) (ExpenseList, Expense, error) {
	i, err := l.index(position)
	if err != nil {
		return l, Expense{}, err
	}
	removed := l[i]
	out := make(ExpenseList, 0, len(l)-1)
	out = append(out, l[:i]...)
	out = append(out, l[i+1:]...)
	return out, removed, nil
}
