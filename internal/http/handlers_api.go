package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"spendbook/internal/core"
	"spendbook/internal/log"
)

type apiExpense struct {
	Position int         `json:"position"`
	ID       string      `json:"id,omitempty"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
}

type apiCreated struct {
	Position int        `json:"position"`
	Expense  apiExpense `json:"expense"`
}

func toAPIExpense(position int, e core.Expense) apiExpense {
	return apiExpense{
		Position: position,
		ID:       e.ID,
		Amount:   json.Number(e.Amount.String()),
		Category: e.Category,
		Date:     e.Date,
	}
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	list, err := s.expenses.List(r.Context())
	if err != nil {
		s.apiError(w, r, log.OpList, err)
		return
	}

	out := make([]apiExpense, len(list))
	for i, e := range list {
		out[i] = toAPIExpense(i+1, e)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorResponse(http.StatusBadRequest, "malformed request body").Write(w)
		return
	}

	position, e, err := s.expenses.Add(r.Context(), p.ExpenseInput())
	if err != nil {
		s.apiError(w, r, log.OpCreate, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+strconv.Itoa(position)).
		Body(apiCreated{Position: position, Expense: toAPIExpense(position, e)}).
		Write(w)
}

func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	position, err := parsePosition(r.PathValue("position"))
	if err != nil {
		s.apiError(w, r, log.OpUpdate, err)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorResponse(http.StatusBadRequest, "malformed request body").Write(w)
		return
	}

	e, err := s.expenses.Edit(r.Context(), position, strings.TrimSpace(p.Get("id")), p.ExpenseInput())
	if err != nil {
		s.apiError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(toAPIExpense(position, e)).Write(w)
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	position, err := parsePosition(r.PathValue("position"))
	if err != nil {
		s.apiError(w, r, log.OpDelete, err)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if _, err := s.expenses.Delete(r.Context(), position, id); err != nil {
		s.apiError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.expenses.Summary(r.Context())
	if err != nil {
		s.apiError(w, r, log.OpSummary, err)
		return
	}

	NewJSONResponse().Body(sum).Write(w)
}

// apiError logs err at a level matching its status and writes the JSON
// error body.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentAPI)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "API request failed", log.FieldOperation, op, log.FieldError, err)
	} else {
		logger.InfoContext(r.Context(), "API request rejected", log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err)
	}
	ErrorFor(err).Write(w)
}
