package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendbook/internal/chart"
	"spendbook/internal/core"
	"spendbook/internal/log"
	"spendbook/internal/services"
)

// pageData is shared by every HTML template.
type pageData struct {
	Title    string
	Active   string
	Error    string
	Summary  core.Summary
	Rows     []expenseRow
	Form     services.ExpenseInput
	Today    string
	HasChart bool
	ChartKey string
}

type expenseRow struct {
	Position int
	core.Expense
}

func rowsOf(list core.ExpenseList) []expenseRow {
	rows := make([]expenseRow, len(list))
	for i, e := range list {
		rows[i] = expenseRow{Position: i + 1, Expense: e}
	}
	return rows
}

// render executes name into a buffer first so a template failure never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentTemplate)
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed", "template", name, log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// pageError logs a failed page request and renders the error page.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentExpense)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Page request failed", log.FieldOperation, op, log.FieldError, err)
	}
	s.render(w, r, status, "error.html", pageData{Title: "Error", Error: messageFor(err)})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sum, err := s.expenses.Summary(r.Context())
	if err != nil {
		s.pageError(w, r, log.OpSummary, err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", pageData{Title: "Spendbook", Active: "home", Summary: sum})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, r, http.StatusOK, "add.html", s.addPage(services.ExpenseInput{}, ""))
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.render(w, r, http.StatusBadRequest, "add.html", s.addPage(services.ExpenseInput{}, "malformed form"))
			return
		}
		in := services.ExpenseInput{
			Amount:   r.PostForm.Get("amount"),
			Category: r.PostForm.Get("category"),
			Date:     r.PostForm.Get("date"),
		}
		if _, _, err := s.expenses.Add(r.Context(), in); err != nil {
			if statusFor(err) >= http.StatusInternalServerError {
				s.pageError(w, r, log.OpCreate, err)
				return
			}
			s.render(w, r, statusFor(err), "add.html", s.addPage(in, messageFor(err)))
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) addPage(in services.ExpenseInput, msg string) pageData {
	return pageData{
		Title:  "Add expense",
		Active: "add",
		Error:  msg,
		Form:   in,
		Today:  time.Now().Format(core.DateLayout),
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.expenses.Summary(r.Context())
	if err != nil {
		s.pageError(w, r, log.OpSummary, err)
		return
	}
	s.render(w, r, http.StatusOK, "summary.html", pageData{Title: "Summary", Active: "summary", Summary: sum})
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.renderModify(w, r, http.StatusOK, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderModify(w, r, http.StatusBadRequest, "malformed form")
			return
		}
		op, err := s.applyModify(r)
		if err != nil {
			if statusFor(err) >= http.StatusInternalServerError {
				s.pageError(w, r, op, err)
				return
			}
			s.renderModify(w, r, statusFor(err), messageFor(err))
			return
		}
		http.Redirect(w, r, "/summary", http.StatusSeeOther)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// applyModify runs the edit or delete named by the form's action field.
func (s *Server) applyModify(r *http.Request) (string, error) {
	position, err := parsePosition(r.PostForm.Get("index"))
	if err != nil {
		return log.OpUpdate, err
	}
	id := strings.TrimSpace(r.PostForm.Get("id"))

	switch action := strings.TrimSpace(r.PostForm.Get("action")); action {
	case "edit":
		_, err = s.expenses.Edit(r.Context(), position, id, services.ExpenseInput{
			Amount:   r.PostForm.Get("amount"),
			Category: r.PostForm.Get("category"),
			Date:     r.PostForm.Get("date"),
		})
		return log.OpUpdate, err
	case "delete":
		_, err = s.expenses.Delete(r.Context(), position, id)
		return log.OpDelete, err
	default:
		return log.OpUpdate, fmt.Errorf("%w %q: must be edit or delete", errUnknownAction, action)
	}
}

func (s *Server) renderModify(w http.ResponseWriter, r *http.Request, status int, msg string) {
	list, err := s.expenses.List(r.Context())
	if err != nil {
		s.pageError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, status, "modify.html", pageData{
		Title:  "Modify expenses",
		Active: "modify",
		Error:  msg,
		Rows:   rowsOf(list),
	})
}

// handlePlot publishes the current chart as a static asset and renders the
// page that embeds it.
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	sum, err := s.expenses.Summary(r.Context())
	if err != nil {
		s.pageError(w, r, log.OpRender, err)
		return
	}

	data := pageData{Title: "Chart", Active: "plot", Summary: sum}
	err = s.charts.Publish(r.Context(), sum.ByCategory)
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentChart)
	switch {
	case errors.Is(err, chart.ErrNoData):
	case err == nil || errors.Is(err, chart.ErrSink):
		if err != nil {
			// /plot.png still serves the image from memory
			logger.WarnContext(r.Context(), "Failed to publish chart asset", log.FieldError, err)
		}
		data.HasChart = true
		data.ChartKey = chart.Key(sum.ByCategory)[:12]
	default:
		logger.ErrorContext(r.Context(), "Failed to render chart", log.FieldError, err)
		data.Error = "chart rendering failed"
	}
	s.render(w, r, http.StatusOK, "plot.html", data)
}

func (s *Server) handlePlotImage(w http.ResponseWriter, r *http.Request) {
	sum, err := s.expenses.Summary(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load expenses for chart", log.FieldError, err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}

	png, err := s.charts.PNG(sum.ByCategory)
	if errors.Is(err, chart.ErrNoData) {
		http.Error(w, "no expenses to plot", http.StatusNotFound)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentChart).
			ErrorContext(r.Context(), "Failed to render chart", log.FieldError, err)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
