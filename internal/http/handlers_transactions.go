package http

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"pfbt/internal/core"
	applog "pfbt/internal/log"
	"pfbt/internal/services"
)

// pageMeta is shared by every full page.
type pageMeta struct {
	Title   string
	Active  string
	User    core.Actor
	Notices []services.Notification
}

type entryFormView struct {
	Mode       string
	EditingID  string
	Values     services.FormValues
	Categories []string
	Types      []core.TransactionType
}

type transactionsView struct {
	pageMeta
	Filter       FilterParams
	Categories   []string
	Transactions []core.Transaction
	Total        int
	Form         entryFormView
}

var transactionTypes = []core.TransactionType{core.Income, core.Expense}

func newEntryFormView(form *services.EntryForm, values services.FormValues, categories []string) entryFormView {
	return entryFormView{
		Mode:       form.Mode().String(),
		EditingID:  form.EditingID(),
		Values:     values,
		Categories: categories,
		Types:      transactionTypes,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	switch r.Method {
	case http.MethodGet:
		s.showTransactions(w, r, actor)
	case http.MethodPost:
		s.submitTransaction(w, r, actor)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// loadTransactionsPage fetches transactions and the category name-space
// concurrently. The category fetch is fail-soft and never fails the group.
func (s *Server) loadTransactionsPage(ctx context.Context, actor core.Actor) ([]core.Transaction, []string, error) {
	var (
		g    errgroup.Group
		txs  []core.Transaction
		cats []string
	)
	g.Go(func() error {
		var err error
		txs, err = s.txs.ListTransactions(ctx, actor)
		return err
	})
	g.Go(func() error {
		cats = s.cats.ListCategories(ctx, actor)
		return nil
	})
	err := g.Wait()
	return txs, cats, err
}

func (s *Server) showTransactions(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	ctx, notes := services.WithNotifications(r.Context())
	logger := applog.FromContext(ctx)

	filter := ParseFilterParams(r.URL.Query())
	form := services.NewEntryForm(s.txs)
	form.Edit(sanitizeInput(r.URL.Query().Get("edit")))

	txs, cats, err := s.loadTransactionsPage(ctx, actor)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load transactions",
			applog.FieldError, err,
			applog.FieldUserID, actor.UserID,
			applog.FieldOperation, applog.OpList)
	}

	view := transactionsView{
		pageMeta:     pageMeta{Title: "Transactions", Active: "transactions", User: actor, Notices: notes.All()},
		Filter:       filter,
		Categories:   cats,
		Transactions: core.ApplyFilter(txs, filter.Category, filter.Type),
		Total:        len(txs),
		Form:         newEntryFormView(form, form.Fields(), cats),
	}

	switch {
	case isHTMX(r) && htmxTarget(r) == "transaction-list":
		s.render(w, r, http.StatusOK, "transaction_list", view)
	case isHTMX(r) && htmxTarget(r) == "entry-form":
		s.render(w, r, http.StatusOK, "entry_form", view.Form)
	default:
		s.render(w, r, http.StatusOK, "transactions.html", view)
	}
}

func (s *Server) submitTransaction(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx, notes := services.WithNotifications(r.Context())
	logger := applog.FromContext(ctx)

	values, editingID := ParseEntryForm(r.PostForm)
	form := services.NewEntryForm(s.txs)
	form.Edit(editingID)
	mode := form.Mode()

	t, err := form.Submit(ctx, actor, values)
	if err != nil {
		logger.WarnContext(ctx, "Transaction submit failed",
			applog.FieldError, err,
			applog.FieldErrorType, errorType(err),
			applog.FieldUserID, actor.UserID,
			applog.FieldEntityID, editingID,
			applog.FieldOperation, mode.String())

		if isHTMX(r) {
			mutationResponse(notes, err).Write(w)
			return
		}
		// The binding survives a failed submit, and so does what was typed.
		txs, cats, _ := s.loadTransactionsPage(ctx, actor)
		view := transactionsView{
			pageMeta:     pageMeta{Title: "Transactions", Active: "transactions", User: actor, Notices: notes.All()},
			Filter:       ParseFilterParams(url.Values{}),
			Categories:   cats,
			Transactions: txs,
			Total:        len(txs),
			Form:         newEntryFormView(form, values, cats),
		}
		s.render(w, r, statusFor(err), "transactions.html", view)
		return
	}

	op := applog.OpCreate
	if mode == services.ModeEdit {
		op = applog.OpUpdate
	}
	applog.NewStructuredLogger(logger).LogTransactionSaved(ctx, op, actor.UserID, t.ID, t.Title,
		core.FormatAmount(t.Amount), t.Category, t.Type.String())

	if !isHTMX(r) {
		seeOther(w, r, "/transactions", nil)
		return
	}

	// The form is back in create mode; swap a blank one in.
	cats := s.cats.ListCategories(ctx, actor)
	body, rerr := s.renderString("entry_form", newEntryFormView(form, form.Fields(), cats))
	if rerr != nil {
		logger.ErrorContext(ctx, "Entry form render failed", applog.FieldError, rerr)
	}
	mutationResponse(notes, nil, EventTransactionsChanged, EventFormReset).
		BodyHTML(body).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	id, err := ParseEntityID(r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if id == "" {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	ctx, notes := services.WithNotifications(r.Context())
	err = s.txs.DeleteTransaction(ctx, actor, id)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Transaction delete failed",
			applog.FieldError, err,
			applog.FieldErrorType, errorType(err),
			applog.FieldUserID, actor.UserID,
			applog.FieldEntityID, id,
			applog.FieldOperation, applog.OpDelete)
	}

	if !isHTMX(r) && err == nil {
		seeOther(w, r, "/transactions", nil)
		return
	}
	mutationResponse(notes, err, EventTransactionsChanged).Write(w)
}
