package services

import (
	"context"
	"strings"

	"pfbt/internal/core"
)

// FormMode is the state of an EntryForm.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

func (m FormMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormValues are the raw text fields of the transaction entry form.
type FormValues struct {
	Title       string
	Amount      string
	Category    string
	Type        string
	Date        string
	Description string
}

// Input converts raw form text into a TransactionInput. Nothing is rejected
// here: an unparseable amount stays invalid and a bad date becomes empty.
func (v FormValues) Input() core.TransactionInput {
	d, _ := core.ParseDate(strings.TrimSpace(v.Date))
	return core.TransactionInput{
		Title:       v.Title,
		Amount:      core.ParseAmount(v.Amount),
		Category:    v.Category,
		Type:        core.TransactionType(v.Type),
		Date:        d,
		Description: v.Description,
	}
}

// EntryForm drives the create-or-update transaction form.
//
// Editing binds the target id but does not load the row, so Fields always
// returns blank defaults and a submit overwrites every stored field.
type EntryForm struct {
	txs     *TransactionService
	editing string
}

func NewEntryForm(txs *TransactionService) *EntryForm {
	return &EntryForm{txs: txs}
}

func (f *EntryForm) Mode() FormMode {
	if f.editing != "" {
		return ModeEdit
	}
	return ModeCreate
}

// EditingID is the bound transaction id, empty in create mode.
func (f *EntryForm) EditingID() string { return f.editing }

// Edit binds id. An empty id is the same as Cancel.
func (f *EntryForm) Edit(id string) { f.editing = id }

func (f *EntryForm) Cancel() { f.editing = "" }

// Fields returns the values the form opens with.
func (f *EntryForm) Fields() FormValues { return FormValues{} }

// Submit dispatches the create or update. Only a successful submit returns
// the form to create mode.
func (f *EntryForm) Submit(ctx context.Context, actor core.Actor, v FormValues) (core.Transaction, error) {
	t, err := f.txs.UpsertTransaction(ctx, actor, v.Input(), f.editing)
	if err != nil {
		return core.Transaction{}, err
	}
	f.editing = ""
	return t, nil
}
