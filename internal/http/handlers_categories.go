package http

import (
	"net/http"

	"pfbt/internal/core"
	applog "pfbt/internal/log"
	"pfbt/internal/services"
)

type categoriesView struct {
	pageMeta
	Builtin []string
	Custom  []core.Category
	Name    string
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	switch r.Method {
	case http.MethodGet:
		s.showCategories(w, r, actor, http.StatusOK, "", nil)
	case http.MethodPost:
		s.createCategory(w, r, actor)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) showCategories(w http.ResponseWriter, r *http.Request, actor core.Actor, status int, name string, prior []services.Notification) {
	ctx, notes := services.WithNotifications(r.Context())

	custom, err := s.cats.ListCustom(ctx, actor)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to load categories",
			applog.FieldError, err,
			applog.FieldUserID, actor.UserID,
			applog.FieldOperation, applog.OpList)
	}

	// Notices raised by the failed mutation that brought us here come first.
	notices := append(prior, notes.All()...)
	view := categoriesView{
		pageMeta: pageMeta{Title: "Categories", Active: "categories", User: actor, Notices: notices},
		Builtin:  core.BuiltinCategories,
		Custom:   custom,
		Name:     name,
	}

	if isHTMX(r) && htmxTarget(r) == "category-list" {
		s.render(w, r, status, "category_list", view)
		return
	}
	s.render(w, r, status, "categories.html", view)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx, notes := services.WithNotifications(r.Context())
	// Built-in names match exactly, so surrounding spaces are kept.
	name := stripControl(r.PostForm.Get("name"))

	c, err := s.cats.CreateCategory(ctx, actor, name)
	logger := applog.FromContext(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Category create failed",
			applog.FieldError, err,
			applog.FieldErrorType, errorType(err),
			applog.FieldUserID, actor.UserID,
			applog.FieldCategory, name)
		if isHTMX(r) {
			mutationResponse(notes, err).Write(w)
			return
		}
		s.showCategories(w, r, actor, statusFor(err), name, notes.All())
		return
	}
	logger.InfoContext(ctx, "Category created",
		applog.FieldUserID, actor.UserID,
		applog.FieldEntityID, c.ID,
		applog.FieldCategory, c.Name,
		applog.FieldOperation, applog.OpCreate)

	if !isHTMX(r) {
		seeOther(w, r, "/categories", nil)
		return
	}
	mutationResponse(notes, nil, EventCategoriesChanged, EventFormReset).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, actor core.Actor) {
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
		BadRequestError("Missing category id").Write(w)
		return
	}

	ctx, notes := services.WithNotifications(r.Context())
	if err = s.cats.DeleteCategory(ctx, actor, id); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Category delete failed",
			applog.FieldError, err,
			applog.FieldErrorType, errorType(err),
			applog.FieldUserID, actor.UserID,
			applog.FieldEntityID, id,
			applog.FieldOperation, applog.OpDelete)
	}

	if !isHTMX(r) && err == nil {
		seeOther(w, r, "/categories", nil)
		return
	}
	mutationResponse(notes, err, EventCategoriesChanged).Write(w)
}
