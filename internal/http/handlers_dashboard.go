package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"pfbt/internal/core"
	applog "pfbt/internal/log"
	"pfbt/internal/services"
)

const recentActivityLimit = 20

type dashboardView struct {
	pageMeta
	Summary  core.Summary
	Activity []core.Change
}

// handleDashboard renders totals for the actor's transactions next to the
// most recent entries of the change feed.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, actor core.Actor) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx, notes := services.WithNotifications(r.Context())
	logger := applog.FromContext(ctx)

	var (
		g        errgroup.Group
		txs      []core.Transaction
		activity []core.Change
	)
	g.Go(func() error {
		var err error
		txs, err = s.txs.ListTransactions(ctx, actor)
		return err
	})
	if s.activity != nil {
		g.Go(func() error {
			var err error
			activity, err = s.activity.ListActivity(ctx, actor.UserID, recentActivityLimit)
			if err != nil {
				// The feed is decoration; the totals still render without it.
				logger.WarnContext(ctx, "Failed to load activity", applog.FieldError, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Failed to load dashboard",
			applog.FieldError, err,
			applog.FieldUserID, actor.UserID)
	}

	s.render(w, r, http.StatusOK, "dashboard.html", dashboardView{
		pageMeta: pageMeta{Title: "Dashboard", Active: "dashboard", User: actor, Notices: notes.All()},
		Summary:  core.Summarize(txs),
		Activity: activity,
	})
}
