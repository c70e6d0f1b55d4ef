// Package identity resolves the authenticated user of a request.
//
// Authentication itself happens upstream (an auth proxy or the hosted auth
// service); this package only reads the result and turns it into a core.Actor
// that is passed explicitly into every service call.
package identity

import (
	"context"
	"net/http"
	"strings"

	"pfbt/internal/core"
)

// Provider looks up the current user for a request.
type Provider interface {
	CurrentUser(r *http.Request) (core.Actor, bool)
}

// HeaderProvider trusts identity headers set by an authenticating proxy.
// Headers are only read when TrustedPeer accepts the direct peer; a nil
// TrustedPeer accepts nobody.
type HeaderProvider struct {
	UserHeader  string
	EmailHeader string
	NameHeader  string
	TrustedPeer func(r *http.Request) bool
}

func (p HeaderProvider) CurrentUser(r *http.Request) (core.Actor, bool) {
	if p.TrustedPeer == nil || !p.TrustedPeer(r) {
		return core.Actor{}, false
	}
	id := strings.TrimSpace(r.Header.Get(p.UserHeader))
	if id == "" {
		return core.Actor{}, false
	}
	a := core.Actor{UserID: id}
	if p.EmailHeader != "" {
		a.Email = strings.TrimSpace(r.Header.Get(p.EmailHeader))
	}
	if p.NameHeader != "" {
		if name := strings.TrimSpace(r.Header.Get(p.NameHeader)); name != "" {
			a.Metadata = map[string]string{"full_name": name}
		}
	}
	return a, true
}

// StaticProvider always returns the same actor. Used for local development.
type StaticProvider struct {
	Actor core.Actor
}

func (p StaticProvider) CurrentUser(*http.Request) (core.Actor, bool) {
	return p.Actor, !p.Actor.Anonymous()
}

// Chain tries providers in order.
type Chain []Provider

func (c Chain) CurrentUser(r *http.Request) (core.Actor, bool) {
	for _, p := range c {
		if a, ok := p.CurrentUser(r); ok {
			return a, true
		}
	}
	return core.Actor{}, false
}

type actorKey struct{}

// WithActor stores a in ctx.
func WithActor(ctx context.Context, a core.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (core.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(core.Actor)
	return a, ok && !a.Anonymous()
}

// Middleware resolves the actor once per request and stores it in the
// request context. Requests without a user pass through unchanged.
func Middleware(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a, ok := p.CurrentUser(r); ok {
				r = r.WithContext(WithActor(r.Context(), a))
			}
			next.ServeHTTP(w, r)
		})
	}
}
