package memory

import (
	"bufio"
	"cmp"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

// Store is a schemaless in-process gateway. It enforces ownership and the
// per-user category name constraint but accepts whatever field values it is
// given, the way a document store would.
type Store struct {
	mu       sync.Mutex
	txs      []core.Transaction
	cats     []core.Category
	activity []core.Change
}

func New() *Store {
	return &Store{}
}

// NewFromFiles seeds custom categories for seedUser from
// base/seed_categories.txt. Missing files leave the store empty.
func NewFromFiles(base, seedUser string) *Store {
	s := New()
	if seedUser == "" {
		return s
	}
	for _, name := range readLines(filepath.Join(base, "seed_categories.txt")) {
		if core.IsBuiltin(name) {
			continue
		}
		s.cats = append(s.cats, core.Category{ID: uuid.NewString(), UserID: seedUser, Name: name})
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

// ListTransactions returns the actor's rows, newest date first.
func (s *Store) ListTransactions(_ context.Context, actor core.Actor) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if !actor.Anonymous() && t.UserID == actor.UserID {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, actor core.Actor, t core.Transaction) (core.Transaction, error) {
	if actor.Anonymous() || t.UserID != actor.UserID {
		return core.Transaction{}, gateway.ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, actor core.Actor, id string, in core.TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTx(actor, id)
	if i < 0 {
		return core.Transaction{}, gateway.ErrNotFound
	}
	s.txs[i] = in.Transaction(id, s.txs[i].UserID)
	return s.txs[i], nil
}

func (s *Store) DeleteTransaction(_ context.Context, actor core.Actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTx(actor, id)
	if i < 0 {
		return gateway.ErrNotFound
	}
	s.txs = slices.Delete(s.txs, i, i+1)
	return nil
}

func (s *Store) findTx(actor core.Actor, id string) int {
	if actor.Anonymous() {
		return -1
	}
	return slices.IndexFunc(s.txs, func(t core.Transaction) bool {
		return t.ID == id && t.UserID == actor.UserID
	})
}

func (s *Store) ListCategories(_ context.Context, actor core.Actor) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.cats {
		if !actor.Anonymous() && c.UserID == actor.UserID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, actor core.Actor, c core.Category) (core.Category, error) {
	if actor.Anonymous() || c.UserID != actor.UserID {
		return core.Category{}, gateway.ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats {
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return core.Category{}, gateway.ErrUniqueViolation
		}
	}
	c.ID = uuid.NewString()
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, actor core.Actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.cats, func(c core.Category) bool {
		return !actor.Anonymous() && c.ID == id && c.UserID == actor.UserID
	})
	if i < 0 {
		return gateway.ErrNotFound
	}
	s.cats = slices.Delete(s.cats, i, i+1)
	return nil
}

func (s *Store) RecordActivity(_ context.Context, c core.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, c)
	return nil
}

// ListActivity returns the newest limit entries for userID. A non-positive
// limit returns everything.
func (s *Store) ListActivity(_ context.Context, userID string, limit int) ([]core.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Change
	for _, c := range s.activity {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Change) int {
		return cmp.Compare(b.At.UnixNano(), a.At.UnixNano())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
