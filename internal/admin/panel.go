// Package admin holds the catalog and user management panels. Each panel
// lists one backend collection, saves and deletes entries, and keeps the
// raw backend message of its last failure.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/resource"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// Store is the CRUD surface a panel drives. *resource.Client satisfies it.
type Store[T resource.Entity] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id int64, v T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves every prompt.
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

// Panel is the list/save/delete view of one entity kind.
type Panel[T resource.Entity] struct {
	name    string
	store   Store[T]
	confirm Confirmer
	logger  *slog.Logger

	mu    sync.Mutex
	items []T
	err   string
}

// NewPanel creates a panel over store. name labels prompts and logs.
func NewPanel[T resource.Entity](name string, store Store[T], confirm Confirmer, log *slog.Logger) *Panel[T] {
	return &Panel[T]{name: name, store: store, confirm: confirm, logger: log}
}

// Load fetches the collection.
func (p *Panel[T]) Load(ctx context.Context) error {
	items, err := p.store.List(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.err = apperrors.Message(err)
		logger.WithContext(ctx, p.logger).WarnContext(ctx, "loading panel failed",
			slog.String("panel", p.name),
			slog.String("error", err.Error()),
		)
		return err
	}
	p.items, p.err = items, ""
	return nil
}

// Save creates v when its id is zero and updates it otherwise, then
// refreshes the list.
func (p *Panel[T]) Save(ctx context.Context, v T) (T, error) {
	var saved T
	if err := api.Validate(v); err != nil {
		p.setErr(err)
		return saved, err
	}

	var err error
	if v.GetID() == 0 {
		saved, err = p.store.Create(ctx, v)
	} else {
		saved, err = p.store.Update(ctx, v.GetID(), v)
	}
	if err != nil {
		p.setErr(err)
		return saved, err
	}

	logger.WithContext(ctx, p.logger).InfoContext(ctx, "saved",
		slog.String("panel", p.name),
		slog.Int64("id", saved.GetID()),
	)
	return saved, p.Load(ctx)
}

// Delete removes the entry with id after the confirmer approves. A declined
// prompt sends nothing and reports false.
func (p *Panel[T]) Delete(ctx context.Context, id int64, label string) (bool, error) {
	if p.confirm == nil || !p.confirm.Confirm(fmt.Sprintf("Delete %s %q?", p.name, label)) {
		return false, nil
	}
	if err := p.store.Delete(ctx, id); err != nil {
		p.setErr(err)
		return false, err
	}
	logger.WithContext(ctx, p.logger).InfoContext(ctx, "deleted",
		slog.String("panel", p.name),
		slog.Int64("id", id),
	)
	return true, p.Load(ctx)
}

// Items returns the loaded entries.
func (p *Panel[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.items...)
}

// Find returns the loaded entry with id.
func (p *Panel[T]) Find(id int64) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		if it.GetID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Err returns the raw message of the last failure, or "".
func (p *Panel[T]) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Panel[T]) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = apperrors.Message(err)
}
