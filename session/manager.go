package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sweetpotato0/voyager/catalog"
	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/state"
)

// Store defines the interface for session storage backends that operate on
// serializable session records. Load returns an error wrapping
// errors.ErrNotFound for an unknown id.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Manager loads and saves conversation states through a Store.
type Manager struct {
	store   Store
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithLogger overrides the logger used by the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager over store. Restored states are bound
// to cat.
//
// Example:
//
//	mgr := session.NewManager(inmemory.NewInMemoryStore(), cat)
func NewManager(store Store, cat *catalog.Catalog, opts ...Option) *Manager {
	m := &Manager{store: store, catalog: cat}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent("session_manager")
	}
	return m
}

// Catalog returns the catalog restored states are bound to.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Load restores the state of conversation id.
func (m *Manager) Load(ctx context.Context, id string) (*state.State, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	record, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	st, missing := record.Restore(m.catalog)
	if len(missing) > 0 {
		m.logger.WarnContext(ctx, "session references packages missing from the catalog", "id", id, "package_ids", missing)
	}
	return st, nil
}

// GetOrCreate restores conversation id, or starts a new one when the store
// does not know it. The new state is not saved until Save is called.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*state.State, bool, error) {
	st, err := m.Load(ctx, id)
	switch {
	case err == nil:
		return st, false, nil
	case errors.Is(err, errorspkg.ErrNotFound):
		m.logger.InfoContext(ctx, "starting conversation", "id", id)
		return state.New(id, m.catalog), true, nil
	default:
		m.logger.ErrorContext(ctx, "load session failed", "id", id, "error", err)
		return nil, false, err
	}
}

// Save persists st.
func (m *Manager) Save(ctx context.Context, st *state.State) error {
	if err := m.ensureStore(); err != nil {
		return err
	}
	if st == nil || st.ID == "" {
		return fmt.Errorf("%w: session state needs an id", errorspkg.ErrInvalidInput)
	}
	if err := m.store.Save(ctx, Snapshot(st)); err != nil {
		m.logger.ErrorContext(ctx, "save session failed", "id", st.ID, "error", err)
		return err
	}
	m.logger.DebugContext(ctx, "session saved", "id", st.ID, "stage", st.Stage)
	return nil
}

// Delete removes conversation id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.ensureStore(); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.ErrorContext(ctx, "delete session failed", "id", id, "error", err)
		return err
	}
	m.logger.InfoContext(ctx, "session deleted", "id", id)
	return nil
}

// List returns the stored conversation ids.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	return m.store.List(ctx)
}

// Count returns the number of stored conversations.
func (m *Manager) Count(ctx context.Context) (int, error) {
	if err := m.ensureStore(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

func (m *Manager) ensureStore() error {
	if m.store == nil {
		return fmt.Errorf("session manager store is not configured")
	}
	return nil
}
