package taxonomy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Service builds Lookups from the term store and holds the current set.
type Service struct {
	store  TermStore
	strict bool
	logger *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[Lookups]
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictNames makes preload fail when two enabled terms share a normalized name.
func WithStrictNames(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

func NewService(store TermStore, opts ...Option) *Service {
	s := &Service{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("TaxonomyService")
	return s
}

// Preload rebuilds all three tables and swaps them in together. On failure
// the previous tables stay in place.
func (s *Service) Preload(ctx context.Context) (*Lookups, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &Lookups{tables: make(map[Kind]*Table, len(Kinds))}
	for _, k := range Kinds {
		t, err := s.build(ctx, k)
		if err != nil {
			s.logger.Error("preload failed", zap.String("kind", string(k)), zap.Error(err))
			return nil, err
		}
		l.tables[k] = t
	}
	l.builtAt = time.Now()
	s.current.Store(l)
	s.logger.Info("term lookups preloaded",
		zap.Int("regions", l.Table(KindRegion).Len()),
		zap.Int("categories", l.Table(KindCategory).Len()),
		zap.Int("tags", l.Table(KindTag).Len()))
	return l, nil
}

func (s *Service) build(ctx context.Context, k Kind) (*Table, error) {
	terms, err := s.store.ListTerms(ctx, k.Taxonomy())
	if err != nil {
		return nil, fmt.Errorf("list %s terms: %w", k, err)
	}

	ids := make(map[string]uint, len(terms))
	for _, term := range terms {
		if !term.Enabled() {
			continue
		}
		name := NormalizeName(term.Name)
		if name == "" {
			continue
		}
		if prev, dup := ids[name]; dup && prev != term.ID {
			if s.strict {
				return nil, fmt.Errorf("%w: %s %q (terms %d and %d)", ErrDuplicateTermName, k, name, prev, term.ID)
			}
			s.logger.Warn("duplicate term name, later term wins",
				zap.String("kind", string(k)), zap.String("name", name),
				zap.Uint("dropped", prev), zap.Uint("kept", term.ID))
		}
		ids[name] = term.ID
	}
	return &Table{kind: k, ids: ids}, nil
}

// Current returns the tables of the last successful preload.
func (s *Service) Current() (*Lookups, error) {
	l := s.current.Load()
	if l == nil {
		return nil, ErrNotPreloaded
	}
	return l, nil
}

// FindTermID resolves raw against the current tables. It fails closed with
// ErrNotPreloaded rather than reporting every name as unknown.
func (s *Service) FindTermID(k Kind, raw string) (uint, bool, error) {
	l, err := s.Current()
	if err != nil {
		return 0, false, err
	}
	id, ok := l.FindTermID(k, raw)
	return id, ok, nil
}
