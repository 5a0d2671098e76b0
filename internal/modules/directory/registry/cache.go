package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bdp-api/helper/internal/models"
	"go.uber.org/zap"
)

var cachedAssociations = []string{models.AssociationMeta, models.AssociationRegion}

// Cache holds the current Snapshot. Reads are lock-free; refreshes are
// serialized so a persist and its swap never interleave with another refresh.
type Cache struct {
	store  FieldStore
	slot   SnapshotSlot
	logger *zap.Logger

	mu        sync.Mutex
	version   uint64
	listeners []func(*Snapshot)
	current   atomic.Pointer[Snapshot]
}

type Option func(*Cache)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache returns a cache holding an empty snapshot until Load or Refresh runs.
func NewCache(store FieldStore, slot SnapshotSlot, opts ...Option) *Cache {
	c := &Cache{store: store, slot: slot, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("RegistryCache")
	empty, _ := NewSnapshot(0, nil)
	c.current.Store(empty)
	return c
}

// Snapshot returns the current snapshot; never nil.
func (c *Cache) Snapshot() *Snapshot { return c.current.Load() }

// ListFields returns the cached definitions.
func (c *Cache) ListFields() []FieldDefinition { return c.Snapshot().Fields() }

// FindFieldByShortname looks a field up in the current snapshot.
func (c *Cache) FindFieldByShortname(name string) (FieldDefinition, bool) {
	return c.Snapshot().FindByShortname(name)
}

// OnSwap registers fn to run after every snapshot swap, with the new snapshot.
func (c *Cache) OnSwap(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load restores the persisted snapshot, refreshing from the store when the
// slot is empty or unreadable.
func (c *Cache) Load(ctx context.Context) error {
	if c.slot != nil {
		fields, found, err := c.slot.LoadFields(ctx)
		if err != nil {
			c.logger.Warn("snapshot slot unreadable, refreshing", zap.Error(err))
		} else if found {
			c.mu.Lock()
			c.swapLocked(fields)
			c.mu.Unlock()
			c.logger.Info("field registry restored", zap.Int("fields", len(fields)))
			return nil
		}
	}
	_, err := c.Refresh(ctx)
	return err
}

// Refresh re-reads every meta/region field from the store, persists the
// result and swaps it in. An empty result clears the cache.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	rows, err := c.store.ListFields(ctx, cachedAssociations)
	if err != nil {
		c.logger.Error("list fields failed", zap.Error(err))
		return nil, fmt.Errorf("list fields: %w", err)
	}

	fields := make([]FieldDefinition, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, FieldDefinition{
			ID:          row.ID,
			Shortname:   sanitizeKey(row.Shortname),
			Label:       row.Label,
			Association: sanitizeKey(row.Association),
			FieldType:   sanitizeKey(row.FieldType),
			Validators:  row.Validators,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.swapLocked(fields)
	if c.slot != nil {
		if err := c.slot.SaveFields(ctx, snap.Fields()); err != nil {
			c.logger.Warn("persist field snapshot failed", zap.Error(err))
		}
	}
	c.logger.Info("field registry refreshed", zap.Int("fields", snap.Len()), zap.Uint64("version", snap.Version()))
	return snap, nil
}

func (c *Cache) swapLocked(fields []FieldDefinition) *Snapshot {
	c.version++
	snap, dropped := NewSnapshot(c.version, fields)
	for _, f := range dropped {
		c.logger.Warn("field skipped: empty or duplicate shortname",
			zap.Uint("id", f.ID), zap.String("shortname", f.Shortname))
	}
	c.current.Store(snap)
	for _, fn := range c.listeners {
		fn(snap)
	}
	return snap
}

// HandleEvent refreshes the registry in response to an external schema change.
func (c *Cache) HandleEvent(ctx context.Context, ev Event) error {
	c.logger.Info("field change event", zap.String("type", string(ev.Type)), zap.Uint("field_id", ev.FieldID))
	_, err := c.Refresh(ctx)
	return err
}
