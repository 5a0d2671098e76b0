package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	rows  []FieldDefinition
	err   error
	calls int
	assoc []string
}

func (s *fakeStore) ListFields(_ context.Context, associations []string) ([]FieldDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.assoc = associations
	if s.err != nil {
		return nil, s.err
	}
	out := make([]FieldDefinition, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

type fakeSlot struct {
	saved []FieldDefinition
	found bool
	err   error
}

func (s *fakeSlot) LoadFields(context.Context) ([]FieldDefinition, bool, error) {
	return s.saved, s.found, s.err
}

func (s *fakeSlot) SaveFields(_ context.Context, fields []FieldDefinition) error {
	s.saved = fields
	s.found = true
	return nil
}

func sampleRows() []FieldDefinition {
	return []FieldDefinition{
		{ID: 7, Shortname: "Website", Label: "Website", Association: "meta", FieldType: "URL", Validators: "url"},
		{ID: 2, Shortname: "phone number", Label: "Phone", Association: "meta", FieldType: "textfield"},
		{ID: 9, Shortname: "region", Label: "Region", Association: "region", FieldType: "select"},
	}
}

func TestRefreshSanitizesAndSorts(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	slot := &fakeSlot{}
	c := NewCache(store, slot)

	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"meta", "region"}, store.assoc)

	fields := snap.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, uint(2), fields[0].ID)
	assert.Equal(t, "phonenumber", fields[0].Shortname)
	assert.Equal(t, "website", fields[1].Shortname)
	assert.Equal(t, "url", fields[1].FieldType)
	assert.Equal(t, fields, slot.saved)
}

func TestFindFieldByShortnameCoversEveryField(t *testing.T) {
	c := NewCache(&fakeStore{rows: sampleRows()}, nil)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	for _, f := range c.ListFields() {
		got, ok := c.FindFieldByShortname(f.Shortname)
		require.True(t, ok, f.Shortname)
		assert.Equal(t, f.ID, got.ID)

		_, ok = c.FindFieldByShortname(f.Shortname + "_x")
		assert.False(t, ok)
		_, ok = c.Snapshot().ResolveMetaKey(MetaKey(f.ID))
		assert.True(t, ok)
	}
	_, ok := c.Snapshot().ResolveMetaKey("_wpbdp[fields][404]")
	assert.False(t, ok)
	_, ok = c.Snapshot().ResolveMetaKey("_wpbdp[fields][07]")
	assert.False(t, ok)
}

func TestRefreshWithNoRowsClearsCache(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	c := NewCache(store, nil)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, c.Snapshot().Len())

	store.rows = nil
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Snapshot().Len())
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	c := NewCache(store, nil)
	first, err := c.Refresh(context.Background())
	require.NoError(t, err)

	store.err = errors.New("db gone")
	_, err = c.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, first, c.Snapshot())
}

func TestDuplicateShortnamesKeepLowestID(t *testing.T) {
	rows := []FieldDefinition{
		{ID: 5, Shortname: "email", Association: "meta"},
		{ID: 3, Shortname: "Email", Association: "meta"},
		{ID: 4, Shortname: "!!!", Association: "meta"},
	}
	c := NewCache(&fakeStore{rows: rows}, nil)
	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
	f, ok := snap.FindByShortname("email")
	require.True(t, ok)
	assert.Equal(t, uint(3), f.ID)
}

func TestLoadPrefersPersistedSlot(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	slot := &fakeSlot{found: true, saved: []FieldDefinition{{ID: 1, Shortname: "cached", Association: "meta"}}}
	c := NewCache(store, slot)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 0, store.calls)
	_, ok := c.FindFieldByShortname("cached")
	assert.True(t, ok)

	empty := &fakeSlot{}
	c2 := NewCache(store, empty)
	require.NoError(t, c2.Load(context.Background()))
	assert.Equal(t, 1, store.calls)
	assert.True(t, empty.found)
}

func TestOnSwapAndHandleEvent(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	c := NewCache(store, nil)
	var versions []uint64
	c.OnSwap(func(s *Snapshot) { versions = append(versions, s.Version()) })

	require.NoError(t, c.HandleEvent(context.Background(), Event{Type: EventFieldSaved, FieldID: 7}))
	store.rows = store.rows[:1]
	require.NoError(t, c.HandleEvent(context.Background(), Event{Type: EventFieldDeleted, FieldID: 2}))

	assert.Equal(t, []uint64{1, 2}, versions)
	assert.Equal(t, 1, c.Snapshot().Len())
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"field_deleted","field_id":4}`))
	require.NoError(t, err)
	assert.Equal(t, Event{Type: EventFieldDeleted, FieldID: 4}, ev)

	_, err = DecodeEvent([]byte(`{"type":"field_renamed"}`))
	assert.Error(t, err)
	_, err = DecodeEvent([]byte(`nope`))
	assert.Error(t, err)
}
