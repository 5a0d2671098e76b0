package listing

import (
	"context"
	"fmt"
	"testing"

	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
	"github.com/stretchr/testify/require"
)

type staticFields struct{ snap *registry.Snapshot }

func (f staticFields) Snapshot() *registry.Snapshot { return f.snap }

type staticTerms struct {
	lookups *taxonomy.Lookups
	err     error
}

func (t staticTerms) Current() (*taxonomy.Lookups, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.lookups, nil
}

func sampleSnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()
	snap, dropped := registry.NewSnapshot(1, []registry.FieldDefinition{
		{ID: 2, Shortname: "phone", Label: "Phone", Association: "meta", FieldType: "textfield"},
		{ID: 3, Shortname: "website", Label: "Website", Association: "meta", FieldType: "url", Validators: "url"},
		{ID: 5, Shortname: "contact_email", Label: "Email", Association: "meta", FieldType: "textfield", Validators: `a:1:{i:0;s:5:"email";}`},
		{ID: 7, Shortname: "employees", Label: "Employees", Association: "meta", FieldType: "textfield", Validators: "integer_number"},
		{ID: 9, Shortname: "amenities", Label: "Amenities", Association: "meta", FieldType: "checkbox"},
	})
	require.Empty(t, dropped)
	return snap
}

func sampleLookups() *taxonomy.Lookups {
	return taxonomy.NewLookups(map[taxonomy.Kind]map[string]uint{
		taxonomy.KindRegion: {
			"United States": 10,
			"California":    11,
			"Los Angeles":   12,
			"Canada":        20,
			"Ontario":       21,
		},
		taxonomy.KindCategory: {
			"Restaurants": 30,
			"Cafes":       31,
		},
		taxonomy.KindTag: {
			"wifi":    40,
			"parking": 41,
		},
	})
}

func sampleEnv(t *testing.T) Env {
	t.Helper()
	snap := sampleSnapshot(t)
	return Env{Fields: snap, Terms: sampleLookups(), Args: BuildArgShapes(snap)}
}

// memStore is an in-memory ContentStore recording every write in order.
type memStore struct {
	listings    map[uint]*Listing
	meta        map[uint]map[string]interface{}
	terms       map[uint]map[string][]uint
	attachments map[uint]bool
	nextID      uint

	ops     []string
	failOn  map[string]error
	created int
}

func newMemStore() *memStore {
	return &memStore{
		listings:    map[uint]*Listing{},
		meta:        map[uint]map[string]interface{}{},
		terms:       map[uint]map[string][]uint{},
		attachments: map[uint]bool{500: true},
		nextID:      100,
		failOn:      map[string]error{},
	}
}

func (s *memStore) seed(l Listing) {
	cp := l
	s.listings[l.ID] = &cp
}

func (s *memStore) fail(op string) error {
	s.ops = append(s.ops, op)
	return s.failOn[op]
}

func (s *memStore) FindByTitle(_ context.Context, title string) (*Listing, error) {
	for _, l := range s.listings {
		if l.Title == title {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) Get(_ context.Context, id uint) (*Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, l Listing) (uint, error) {
	if err := s.fail("create"); err != nil {
		return 0, err
	}
	s.created++
	s.nextID++
	l.ID = s.nextID
	s.listings[l.ID] = &l
	return l.ID, nil
}

func (s *memStore) UpdateCore(_ context.Context, id uint, title, status *string) error {
	if err := s.fail("core"); err != nil {
		return err
	}
	if title != nil {
		for other, l := range s.listings {
			if other != id && l.Title == *title {
				return ErrDuplicateTitle
			}
		}
	}
	if title != nil {
		s.listings[id].Title = *title
	}
	if status != nil {
		s.listings[id].Status = *status
	}
	return nil
}

func (s *memStore) GetMeta(_ context.Context, id uint, key string) (interface{}, bool, error) {
	v, ok := s.meta[id][key]
	return v, ok, nil
}

func (s *memStore) SetMeta(_ context.Context, id uint, key string, value interface{}) error {
	if err := s.fail("meta:" + key); err != nil {
		return err
	}
	if s.meta[id] == nil {
		s.meta[id] = map[string]interface{}{}
	}
	s.meta[id][key] = value
	return nil
}

func (s *memStore) SetTerms(_ context.Context, id uint, tax string, ids []uint) error {
	if err := s.fail("terms:" + tax); err != nil {
		return err
	}
	if s.terms[id] == nil {
		s.terms[id] = map[string][]uint{}
	}
	s.terms[id][tax] = ids
	return nil
}

func (s *memStore) SetFeaturedMedia(_ context.Context, id, mediaID uint) error {
	if err := s.fail(fmt.Sprintf("featured:%d", mediaID)); err != nil {
		return err
	}
	s.listings[id].FeaturedMediaID = mediaID
	return nil
}

func (s *memStore) AttachmentExists(_ context.Context, id uint) (bool, error) {
	return s.attachments[id], nil
}

func newTestService(t *testing.T, store *memStore, opts ...Option) *Service {
	t.Helper()
	return NewService(store, staticFields{sampleSnapshot(t)}, staticTerms{lookups: sampleLookups()}, opts...)
}
