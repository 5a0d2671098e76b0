package registry

import (
	"sort"
	"strconv"
	"strings"
)

// Snapshot is an immutable view of the field registry. Never mutate the
// slices or maps it hands out; build a new Snapshot instead.
type Snapshot struct {
	version     uint64
	fields      []FieldDefinition
	byShortname map[string]int
	byID        map[uint]int
}

// NewSnapshot sorts fields by id and indexes them. Rows whose shortname
// collides with an earlier one are dropped; the caller decides how to report them.
func NewSnapshot(version uint64, fields []FieldDefinition) (*Snapshot, []FieldDefinition) {
	sorted := make([]FieldDefinition, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s := &Snapshot{
		version:     version,
		fields:      make([]FieldDefinition, 0, len(sorted)),
		byShortname: make(map[string]int, len(sorted)),
		byID:        make(map[uint]int, len(sorted)),
	}
	var dropped []FieldDefinition
	for _, f := range sorted {
		if f.Shortname == "" {
			dropped = append(dropped, f)
			continue
		}
		if _, dup := s.byShortname[f.Shortname]; dup {
			dropped = append(dropped, f)
			continue
		}
		if _, dup := s.byID[f.ID]; dup {
			dropped = append(dropped, f)
			continue
		}
		s.byShortname[f.Shortname] = len(s.fields)
		s.byID[f.ID] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, dropped
}

// Version increases every time the cache swaps in a new snapshot.
func (s *Snapshot) Version() uint64 { return s.version }

// Len is the number of fields.
func (s *Snapshot) Len() int { return len(s.fields) }

// Fields returns a copy of the definitions ordered by id.
func (s *Snapshot) Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(s.fields))
	copy(out, s.fields)
	return out
}

// FindByShortname looks a field up by its shortname.
func (s *Snapshot) FindByShortname(name string) (FieldDefinition, bool) {
	i, ok := s.byShortname[name]
	if !ok {
		return FieldDefinition{}, false
	}
	return s.fields[i], true
}

// FindByID looks a field up by its numeric id.
func (s *Snapshot) FindByID(id uint) (FieldDefinition, bool) {
	i, ok := s.byID[id]
	if !ok {
		return FieldDefinition{}, false
	}
	return s.fields[i], true
}

// ResolveMetaKey accepts either a storage meta key (_wpbdp[fields][<id>]) or a
// bare shortname and returns the field it designates.
func (s *Snapshot) ResolveMetaKey(key string) (FieldDefinition, bool) {
	if id, ok := parseMetaKey(key); ok {
		return s.FindByID(id)
	}
	return s.FindByShortname(key)
}

func parseMetaKey(key string) (uint, bool) {
	const prefix, suffix = "_wpbdp[fields][", "]"
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
		return 0, false
	}
	raw := key[len(prefix) : len(key)-len(suffix)]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || strconv.FormatUint(id, 10) != raw {
		return 0, false
	}
	return uint(id), true
}
