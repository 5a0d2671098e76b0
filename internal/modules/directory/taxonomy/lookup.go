package taxonomy

import "time"

// Table maps normalized names of the enabled terms of one taxonomy to their ids.
type Table struct {
	kind Kind
	ids  map[string]uint
}

// Lookup resolves an already-normalized name.
func (t *Table) Lookup(name string) (uint, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Entries returns a copy of the name→id table.
func (t *Table) Entries() map[string]uint {
	out := make(map[string]uint, len(t.ids))
	for k, v := range t.ids {
		out[k] = v
	}
	return out
}

func (t *Table) Len() int { return len(t.ids) }

// Lookups is an immutable set of the three tables built by one preload.
type Lookups struct {
	tables  map[Kind]*Table
	builtAt time.Time
}

// NewLookups assembles tables built elsewhere (tests, alternative loaders).
func NewLookups(tables map[Kind]map[string]uint) *Lookups {
	l := &Lookups{tables: make(map[Kind]*Table, len(Kinds)), builtAt: time.Now()}
	for _, k := range Kinds {
		ids := make(map[string]uint, len(tables[k]))
		for name, id := range tables[k] {
			ids[NormalizeName(name)] = id
		}
		l.tables[k] = &Table{kind: k, ids: ids}
	}
	return l
}

// Table returns the table for k; never nil.
func (l *Lookups) Table(k Kind) *Table {
	if t, ok := l.tables[k]; ok {
		return t
	}
	return &Table{kind: k, ids: map[string]uint{}}
}

// BuiltAt is when the preload producing these tables finished.
func (l *Lookups) BuiltAt() time.Time { return l.builtAt }

// FindTermID resolves a human-entered name. Region names go through the
// alias table first.
func (l *Lookups) FindTermID(k Kind, raw string) (uint, bool) {
	name := NormalizeName(raw)
	if name == "" {
		return 0, false
	}
	if k == KindRegion {
		name = ResolveRegionAlias(name)
	}
	return l.Table(k).Lookup(name)
}
