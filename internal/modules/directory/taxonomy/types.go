// Package taxonomy builds the name→term-id lookup tables for regions,
// categories and tags.
package taxonomy

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/bdp-api/helper/internal/models"
)

// Kind is one of the three directory taxonomies.
type Kind string

const (
	KindRegion   Kind = "region"
	KindCategory Kind = "category"
	KindTag      Kind = "tag"
)

// Kinds lists every kind in preload order.
var Kinds = []Kind{KindRegion, KindCategory, KindTag}

// Taxonomy returns the storage taxonomy name for k.
func (k Kind) Taxonomy() string {
	switch k {
	case KindRegion:
		return models.TaxonomyRegion
	case KindCategory:
		return models.TaxonomyCategory
	case KindTag:
		return models.TaxonomyTag
	}
	return ""
}

var (
	// ErrNotPreloaded is returned by lookups attempted before the first preload.
	ErrNotPreloaded = errors.New("taxonomy lookups not preloaded")
	// ErrDuplicateTermName is returned by a strict preload when two enabled
	// terms normalize to the same name.
	ErrDuplicateTermName = errors.New("duplicate normalized term name")
)

// Term is a taxonomy value as read from the term store. EnabledMeta is the
// raw "enabled" term meta, nil when the term has none.
type Term struct {
	ID          uint
	Name        string
	Slug        string
	EnabledMeta *string
}

// Enabled reports whether the term takes part in lookups. Only an explicit
// false flag disables a term.
func (t Term) Enabled() bool {
	if t.EnabledMeta == nil {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(*t.EnabledMeta)) {
	case "false", "0":
		return false
	}
	return true
}

// TermStore lists every term of a taxonomy.
type TermStore interface {
	ListTerms(ctx context.Context, taxonomy string) ([]Term, error)
}

// NormalizeName is the lookup key for a term name: entity-decoded, trimmed, lowercased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(html.UnescapeString(name)))
}
