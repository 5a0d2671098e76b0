// Package listing turns untyped create/update requests into validated,
// resolved payloads and applies them to the content store.
package listing

import (
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
)

// Fixed request keys.
const (
	KeyID            = "id"
	KeyTitle         = "title"
	KeyStatus        = "status"
	KeyFeaturedImage = "featured_image"
	KeyCountry       = "country"
	KeyState         = "state"
	KeyCity          = "city"
	KeyCategories    = "categories"
	KeyTags          = "tags"
	KeyMeta          = "meta"
)

// RegionKeys is the region hierarchy, root first.
var RegionKeys = []string{KeyCountry, KeyState, KeyCity}

// Route selects the argument shape a request is checked against.
type Route string

const (
	RouteCreate Route = "create-listing"
	RouteUpdate Route = "update-listing"
)

// SystemFields are the entity columns a request may set.
type SystemFields struct {
	ID            *uint
	Title         *string
	Status        *string
	FeaturedImage *uint
}

// ListingPayload is a classified, normalized request body. Names are not yet
// resolved to term ids.
type ListingPayload struct {
	System SystemFields
	// Regions holds country, state, city in that order; "" marks an absent level.
	Regions        [3]string
	RegionsPresent bool

	Categories        []string
	CategoriesPresent bool
	// categoriesErr defers a malformed categories encoding to validation.
	categoriesErr error

	Tags        []string
	TagsPresent bool

	// Meta maps shortname to value for every non-empty dynamic field.
	Meta map[string]interface{}
}

// ResolvedRegion is one non-empty region level and its term.
type ResolvedRegion struct {
	Key    string
	Name   string
	TermID uint
}

// MetaValue is a dynamic field value bound to its definition.
type MetaValue struct {
	Field registry.FieldDefinition
	Value interface{}
}

// CleanPayload is a payload that passed validation: every meta key is a known
// field and every region/category/tag is a known term id.
type CleanPayload struct {
	System SystemFields

	Regions        []ResolvedRegion
	RegionsPresent bool

	Categories        []uint
	CategoriesPresent bool

	Tags        []uint
	TagsPresent bool

	// Meta is ordered by shortname.
	Meta []MetaValue
}

// RegionTermIDs returns the term ids of the non-empty region levels.
func (p *CleanPayload) RegionTermIDs() []uint {
	ids := make([]uint, 0, len(p.Regions))
	for _, r := range p.Regions {
		ids = append(ids, r.TermID)
	}
	return ids
}

// Env is the request-scoped view of the caches a pipeline run works against.
// Every field is an immutable snapshot.
type Env struct {
	Fields *registry.Snapshot
	Terms  *taxonomy.Lookups
	Args   *ArgShapes
	// CoerceScalarTags accepts a bare tag string as a one-element list.
	CoerceScalarTags bool
}

// ChangeRecord describes one field actually written by a mutation.
type ChangeRecord struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}
