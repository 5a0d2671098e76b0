package listing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/pkg/apperr"
)

// Argument types.
const (
	ArgInteger = "integer"
	ArgString  = "string"
	ArgArray   = "array"
	ArgObject  = "object"
)

// ArgSpec declares the expected shape of one request argument.
type ArgSpec struct {
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Items       *ArgSpec `json:"items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ArgShapes is the declarative argument description of both mutating routes,
// derived from one registry snapshot.
type ArgShapes struct {
	version uint64
	routes  map[Route]map[string]ArgSpec
}

// Version is the registry snapshot version these shapes were built from.
func (a *ArgShapes) Version() uint64 { return a.version }

// For returns a copy of the shape of route; nil for unknown routes.
func (a *ArgShapes) For(route Route) map[string]ArgSpec {
	shape, ok := a.routes[route]
	if !ok {
		return nil
	}
	out := make(map[string]ArgSpec, len(shape))
	for k, v := range shape {
		out[k] = v
	}
	return out
}

// Lookup returns the declared spec of key on route.
func (a *ArgShapes) Lookup(route Route, key string) (ArgSpec, bool) {
	spec, ok := a.routes[route][key]
	return spec, ok
}

var listingStatuses = []string{
	models.ListingStatusPublish,
	models.ListingStatusPending,
	models.ListingStatusDraft,
	models.ListingStatusPrivate,
}

var stringList = &ArgSpec{Type: ArgString}

// BuildArgShapes derives the argument shapes from snap.
func BuildArgShapes(snap *registry.Snapshot) *ArgShapes {
	fixed := map[string]ArgSpec{
		KeyTitle:         {Type: ArgString, Description: "Listing title."},
		KeyStatus:        {Type: ArgString, Description: "Listing status.", Enum: listingStatuses},
		KeyFeaturedImage: {Type: ArgInteger, Description: "Attachment id of the featured image."},
		KeyCountry:       {Type: ArgString},
		KeyState:         {Type: ArgString},
		KeyCity:          {Type: ArgString},
		KeyCategories:    {Type: ArgArray, Items: stringList, Description: "Category names."},
		KeyTags:          {Type: ArgArray, Items: stringList, Description: "Tag names."},
	}

	create := make(map[string]ArgSpec, len(fixed)+snap.Len())
	update := make(map[string]ArgSpec, len(fixed)+snap.Len()+2)
	for _, f := range snap.Fields() {
		spec := fieldArgSpec(f)
		create[f.Shortname] = spec
		update[f.Shortname] = spec
	}
	// Fixed keys win over a field that happens to share the name.
	for k, v := range fixed {
		create[k] = v
		update[k] = v
	}
	title := create[KeyTitle]
	title.Required = true
	create[KeyTitle] = title

	update[KeyID] = ArgSpec{Type: ArgInteger, Required: true, Description: "Listing id."}
	update[KeyMeta] = ArgSpec{Type: ArgObject, Description: "Raw meta keyed by _wpbdp[fields][<id>] or shortname."}

	return &ArgShapes{
		version: snap.Version(),
		routes:  map[Route]map[string]ArgSpec{RouteCreate: create, RouteUpdate: update},
	}
}

func fieldArgSpec(f registry.FieldDefinition) ArgSpec {
	desc := f.Label
	switch f.FieldType {
	case registry.FieldTypeURL, "checkbox", "multiselect":
		return ArgSpec{Type: ArgArray, Items: stringList, Description: desc}
	default:
		return ArgSpec{Type: ArgString, Description: desc}
	}
}

// ArgsBuilder keeps the shapes in step with the registry. Wire Rebuild to
// registry.Cache.OnSwap; For also rebuilds lazily if it sees a newer snapshot.
type ArgsBuilder struct {
	current atomic.Pointer[ArgShapes]
}

func NewArgsBuilder() *ArgsBuilder { return &ArgsBuilder{} }

// Rebuild regenerates the shapes from snap.
func (b *ArgsBuilder) Rebuild(snap *registry.Snapshot) {
	b.current.Store(BuildArgShapes(snap))
}

// For returns shapes matching snap.
func (b *ArgsBuilder) For(snap *registry.Snapshot) *ArgShapes {
	if cur := b.current.Load(); cur != nil && cur.version == snap.Version() {
		return cur
	}
	shapes := BuildArgShapes(snap)
	b.current.Store(shapes)
	return shapes
}

// coerceArg checks value against spec, converting scalars where the
// transport commonly loses type information.
func coerceArg(key string, spec ArgSpec, value interface{}) (interface{}, error) {
	switch spec.Type {
	case ArgInteger:
		if id, ok := toUint(value); ok {
			return id, nil
		}
	case ArgString:
		switch v := value.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	case ArgArray:
		switch value.(type) {
		case nil, []interface{}, string:
			return value, nil
		}
	case ArgObject:
		switch value.(type) {
		case nil, map[string]interface{}:
			return value, nil
		}
	default:
		return value, nil
	}
	return nil, invalidParam(key, fmt.Sprintf("%s is not of type %s.", key, spec.Type))
}

func invalidParam(key, reason string) *apperr.Error {
	return apperr.BadRequest(apperr.CodeInvalidParam, "Invalid parameter(s): "+key).
		With("params", map[string]string{key: reason})
}

func toUint(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxUint32 {
			return 0, false
		}
		return uint(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint:
		return v, true
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}
