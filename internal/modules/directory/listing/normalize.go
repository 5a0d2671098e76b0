package listing

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/pkg/apperr"
)

var errMalformedList = errors.New("malformed list encoding")

// Normalize classifies the keys of a raw request and coerces their encodings.
// It resolves nothing against the term tables; Validate does that.
func Normalize(raw map[string]interface{}, route Route, env Env) (*ListingPayload, error) {
	p := &ListingPayload{Meta: make(map[string]interface{})}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if route == RouteUpdate {
		if _, ok := raw[KeyID]; !ok {
			return nil, apperr.BadRequest(apperr.CodeInvalidParam, "Missing parameter(s): id").
				With("params", []string{KeyID})
		}
	}

	var nested map[string]interface{}
	for _, key := range keys {
		value := raw[key]
		switch key {
		case KeyID, KeyTitle, KeyStatus, KeyFeaturedImage:
			if err := p.setSystem(key, value, route, env); err != nil {
				return nil, err
			}
		case KeyCountry, KeyState, KeyCity:
			if err := p.setRegion(key, value, route, env); err != nil {
				return nil, err
			}
		case KeyCategories:
			list, present, err := decodeNameList(value, true)
			p.Categories, p.CategoriesPresent = list, present
			if err != nil {
				p.categoriesErr = apperr.BadRequest(apperr.CodeInvalidCategories, "Categories must be an array or a JSON-encoded array.")
			}
		case KeyTags:
			list, present, err := decodeNameList(value, env.CoerceScalarTags)
			if err != nil {
				return nil, apperr.BadRequest(apperr.CodeInvalidTags, "Tags must be an array or a JSON-encoded array.").
					With("value", value)
			}
			p.Tags, p.TagsPresent = list, present
		case KeyMeta:
			if route != RouteUpdate {
				if err := p.setDynamic(key, value, env); err != nil {
					return nil, err
				}
				continue
			}
			m, err := metaObject(value)
			if err != nil {
				return nil, err
			}
			nested = m
		default:
			if err := p.setDynamic(key, value, env); err != nil {
				return nil, err
			}
		}
	}

	if nested != nil {
		if err := p.mergeMeta(nested, env); err != nil {
			return nil, err
		}
	}
	p.RegionsPresent = p.Regions != [3]string{}
	return p, nil
}

func (p *ListingPayload) setSystem(key string, value interface{}, route Route, env Env) error {
	v, err := coerceKnown(route, key, value, env)
	if err != nil {
		return err
	}
	switch key {
	case KeyID:
		id, _ := v.(uint)
		p.System.ID = &id
	case KeyTitle:
		s, _ := v.(string)
		p.System.Title = &s
	case KeyStatus:
		s := strings.ToLower(strings.TrimSpace(v.(string)))
		if s != "" {
			p.System.Status = &s
		}
	case KeyFeaturedImage:
		if isEmpty(value) {
			return nil
		}
		id, _ := v.(uint)
		if id != 0 {
			p.System.FeaturedImage = &id
		}
	}
	return nil
}

func (p *ListingPayload) setRegion(key string, value interface{}, route Route, env Env) error {
	v, err := coerceKnown(route, key, value, env)
	if err != nil {
		return err
	}
	s := strings.TrimSpace(v.(string))
	for i, rk := range RegionKeys {
		if rk == key {
			p.Regions[i] = s
		}
	}
	return nil
}

// setDynamic records a candidate meta field. Unknown shortnames are kept so
// that Validate can report them.
func (p *ListingPayload) setDynamic(key string, value interface{}, env Env) error {
	if isEmpty(value) {
		return nil
	}
	field, known := env.Fields.FindByShortname(key)
	if known {
		value = decodeURLValue(field, value)
		if env.Args != nil {
			if spec, ok := env.Args.Lookup(RouteUpdate, key); ok {
				v, err := coerceArg(key, spec, value)
				if err != nil {
					return err
				}
				value = v
			}
		}
	}
	p.Meta[key] = value
	return nil
}

// mergeMeta checks the keys of the nested meta object and merges the valid
// ones. Top-level keys win over nested ones naming the same field.
func (p *ListingPayload) mergeMeta(nested map[string]interface{}, env Env) error {
	var invalid []string
	resolved := make(map[string]registry.FieldDefinition, len(nested))
	for key := range nested {
		f, ok := env.Fields.ResolveMetaKey(key)
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		resolved[key] = f
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return apperr.BadRequest(apperr.CodeInvalidMetaFields, "Invalid meta field(s): "+strings.Join(invalid, ", ")).
			With("invalid_fields", invalid)
	}

	keys := make([]string, 0, len(resolved))
	for k := range resolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		f := resolved[key]
		if _, set := p.Meta[f.Shortname]; set {
			continue
		}
		if err := p.setDynamic(f.Shortname, nested[key], env); err != nil {
			return err
		}
	}
	return nil
}

// CheckMetaKeys rejects a meta object naming any key that is neither a known
// storage meta key nor a known shortname.
func CheckMetaKeys(meta map[string]interface{}, snap *registry.Snapshot) error {
	p := &ListingPayload{Meta: make(map[string]interface{})}
	return p.mergeMeta(meta, Env{Fields: snap})
}

func metaObject(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m, nil
		}
	}
	return nil, invalidParam(KeyMeta, "meta is not of type object.")
}

func coerceKnown(route Route, key string, value interface{}, env Env) (interface{}, error) {
	if env.Args == nil {
		return coerceArg(key, defaultSystemSpec(key), value)
	}
	spec, ok := env.Args.Lookup(route, key)
	if !ok {
		spec = defaultSystemSpec(key)
	}
	return coerceArg(key, spec, value)
}

func defaultSystemSpec(key string) ArgSpec {
	switch key {
	case KeyID, KeyFeaturedImage:
		return ArgSpec{Type: ArgInteger}
	default:
		return ArgSpec{Type: ArgString}
	}
}

// decodeURLValue turns a JSON-encoded array string into a sequence for url
// fields. Anything that does not decode is left as is.
func decodeURLValue(f registry.FieldDefinition, value interface{}) interface{} {
	if f.FieldType != registry.FieldTypeURL {
		return value
	}
	s, ok := value.(string)
	if !ok {
		return value
	}
	var seq []interface{}
	if err := json.Unmarshal([]byte(s), &seq); err != nil {
		return value
	}
	return seq
}

// decodeNameList accepts a native array or a JSON-encoded array. With
// acceptScalar a bare scalar, including a JSON literal such as "true",
// becomes a one-element list.
func decodeNameList(value interface{}, acceptScalar bool) ([]string, bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case []interface{}:
		list, err := nameElements(v)
		return list, true, err
	case []string:
		return compactNames(v), true, nil
	case float64:
		if acceptScalar {
			return []string{strconv.FormatFloat(v, 'f', -1, 64)}, true, nil
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false, nil
		}
		// JSON arrays and strings are unwrapped. Objects are malformed. Any
		// other JSON scalar (true, null, 5) is taken as the literal name.
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			switch d := decoded.(type) {
			case []interface{}:
				list, err := nameElements(d)
				return list, true, err
			case map[string]interface{}:
				return nil, true, errMalformedList
			case string:
				if acceptScalar {
					return decodeNameList(d, true)
				}
				return nil, true, errMalformedList
			}
		}
		if acceptScalar {
			return []string{s}, true, nil
		}
	}
	return nil, true, errMalformedList
}

func nameElements(items []interface{}) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil, errMalformedList
		}
	}
	return out, nil
}

func compactNames(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}
