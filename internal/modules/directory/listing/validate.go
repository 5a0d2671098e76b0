package listing

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validatorTags maps the names used in a field's validators string to
// go-playground/validator tags.
var validatorTags = map[string]string{
	"url":            "url",
	"email":          "email",
	"integer":        "numeric,excludes=.",
	"integer_number": "numeric,excludes=.",
	"decimal":        "numeric",
	"decimal_number": "numeric",
}

var validatorName = regexp.MustCompile(`[a-z_]+`)

// Validate runs the ordered validation stages over p and resolves every
// region, category and tag name to its term id. The first failing stage wins.
func Validate(p *ListingPayload, env Env) (*CleanPayload, error) {
	if env.Terms == nil {
		return nil, apperr.New(apperr.CodeLookupNotReady, http.StatusServiceUnavailable, "Term lookups are not loaded yet.")
	}
	clean := &CleanPayload{System: p.System}

	meta, err := checkMembership(p, env.Fields)
	if err != nil {
		return nil, err
	}
	clean.Meta = meta

	if clean.Regions, err = resolveRegions(p, env.Terms); err != nil {
		return nil, err
	}
	clean.RegionsPresent = p.RegionsPresent

	if p.categoriesErr != nil {
		return nil, p.categoriesErr
	}
	if p.CategoriesPresent {
		clean.CategoriesPresent = true
		if clean.Categories, err = resolveNames(env.Terms, taxonomy.KindCategory, p.Categories, apperr.CodeInvalidCategory); err != nil {
			return nil, err
		}
	}

	if p.TagsPresent {
		clean.TagsPresent = true
		if clean.Tags, err = resolveNames(env.Terms, taxonomy.KindTag, p.Tags, apperr.CodeInvalidTag); err != nil {
			return nil, err
		}
	}

	if s := p.System.Status; s != nil && !validStatus(*s) {
		return nil, apperr.BadRequest(apperr.CodeInvalidStatus, fmt.Sprintf("Invalid status: %s", *s)).
			With("allowed", listingStatuses)
	}

	for _, mv := range clean.Meta {
		if err := checkFieldValue(mv.Field, mv.Value); err != nil {
			return nil, err
		}
	}
	return clean, nil
}

func checkMembership(p *ListingPayload, snap *registry.Snapshot) ([]MetaValue, error) {
	names := make([]string, 0, len(p.Meta))
	for k := range p.Meta {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]MetaValue, 0, len(names))
	for _, name := range names {
		f, ok := snap.FindByShortname(name)
		if !ok {
			return nil, apperr.BadRequest(apperr.CodeInvalidField, "Invalid field: "+name).With("field", name)
		}
		out = append(out, MetaValue{Field: f, Value: p.Meta[name]})
	}
	return out, nil
}

func resolveRegions(p *ListingPayload, terms *taxonomy.Lookups) ([]ResolvedRegion, error) {
	gap := ""
	for i, key := range RegionKeys {
		if p.Regions[i] == "" {
			if gap == "" {
				gap = key
			}
			continue
		}
		if gap != "" {
			return nil, apperr.BadRequest(apperr.CodeInvalidHierarchy,
				fmt.Sprintf("%s requires %s to be set.", key, gap)).With("field", key).With("missing", gap)
		}
	}

	var out []ResolvedRegion
	for i, key := range RegionKeys {
		name := p.Regions[i]
		if name == "" {
			break
		}
		id, ok := terms.FindTermID(taxonomy.KindRegion, name)
		if !ok {
			return nil, apperr.BadRequest(apperr.CodeInvalidRegion, fmt.Sprintf("Invalid %s: %s", key, name)).
				With("field", key).With("value", name)
		}
		out = append(out, ResolvedRegion{Key: key, Name: name, TermID: id})
	}
	return out, nil
}

// resolveNames maps names to term ids, dropping repeats of the same id.
func resolveNames(terms *taxonomy.Lookups, k taxonomy.Kind, names []string, code string) ([]uint, error) {
	out := make([]uint, 0, len(names))
	seen := make(map[uint]bool, len(names))
	for _, name := range names {
		id, ok := terms.FindTermID(k, name)
		if !ok {
			return nil, apperr.BadRequest(code, fmt.Sprintf("Invalid %s: %s", k, name)).With(string(k), name)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func validStatus(s string) bool {
	for _, allowed := range listingStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// checkFieldValue enforces the field type and its validators string.
func checkFieldValue(f registry.FieldDefinition, value interface{}) error {
	bad := func(reason string) error {
		return apperr.BadRequest(apperr.CodeInvalidFieldValue, fmt.Sprintf("Invalid value for %s: %s", f.Shortname, reason)).
			With("field", f.Shortname)
	}

	if f.FieldType == registry.FieldTypeURL {
		seq, ok := value.([]interface{})
		if !ok || len(seq) == 0 || len(seq) > 2 {
			return bad("expected [url, title]")
		}
		u, ok := seq[0].(string)
		if !ok || validate.Var(u, "required,url") != nil {
			return bad("not a valid URL")
		}
		if len(seq) == 2 {
			if _, ok := seq[1].(string); !ok {
				return bad("link title must be a string")
			}
		}
		return nil
	}

	tags := fieldValidatorTags(f.Validators)
	if len(tags) == 0 {
		return nil
	}
	for _, s := range scalarStrings(value) {
		if s == "" {
			continue
		}
		for name, tag := range tags {
			if err := validate.Var(s, tag); err != nil {
				return bad("failed " + name)
			}
		}
	}
	return nil
}

// fieldValidatorTags picks the known validator names out of the opaque
// validators string, whatever its encoding (list, CSV or serialized array).
func fieldValidatorTags(validators string) map[string]string {
	out := make(map[string]string)
	for _, name := range validatorName.FindAllString(strings.ToLower(validators), -1) {
		if tag, ok := validatorTags[name]; ok {
			out[name] = tag
		}
	}
	return out
}

func scalarStrings(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{strings.TrimSpace(v)}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case []interface{}:
		var out []string
		for _, item := range v {
			out = append(out, scalarStrings(item)...)
		}
		return out
	}
	return nil
}
