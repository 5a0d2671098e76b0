package listing

import (
	"testing"

	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateRaw(t *testing.T, raw map[string]interface{}) (*CleanPayload, error) {
	t.Helper()
	env := sampleEnv(t)
	p, err := Normalize(raw, RouteCreate, env)
	require.NoError(t, err)
	return Validate(p, env)
}

func TestValidateRegionHierarchy(t *testing.T) {
	tests := []struct {
		name    string
		regions [3]string
		code    string
		ids     []uint
	}{
		{"full", [3]string{"United States", "California", "Los Angeles"}, "", []uint{10, 11, 12}},
		{"trailing empty", [3]string{"usa", "ca", ""}, "", []uint{10, 11}},
		{"country only", [3]string{"Canada", "", ""}, "", []uint{20}},
		{"missing country", [3]string{"", "ca", ""}, apperr.CodeInvalidHierarchy, nil},
		{"gap before city", [3]string{"usa", "", "Los Angeles"}, apperr.CodeInvalidHierarchy, nil},
		{"unknown state", [3]string{"usa", "Atlantis", ""}, apperr.CodeInvalidRegion, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, err := validateRaw(t, map[string]interface{}{
				"country": tt.regions[0], "state": tt.regions[1], "city": tt.regions[2],
			})
			if tt.code != "" {
				assert.Equal(t, tt.code, apperr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ids, clean.RegionTermIDs())
		})
	}
}

func TestValidateRegionAliases(t *testing.T) {
	var ids []uint
	for _, country := range []string{"usa", "U.S.", "United States", " united states "} {
		clean, err := validateRaw(t, map[string]interface{}{"country": country})
		require.NoError(t, err, country)
		ids = append(ids, clean.Regions[0].TermID)
	}
	assert.Equal(t, []uint{10, 10, 10, 10}, ids)

	a, err := validateRaw(t, map[string]interface{}{"country": "usa", "state": "Ca"})
	require.NoError(t, err)
	b, err := validateRaw(t, map[string]interface{}{"country": "usa", "state": "california"})
	require.NoError(t, err)
	assert.Equal(t, a.Regions[1].TermID, b.Regions[1].TermID)
}

func TestValidateInvalidRegionNamesKeyAndValue(t *testing.T) {
	_, err := validateRaw(t, map[string]interface{}{"country": "Narnia"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidRegion, ae.Code)
	assert.Equal(t, "country", ae.Extra["field"])
	assert.Equal(t, "Narnia", ae.Extra["value"])
}

func TestValidateStageOrder(t *testing.T) {
	// Unknown meta field is reported before a broken region hierarchy and bad tags.
	_, err := validateRaw(t, map[string]interface{}{
		"nope":  "x",
		"state": "ca",
		"tags":  []interface{}{"doesnotexist"},
	})
	assert.Equal(t, apperr.CodeInvalidField, apperr.CodeOf(err))

	_, err = validateRaw(t, map[string]interface{}{
		"state":      "ca",
		"categories": map[string]interface{}{},
	})
	assert.Equal(t, apperr.CodeInvalidHierarchy, apperr.CodeOf(err))

	_, err = validateRaw(t, map[string]interface{}{
		"categories": []interface{}{"Nope"},
		"tags":       []interface{}{"doesnotexist"},
	})
	assert.Equal(t, apperr.CodeInvalidCategory, apperr.CodeOf(err))
}

func TestValidateCategoriesAndTags(t *testing.T) {
	clean, err := validateRaw(t, map[string]interface{}{
		"categories": `["cafes", "CAFES", "Restaurants"]`,
		"tags":       []interface{}{"WiFi"},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{31, 30}, clean.Categories)
	assert.Equal(t, []uint{40}, clean.Tags)

	_, err = validateRaw(t, map[string]interface{}{"categories": `{"a":1}`})
	assert.Equal(t, apperr.CodeInvalidCategories, apperr.CodeOf(err))

	_, err = validateRaw(t, map[string]interface{}{"tags": []interface{}{"doesnotexist"}})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTag, ae.Code)
	assert.Equal(t, "doesnotexist", ae.Extra["tag"])
}

func TestValidateStatus(t *testing.T) {
	_, err := validateRaw(t, map[string]interface{}{"status": "trash"})
	assert.Equal(t, apperr.CodeInvalidStatus, apperr.CodeOf(err))

	clean, err := validateRaw(t, map[string]interface{}{"status": "draft"})
	require.NoError(t, err)
	assert.Equal(t, "draft", *clean.System.Status)
}

func TestValidateFieldValues(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]interface{}
		valid bool
	}{
		{"url pair", map[string]interface{}{"website": `["https://example.com","Example"]`}, true},
		{"url only", map[string]interface{}{"website": []interface{}{"https://example.com"}}, true},
		{"url as bare string", map[string]interface{}{"website": "https://example.com"}, false},
		{"url not a url", map[string]interface{}{"website": []interface{}{"example"}}, false},
		{"email ok", map[string]interface{}{"contact_email": "a@example.com"}, true},
		{"email bad", map[string]interface{}{"contact_email": "nope"}, false},
		{"integer ok", map[string]interface{}{"employees": float64(12)}, true},
		{"integer decimal", map[string]interface{}{"employees": "12.5"}, false},
		{"no validators", map[string]interface{}{"phone": "anything at all"}, true},
		{"checkbox list", map[string]interface{}{"amenities": []interface{}{"wifi", "parking"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, err := validateRaw(t, tt.raw)
			if tt.valid {
				require.NoError(t, err)
				assert.Len(t, clean.Meta, 1)
				return
			}
			assert.Equal(t, apperr.CodeInvalidFieldValue, apperr.CodeOf(err))
		})
	}
}

func TestValidateFailsClosedWithoutLookups(t *testing.T) {
	env := sampleEnv(t)
	env.Terms = nil
	p, err := Normalize(map[string]interface{}{"title": "x"}, RouteCreate, env)
	require.NoError(t, err)
	_, err = Validate(p, env)
	assert.Equal(t, apperr.CodeLookupNotReady, apperr.CodeOf(err))
}

func TestFieldValidatorTags(t *testing.T) {
	assert.Equal(t, map[string]string{"email": "email"}, fieldValidatorTags(`a:1:{i:0;s:5:"email";}`))
	assert.Equal(t, map[string]string{"url": "url", "integer_number": "numeric,excludes=."}, fieldValidatorTags("url, integer_number"))
	assert.Empty(t, fieldValidatorTags(""))
}
