package taxonomy

// regionAliases maps abbreviations and alternate spellings to canonical
// region names. Values are never keys: resolution is single-hop.
var regionAliases = map[string]string{
	// Countries.
	"us":                       "united states",
	"usa":                      "united states",
	"u.s.":                     "united states",
	"u.s":                      "united states",
	"u.s.a.":                   "united states",
	"u.s.a":                    "united states",
	"united states of america": "united states",
	"america":                  "united states",
	"can":                      "canada",

	// US states and DC.
	"al":              "alabama",
	"ak":              "alaska",
	"az":              "arizona",
	"ar":              "arkansas",
	"ca":              "california", // not Canada, which is "can"
	"co":              "colorado",
	"ct":              "connecticut",
	"de":              "delaware",
	"fl":              "florida",
	"ga":              "georgia",
	"hi":              "hawaii",
	"id":              "idaho",
	"il":              "illinois",
	"in":              "indiana",
	"ia":              "iowa",
	"ks":              "kansas",
	"ky":              "kentucky",
	"la":              "louisiana",
	"me":              "maine",
	"md":              "maryland",
	"ma":              "massachusetts",
	"mi":              "michigan",
	"mn":              "minnesota",
	"ms":              "mississippi",
	"mo":              "missouri",
	"mt":              "montana",
	"ne":              "nebraska",
	"nv":              "nevada",
	"nh":              "new hampshire",
	"nj":              "new jersey",
	"nm":              "new mexico",
	"ny":              "new york",
	"nc":              "north carolina",
	"nd":              "north dakota",
	"oh":              "ohio",
	"ok":              "oklahoma",
	"or":              "oregon",
	"pa":              "pennsylvania",
	"ri":              "rhode island",
	"sc":              "south carolina",
	"sd":              "south dakota",
	"tn":              "tennessee",
	"tx":              "texas",
	"ut":              "utah",
	"vt":              "vermont",
	"va":              "virginia",
	"wa":              "washington",
	"wv":              "west virginia",
	"wi":              "wisconsin",
	"wy":              "wyoming",
	"dc":              "district of columbia",
	"d.c.":            "district of columbia",
	"washington dc":   "district of columbia",
	"washington d.c.": "district of columbia",

	// Canadian provinces and territories.
	"ab":           "alberta",
	"bc":           "british columbia",
	"mb":           "manitoba",
	"nb":           "new brunswick",
	"nl":           "newfoundland and labrador",
	"ns":           "nova scotia",
	"nt":           "northwest territories",
	"nu":           "nunavut",
	"on":           "ontario",
	"pe":           "prince edward island",
	"qc":           "quebec",
	"sk":           "saskatchewan",
	"yt":           "yukon",
	"québec":       "quebec",
	"newfoundland": "newfoundland and labrador",
}

// ResolveRegionAlias maps a normalized region name to its canonical form.
// Canonical names and unknown names pass through unchanged.
func ResolveRegionAlias(name string) string {
	if canonical, ok := regionAliases[name]; ok {
		return canonical
	}
	return name
}
