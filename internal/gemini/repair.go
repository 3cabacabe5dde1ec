package gemini

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fixes covers JSON mistakes models make often enough to be worth
// patching: dropped commas, trailing commas, and unquoted keys.
var fixes = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	// missing comma between objects in an array
	{regexp.MustCompile(`\}\s*\n\s*\{`), "}, {"},
	// missing comma between adjacent strings
	{regexp.MustCompile(`"\s+"`), `", "`},
	// trailing comma in an array
	{regexp.MustCompile(`,\s*\]`), "]"},
	// trailing comma in an object
	{regexp.MustCompile(`,\s*\}`), "}"},
	// bare object keys
	{regexp.MustCompile(`([{,]\s*)([a-zA-Z0-9_]+)(\s*:)`), `${1}"${2}"${3}`},
}

// categoryObjectPattern matches a single well-formed category object,
// used to salvage categories out of otherwise unrepairable output.
var categoryObjectPattern = regexp.MustCompile(`\{\s*"name":\s*"[^"]+",\s*"repositories":\s*\[(?:[^][]|\[[^][]*\])*\]\s*\}`)

// repairJSON attempts to turn a malformed model response into valid
// JSON. It first applies the targeted fixes; if the result still does
// not parse, it falls back to extracting every individually well-formed
// category object and rebuilding the payload around them. The second
// return value reports whether a valid repair was produced.
func repairJSON(raw string) (string, bool) {
	repaired := raw
	for _, fix := range fixes {
		repaired = fix.pattern.ReplaceAllString(repaired, fix.replacement)
	}
	if json.Valid([]byte(repaired)) {
		return repaired, true
	}

	flat := strings.ReplaceAll(raw, "\n", " ")
	objects := categoryObjectPattern.FindAllString(flat, -1)
	if len(objects) == 0 {
		return "", false
	}
	rebuilt := `{"categories": [` + strings.Join(objects, ",") + `]}`
	if !json.Valid([]byte(rebuilt)) {
		return "", false
	}
	return rebuilt, true
}
