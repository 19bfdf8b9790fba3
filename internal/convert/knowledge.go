package convert

import "strings"

// DeriveKnowledge maps a record's provenance to a compact knowledge
// label, e.g. data/raw/data_clean/questions/US/dev.jsonl -> "US/dev".
//
// When the expected questions/<region>/<split> segment pattern is
// absent, it falls back to the last two path segments with the
// extension stripped. Datasets relying on exact labels should keep
// their files under a questions/ directory.
func DeriveKnowledge(meta map[string]any) string {
	sp, _ := meta["source_path"].(string)
	if sp == "" {
		return "unknown"
	}

	parts := strings.Split(strings.ReplaceAll(sp, `\`, "/"), "/")

	for i, part := range parts {
		if part != "questions" {
			continue
		}
		if i+2 < len(parts) {
			region := parts[i+1]
			split := stripExt(parts[i+2])
			return region + "/" + split
		}
		// Only the first questions/ segment counts.
		break
	}

	if len(parts) >= 2 {
		return stripExt(strings.Join(parts[len(parts)-2:], "/"))
	}
	if len(parts) == 1 && parts[0] != "" {
		return stripExt(parts[0])
	}
	return "unknown"
}

// stripExt cuts everything from the first dot, dev.jsonl -> dev.
func stripExt(s string) string {
	if i := strings.Index(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}
