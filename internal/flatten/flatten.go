// Package flatten turns arbitrarily nested parsed-JSON values into an
// ordered list of plain-text fragments for keyword matching.
//
// Traversal is depth-first and short-circuits the moment the fragment
// budget is exhausted, so a huge record never produces more work than
// the caller asked for. Inputs come from encoding/json, so values are
// acyclic by construction and no cycle detection is needed.
package flatten

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxItems is the default fragment budget per record.
const DefaultMaxItems = 200

// Strings flattens v into trimmed, non-empty text fragments, at most max.
// Map keys contribute their own fragment before their value is visited;
// keys are walked in sorted order so output is deterministic.
func Strings(v any, max int) []string {
	if max <= 0 {
		max = DefaultMaxItems
	}
	out := make([]string, 0, 8)
	visit(v, max, &out)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// Text flattens v and joins the fragments with single spaces. This is
// the form handed to the keyword matcher.
func Text(v any, max int) string {
	return strings.Join(Strings(v, max), " ")
}

func visit(v any, max int, out *[]string) {
	if len(*out) >= max {
		return
	}
	switch val := v.(type) {
	case nil:
		return
	case string:
		if s := strings.TrimSpace(val); s != "" {
			*out = append(*out, s)
		}
	case float64:
		*out = append(*out, strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		*out = append(*out, strconv.Itoa(val))
	case int64:
		*out = append(*out, strconv.FormatInt(val, 10))
	case bool:
		*out = append(*out, strconv.FormatBool(val))
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if len(*out) >= max {
				return
			}
			if trimmed := strings.TrimSpace(k); trimmed != "" {
				*out = append(*out, trimmed)
			}
			visit(val[k], max, out)
		}
	case []any:
		for _, elem := range val {
			if len(*out) >= max {
				return
			}
			visit(elem, max, out)
		}
	default:
		// Unknown shape: stringify rather than drop content.
		*out = append(*out, fmt.Sprintf("%v", val))
	}
}
