package extract

// FilterFields narrows a record to the fields that should take part in
// matching and appear in the output. A non-empty include list wins over
// the exclude list; include keys absent from the record are ignored.
// Non-map records pass through untouched, and a record with no filter
// configured is returned as is.
func FilterFields(rec any, include, exclude []string) any {
	m, ok := rec.(map[string]any)
	if !ok {
		return rec
	}
	if len(include) == 0 && len(exclude) == 0 {
		return m
	}

	if len(include) > 0 {
		out := make(map[string]any, len(include))
		for _, key := range include {
			if v, present := m[key]; present {
				out[key] = v
			}
		}
		return out
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, key := range exclude {
		excluded[key] = struct{}{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, skip := excluded[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}
