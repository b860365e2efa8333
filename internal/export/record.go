package export

// Field is one named cell of a record.
type Field struct {
	Key   string
	Value string
}

// Record is an ordered set of fields. The first record of an export decides
// the column order.
type Record []Field

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func sameKeys(header []string, r Record) bool {
	if len(header) != len(r) {
		return false
	}
	seen := make(map[string]struct{}, len(r))
	for _, f := range r {
		seen[f.Key] = struct{}{}
	}
	if len(seen) != len(header) {
		return false
	}
	for _, k := range header {
		if _, ok := seen[k]; !ok {
			return false
		}
	}
	return true
}
