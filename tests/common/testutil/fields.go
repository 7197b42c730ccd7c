//go:build unit || e2e

package testutil

// Field mutates one key of a request map; nil deletes the key, which is how
// validation tests express a missing required field.
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
		} else {
			m[key] = value
		}
	}
}
