package extractor

// Helpers for poking at untyped JSON values decoded into any.
// Exports from third-party tools are duck-typed at best; these accessors
// check capability instead of trusting a schema.

// AsRecord returns v as a JSON object, or nil if it isn't one.
func AsRecord(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// AsSlice returns v as a JSON array, or nil if it isn't one.
func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// AsString returns v as a string with ok=false for any other type.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsNumber returns v as a float64 with ok=false for any other type.
func AsNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// Field returns the named field of a JSON object, nil when v is not an
// object or has no such field.
func Field(v any, name string) any {
	if m := AsRecord(v); m != nil {
		return m[name]
	}
	return nil
}

// StringField returns the trimmed string value of a named field, "" when
// absent or not a string.
func StringField(v any, name string) string {
	if s, ok := AsString(Field(v, name)); ok {
		return trim(s)
	}
	return ""
}
