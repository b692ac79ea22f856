package providers

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FieldString renders a loosely typed JSON field as a string. Market APIs
// are inconsistent about numbers vs strings, so adapters decode into
// interface{} and stringify here; null and structured values become "".
func FieldString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// AddField stores the stringified value under key when it is non-empty.
func AddField(fields map[string]string, key string, v interface{}) {
	if s := FieldString(v); s != "" {
		fields[key] = s
	}
}

// FirstField returns the first value that stringifies to something
// non-empty.
func FirstField(values ...interface{}) string {
	for _, v := range values {
		if s := FieldString(v); s != "" {
			return s
		}
	}
	return ""
}
