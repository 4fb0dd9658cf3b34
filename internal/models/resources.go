package models

import (
	"encoding/json"
	"strings"
)

// Resource is a legacy entity or NG response body decoded as generic JSON.
type Resource map[string]interface{}

// Lookup navigates a dotted path such as "versionInfo.version".
func (r Resource) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(r)
	for _, key := range strings.Split(path, ".") {
		obj, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString safely extracts a string field, returning "" if missing.
func (r Resource) GetString(path string) string {
	v, _ := r.Lookup(path)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// GetBool safely extracts a bool field, returning false if missing.
func (r Resource) GetBool(path string) bool {
	v, _ := r.Lookup(path)
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

// GetInt safely extracts a numeric field.
func (r Resource) GetInt(path string) int {
	v, _ := r.Lookup(path)
	return toInt(v)
}

// GetStrings returns a string or a list of strings as a slice. List elements
// that are objects contribute their "id" field.
func (r Resource) GetStrings(path string) []string {
	v, ok := r.Lookup(path)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []interface{}:
		var out []string
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if it != "" {
					out = append(out, it)
				}
			case map[string]interface{}:
				if id, ok := it["id"].(string); ok && id != "" {
					out = append(out, id)
				}
			}
		}
		return out
	}
	return nil
}

// Name returns the name (or identifier) of a Resource.
func (r Resource) Name() string {
	if n := r.GetString("name"); n != "" {
		return n
	}
	return r.GetString("identifier")
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Resource:
		return m, true
	}
	return nil, false
}

// toInt converts various numeric types to int.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
