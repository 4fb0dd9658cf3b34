package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		expect int
	}{
		{"float64", float64(42), 42},
		{"int", 7, 7},
		{"json.Number", json.Number("99"), 99},
		{"nil", nil, 0},
		{"string", "not a number", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := toInt(tc.input)
			if got != tc.expect {
				t.Errorf("toInt(%v) = %d, want %d", tc.input, got, tc.expect)
			}
		})
	}
}

func TestResource_GetString(t *testing.T) {
	r := Resource{
		"name":  "hello",
		"count": 42,
		"empty": nil,
		"versionInfo": map[string]interface{}{
			"version": "1.0.79",
		},
	}
	tests := []struct {
		path string
		want string
	}{
		{"name", "hello"},
		{"count", ""},
		{"empty", ""},
		{"missing", ""},
		{"versionInfo.version", "1.0.79"},
		{"versionInfo.missing", ""},
		{"name.nested", ""},
	}
	for _, tc := range tests {
		if got := r.GetString(tc.path); got != tc.want {
			t.Errorf("GetString(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestResource_GetBoolAndInt(t *testing.T) {
	r := Resource{"enabled": true, "count": float64(3), "spec": map[string]interface{}{"replicas": float64(2)}}
	if !r.GetBool("enabled") {
		t.Error("GetBool(enabled) = false, want true")
	}
	if r.GetBool("missing") {
		t.Error("GetBool(missing) = true, want false")
	}
	if got := r.GetInt("count"); got != 3 {
		t.Errorf("GetInt(count) = %d, want 3", got)
	}
	if got := r.GetInt("spec.replicas"); got != 2 {
		t.Errorf("GetInt(spec.replicas) = %d, want 2", got)
	}
}

func TestResource_GetStrings(t *testing.T) {
	r := Resource{
		"single": "a",
		"blank":  "",
		"list":   []interface{}{"x", "", "y"},
		"objs":   []interface{}{map[string]interface{}{"id": "o1"}, map[string]interface{}{"name": "noid"}},
		"number": float64(1),
	}
	tests := []struct {
		path string
		want []string
	}{
		{"single", []string{"a"}},
		{"blank", nil},
		{"list", []string{"x", "y"}},
		{"objs", []string{"o1"}},
		{"number", nil},
		{"missing", nil},
	}
	for _, tc := range tests {
		if got := r.GetStrings(tc.path); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("GetStrings(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestResource_Name(t *testing.T) {
	if got := (Resource{"name": "svc"}).Name(); got != "svc" {
		t.Errorf("Name() = %q, want svc", got)
	}
	if got := (Resource{"identifier": "svc_id"}).Name(); got != "svc_id" {
		t.Errorf("Name() = %q, want svc_id", got)
	}
}
