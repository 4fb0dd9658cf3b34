package platform

import "testing"

func TestParseVersionResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"ng", `{"status":"SUCCESS","data":{"versionInfo":{"version":"1.0.79","buildNo":"79"}}}`, "1.0.79"},
		{"missing", `{"status":"SUCCESS","data":{}}`, ""},
		{"invalid", `not json`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseVersionResponse([]byte(tc.body)); got != tc.want {
				t.Errorf("ParseVersionResponse = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.2.3", "1.2.4", -1},
		{"1.0.79", "1.0.70", 1},
		{"1.0", "1.0.0", 0},
		{"1.0.1", "1.0", 1},
		{"v1.0.80", "1.0.79", 1},
		{"1.0.79-SNAPSHOT", "1.0.79", 0},
	}
	for _, tc := range tests {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			got := CompareVersions(tc.a, tc.b)
			if got != tc.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"1.0.79", MinNGVersion, true},
		{"1.0.70", MinNGVersion, true},
		{"1.0.60", MinNGVersion, false},
		{"", "1.0.0", true},
		{"1.0.0", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.version+"_gte_"+tc.min, func(t *testing.T) {
			got := VersionAtLeast(tc.version, tc.min)
			if got != tc.want {
				t.Errorf("VersionAtLeast(%q, %q) = %v, want %v", tc.version, tc.min, got, tc.want)
			}
		})
	}
}
