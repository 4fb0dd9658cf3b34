package platform

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// MinNGVersion is the oldest NG release whose APIs this migrator speaks.
const MinNGVersion = "1.0.70"

// ngEnvelope is the response wrapper every NG API uses.
type ngEnvelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ParseVersionResponse extracts data.versionInfo.version from an NG version
// body. Returns "" if the body can't be parsed.
func ParseVersionResponse(body []byte) string {
	var env struct {
		Data models.Resource `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Data.GetString("versionInfo.version")
}

// CompareVersions performs a simple semver comparison.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Handles partial versions (e.g. "1.0" vs "1.0.79").
func CompareVersions(a, b string) int {
	aParts := parseVersionParts(a)
	bParts := parseVersionParts(b)

	maxLen := len(aParts)
	if len(bParts) > maxLen {
		maxLen = len(bParts)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(aParts) {
			av = aParts[i]
		}
		if i < len(bParts) {
			bv = bParts[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// VersionAtLeast returns true if version >= min. Unknown versions pass.
func VersionAtLeast(version, min string) bool {
	if version == "" || min == "" {
		return true
	}
	return CompareVersions(version, min) >= 0
}

func parseVersionParts(v string) []int {
	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		// "1.0.79-SNAPSHOT" keeps the numeric head of each part
		if i := strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
			p = p[:i]
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		result = append(result, n)
	}
	return result
}

// Health is the outcome of CheckHealth.
type Health struct {
	PingStatus string
	PingError  string
	AuthStatus string
	AuthError  string
	Version    string
}

// CheckHealth pings a connection, verifies its credentials and records the
// result (and any detected version) in the store.
func CheckHealth(ctx context.Context, conn *models.Connection, store *models.ConnectionStore) Health {
	p := NewPlatform(conn)
	h := Health{PingStatus: "ok", AuthStatus: "ok"}

	version, err := p.Ping(ctx)
	if err != nil {
		h.PingStatus = "error"
		h.PingError = err.Error()
		h.AuthStatus = "unknown"
	} else if err := p.CheckAuth(ctx); err != nil {
		h.AuthStatus = "error"
		h.AuthError = err.Error()
	}
	h.Version = version

	if store != nil {
		store.SetHealth(conn.ID, h.PingStatus, h.PingError, h.AuthStatus, h.AuthError)
		if version != "" {
			store.SetVersion(conn.ID, version)
		}
	}
	return h
}
