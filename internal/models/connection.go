package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection represents a legacy (CG) source or an NG destination.
type Connection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`   // "cg" or "ng"
	Role      string `json:"role"`   // "source" or "destination"
	Scheme    string `json:"scheme"` // "http" or "https"
	Host      string `json:"host"`
	Port      int    `json:"port"`
	AccountID string `json:"account_id"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	Insecure  bool   `json:"insecure"` // skip TLS verification
	CACert    string `json:"ca_cert,omitempty"`

	Version     string     `json:"version,omitempty"`
	PingStatus  string     `json:"ping_status"`
	PingError   string     `json:"ping_error,omitempty"`
	AuthStatus  string     `json:"auth_status"`
	AuthError   string     `json:"auth_error,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
}

// BaseURL returns the full base URL for this connection.
func (c *Connection) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// MaskedPassword hides the password in API responses.
func (c *Connection) MaskedPassword() string {
	if c.Password == "" {
		return ""
	}
	return "••••••••"
}

// ApplyDefaults fills role, scheme and port the way the config file and the
// API both expect.
func (c *Connection) ApplyDefaults() {
	if c.Type == "" {
		c.Type = "cg"
	}
	if c.Role == "" {
		if c.Type == "cg" {
			c.Role = "source"
		} else {
			c.Role = "destination"
		}
	}
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	if c.Port == 0 {
		if c.Scheme == "https" {
			c.Port = 443
		} else {
			c.Port = 80
		}
	}
}

// ConnectionStore is an in-memory thread-safe store for connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]*Connection)}
}

// Create adds a new connection, assigning it a UUID.
func (s *ConnectionStore) Create(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New().String()
	c.PingStatus = "unknown"
	c.AuthStatus = "unknown"
	s.conns[c.ID] = c
}

// Get returns a connection by ID, or nil if not found.
func (s *ConnectionStore) Get(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// FindByRole returns the first connection with the given role.
func (s *ConnectionStore) FindByRole(role string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		if c.Role == role {
			return c
		}
	}
	return nil
}

// List returns all connections.
func (s *ConnectionStore) List() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		result = append(result, c)
	}
	return result
}

// Update replaces an existing connection's settings.
func (s *ConnectionStore) Update(c *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c.ID]; !ok {
		return false
	}
	s.conns[c.ID] = c
	return true
}

// Delete removes a connection by ID.
func (s *ConnectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	return true
}

// SetHealth records the latest ping and auth results.
func (s *ConnectionStore) SetHealth(id, pingStatus, pingError, authStatus, authError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	now := time.Now()
	c.PingStatus = pingStatus
	c.PingError = pingError
	c.AuthStatus = authStatus
	c.AuthError = authError
	c.LastChecked = &now
}

// SetVersion records the detected platform version.
func (s *ConnectionStore) SetVersion(id, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conns[id]; ok {
		c.Version = version
	}
}
