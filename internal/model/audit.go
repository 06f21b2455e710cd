package model

import (
	"encoding/json"
	"time"
)

// AuditEntry is one row in the append-only audit log. Entries are written
// asynchronously through the audit worker, never on the request path.
type AuditEntry struct {
	ID         int64           `json:"id"`
	UserID     *int            `json:"user_id,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
