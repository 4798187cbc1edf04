package model

import (
	"time"
)

// AuditLog is one audited HTTP request.
type AuditLog struct {
	ID        string `json:"id" gorm:"primaryKey;type:text"`
	OwnerID   string `json:"owner_id" gorm:"index:idx_audit_logs_owner,priority:1"`
	Username  string `json:"username"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`

	RequestBody  string `json:"request_body"` // redacted
	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body"` // redacted
	LatencyMs    int64  `json:"latency_ms"`

	// Upstream errors, proxied action names and similar handler-level details.
	Context map[string]interface{} `json:"context" gorm:"serializer:json;type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_audit_logs_owner,priority:2,sort:desc"`
}

func (AuditLog) TableName() string { return "audit_logs" }
