package middleware

import (
	"encoding/json"
	"testing"
)

func TestRedactAuditBodyLogin(t *testing.T) {
	body := []byte(`{"username":"operator","password":"hunter2","nested":{"token":"abc","api_key":"k"}}`)
	out := redactAuditBody("/api/auth/login", body)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data["password"] == "hunter2" {
		t.Fatalf("password not redacted")
	}
	if data["username"] != "operator" {
		t.Fatalf("username should be kept, got %v", data["username"])
	}
	if nested, ok := data["nested"].(map[string]interface{}); ok {
		if nested["token"] == "abc" || nested["api_key"] == "k" {
			t.Fatalf("nested secrets not redacted")
		}
	} else {
		t.Fatalf("nested object missing")
	}
}

func TestRedactAuditBodyOwnerProfile(t *testing.T) {
	body := []byte(`[{"id":"alpha","api_key":"sk-a...7890"}]`)
	out := redactAuditBody("/api/owners", body)
	var data []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data[0]["api_key"] != "***" {
		t.Fatalf("api_key not redacted: %v", data[0]["api_key"])
	}
}

func TestRedactAuditBodyNonSensitivePath(t *testing.T) {
	body := []byte(`{"ok":true}`)
	out := redactAuditBody("/health", body)
	if out != string(body) {
		t.Fatalf("unexpected redaction on non-sensitive path")
	}
}

func TestRedactAuditBodyInvalidJSON(t *testing.T) {
	body := []byte("not-json")
	out := redactAuditBody("/api/auth/login", body)
	if out != "[redacted]" {
		t.Fatalf("expected redacted placeholder for invalid json")
	}
}
