package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const HeaderVPSKey = "X-API-Key"

// VPS is the shared bot-runner control plane. It authenticates with one
// shared key, but owner-scoped calls are still refused for pending owners.
type VPS struct {
	client  *Client
	baseURL string
	apiKey  string
	creds   CredentialSource
}

func NewVPS(client *Client, baseURL, apiKey string, creds CredentialSource) *VPS {
	return &VPS{client: client, baseURL: baseURL, apiKey: apiKey, creds: creds}
}

func (v *VPS) headers() map[string]string {
	if v.apiKey == "" {
		return nil
	}
	return map[string]string{HeaderVPSKey: v.apiKey}
}

func (v *VPS) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if v.baseURL == "" {
		return nil, &Error{Backend: BackendVPS, Path: path, Message: "vps.base_url not configured"}
	}
	return v.client.FetchJSON(ctx, BackendVPS, v.baseURL, path, Options{
		Method:  method,
		Headers: v.headers(),
		Body:    body,
	})
}

func (v *VPS) ownerCall(ctx context.Context, ownerID, method, path string, body any) (json.RawMessage, error) {
	if _, err := resolve(v.creds, ownerID); err != nil {
		return nil, err
	}
	return v.call(ctx, method, path, body)
}

func ownerPath(ownerID string, segments ...string) string {
	p := "/api/owners/" + url.PathEscape(ownerID)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

// Executions returns the shared recent-execution log.
func (v *VPS) Executions(ctx context.Context) (json.RawMessage, error) {
	return v.call(ctx, http.MethodGet, "/api/executions", nil)
}

func (v *VPS) Status(ctx context.Context, ownerID string) (json.RawMessage, error) {
	return v.ownerCall(ctx, ownerID, http.MethodGet, ownerPath(ownerID, "status"), nil)
}

func (v *VPS) Crons(ctx context.Context, ownerID string) (json.RawMessage, error) {
	return v.ownerCall(ctx, ownerID, http.MethodGet, ownerPath(ownerID, "crons"), nil)
}

func (v *VPS) ToggleCron(ctx context.Context, ownerID, name string, enabled bool) (json.RawMessage, error) {
	return v.ownerCall(ctx, ownerID, http.MethodPost, ownerPath(ownerID, "crons", name, "toggle"),
		map[string]bool{"enabled": enabled})
}

func (v *VPS) RunCron(ctx context.Context, ownerID, name string) (json.RawMessage, error) {
	return v.ownerCall(ctx, ownerID, http.MethodPost, ownerPath(ownerID, "crons", name, "run"),
		struct{}{})
}

func (v *VPS) PauseBot(ctx context.Context, ownerID, bot string, paused bool) (json.RawMessage, error) {
	return v.ownerCall(ctx, ownerID, http.MethodPost, ownerPath(ownerID, "bots", bot, "pause"),
		map[string]bool{"paused": paused})
}
