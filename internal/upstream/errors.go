package upstream

import (
	"errors"
	"fmt"

	"github.com/GoPolymarket/clawdash/internal/model"
)

// ErrOffline is returned, without any network activity, for owners that have
// no credential configured.
var ErrOffline = errors.New("owner offline")

// Error is a failed upstream call. Status is 0 for transport-level failures
// such as timeouts and refused connections.
type Error struct {
	Backend Backend
	Status  int
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Backend, e.Path)
	if e.Status != 0 {
		msg += fmt.Sprintf(" returned %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CredentialSource resolves an owner's credential.
type CredentialSource interface {
	Resolve(ownerID string) (model.Credential, error)
}

// resolve maps "not configured" onto ErrOffline and passes other resolver
// errors (unknown owner) through.
func resolve(creds CredentialSource, ownerID string) (model.Credential, error) {
	cred, err := creds.Resolve(ownerID)
	if err != nil {
		if errors.Is(err, model.ErrOwnerNotConfigured) {
			return model.Credential{}, fmt.Errorf("%w: %w", ErrOffline, err)
		}
		return model.Credential{}, err
	}
	return cred, nil
}

// IsOffline reports whether err is the "owner not configured" condition.
func IsOffline(err error) bool {
	return errors.Is(err, ErrOffline) || errors.Is(err, model.ErrOwnerNotConfigured)
}
