package config

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

const minSessionSecretLen = 16

var ownerIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate fails closed: the dashboard refuses to start without an explicitly
// configured account, signing secret and upstream.
func (c Config) Validate() error {
	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username must be set")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password or auth.password_hash must be set")
	}
	if len(c.Auth.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("auth.session_secret must be at least %d bytes", minSessionSecretLen)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be > 0, got %s", c.Auth.SessionTTL)
	}

	if err := validateBaseURL("simmer.base_url", c.Simmer.BaseURL, true); err != nil {
		return err
	}
	if err := validateBaseURL("vps.base_url", c.VPS.BaseURL, false); err != nil {
		return err
	}

	if c.Poll.FastInterval <= 0 || c.Poll.SlowInterval <= 0 {
		return fmt.Errorf("poll intervals must be > 0, got fast=%s slow=%s", c.Poll.FastInterval, c.Poll.SlowInterval)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be > 0, got %s", c.Upstream.Timeout)
	}
	if c.Dashboard.TradeWindow <= 0 || c.Dashboard.DayWindow <= 0 {
		return fmt.Errorf("dashboard.trade_window and dashboard.day_window must be > 0")
	}

	if len(c.Owners) == 0 {
		return fmt.Errorf("at least one owner must be configured")
	}
	seen := make(map[string]struct{}, len(c.Owners))
	for _, o := range c.Owners {
		if !ownerIDPattern.MatchString(o.ID) {
			return fmt.Errorf("owner id %q must be lowercase alphanumeric", o.ID)
		}
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("duplicate owner id %q", o.ID)
		}
		seen[o.ID] = struct{}{}

		switch o.Region {
		case "domestic", "international":
		default:
			return fmt.Errorf("owner %s: region must be 'domestic' or 'international', got %q", o.ID, o.Region)
		}
		if o.WalletAddress != "" && !common.IsHexAddress(o.WalletAddress) {
			return fmt.Errorf("owner %s: wallet_address %q is not a valid address", o.ID, o.WalletAddress)
		}
		if o.RateLimit.QPS < 0 || o.RateLimit.Burst < 0 {
			return fmt.Errorf("owner %s: rate_limit must be >= 0", o.ID)
		}
	}
	if _, ok := seen[c.Dashboard.HomeOwner]; !ok {
		return fmt.Errorf("dashboard.home_owner %q is not a configured owner", c.Dashboard.HomeOwner)
	}

	return nil
}

func validateBaseURL(key, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s must be set", key)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}
