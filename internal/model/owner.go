package model

import (
	"errors"
	"strings"
)

var (
	ErrUnknownOwner        = errors.New("unknown owner")
	ErrOwnerNotConfigured  = errors.New("owner not configured")
	ErrWalletNotConfigured = errors.New("owner has no wallet address")
)

type Region string

const (
	RegionDomestic      Region = "domestic"
	RegionInternational Region = "international"
)

// Credential is an owner's secret for the trading-data API plus its optional
// on-chain wallet. An empty APIKey is a valid state: the owner is pending.
type Credential struct {
	APIKey        string
	WalletAddress string
}

func (c Credential) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Credential) HasWallet() bool {
	return strings.TrimSpace(c.WalletAddress) != ""
}

// RateLimitConfig limits write proxies per owner.
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Owner is a bot-operating account. Defined at deploy time, immutable at runtime.
type Owner struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Region Region          `json:"region"`
	Cities []string        `json:"cities"`
	Color  string          `json:"color"`
	Creds  Credential      `json:"-"`
	Rate   RateLimitConfig `json:"-"`
}

// OwnerProfile is the public projection of an Owner.
type OwnerProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Region     Region   `json:"region"`
	Cities     []string `json:"cities"`
	Color      string   `json:"color"`
	Configured bool     `json:"configured"`
	Status     string   `json:"status"` // "active" or "pending"
	APIKey     string   `json:"api_key,omitempty"`
	Wallet     string   `json:"wallet,omitempty"`
}

func (o *Owner) Profile() OwnerProfile {
	p := OwnerProfile{
		ID:         o.ID,
		Name:       o.Name,
		Region:     o.Region,
		Cities:     o.Cities,
		Color:      o.Color,
		Configured: o.Creds.Configured(),
		Status:     "pending",
		APIKey:     MaskSecret(o.Creds.APIKey),
		Wallet:     o.Creds.WalletAddress,
	}
	if p.Configured {
		p.Status = "active"
	}
	return p
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
