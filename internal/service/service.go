// Package service orchestrates enrollment, QR pairing, and rotating-code
// login on top of the directory store and the ephemeral pending-token store.
package service

import (
	"time"

	"bioauth/internal/jwtsigner"
	"bioauth/internal/pairing"
	"bioauth/internal/sites"
	"bioauth/internal/store"
)

type Config struct {
	// ServerURL is the public base URL embedded in QR payloads so the
	// scanning device knows where to confirm.
	ServerURL string
	SiteID    string

	PairTokenTTL      time.Duration
	AccessTTL         time.Duration
	RecoveryCodeCount int

	// Now overrides the clock; nil means time.Now. Every operation reads it
	// once and threads that instant through token checks and code windows.
	Now func() time.Time
}

type Service struct {
	store   *store.Store
	pending *pairing.Store
	signer  *jwtsigner.Signer
	cfg     Config
	now     func() time.Time
}

func New(st *store.Store, pending *pairing.Store, signer *jwtsigner.Signer, cfg Config) *Service {
	if cfg.SiteID == "" {
		cfg.SiteID = sites.DefaultSiteID
	}
	if cfg.PairTokenTTL <= 0 {
		cfg.PairTokenTTL = 5 * time.Minute
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RecoveryCodeCount <= 0 {
		cfg.RecoveryCodeCount = 10
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, pending: pending, signer: signer, cfg: cfg, now: now}
}
