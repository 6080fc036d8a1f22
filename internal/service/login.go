package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bioauth/internal/domain"
	"bioauth/internal/dto"
	"bioauth/internal/netutil"
	"bioauth/internal/observability/metrics"
	"bioauth/internal/rotcode"
	"bioauth/internal/store"
)

// Login verifies a rotating one-time code against the stored CT. The clock is
// read once so the drift window cannot flap across the call.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest, ip, ua string) (*dto.LoginResponse, error) {
	result := "failure"
	defer func() { metrics.LoginsTotal.WithLabelValues("rotating_code", result).Inc() }()

	if req.Username == "" || req.DynamicCode == "" {
		return nil, fmt.Errorf("%w: username and dynamicCode are required", ErrInvalidRequest)
	}

	user, err := s.store.Users().GetByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	if !user.Enrolled() {
		return nil, domain.ErrNotEnrolled
	}
	if !user.IsPaired {
		return nil, domain.ErrNotPaired
	}

	now := s.now()
	code := strings.ToUpper(strings.TrimSpace(req.DynamicCode))
	if !rotcode.Verify(user.CTWeb, user.SiteSalt, code, now.Unix()) {
		slog.Warn("rotating code rejected",
			"user_id", user.ID,
			"username", user.Username,
			"ip", ip,
			"user_agent", netutil.TruncateUserAgent(ua),
		)
		return nil, domain.ErrInvalidCode
	}

	resp, err := s.issueSession(user, "rotating_code")
	if err != nil {
		return nil, err
	}

	slog.Info("login succeeded",
		"user_id", user.ID,
		"username", user.Username,
		"flow", "rotating_code",
		"ip", ip,
	)
	result = "success"
	return resp, nil
}

// RecoveryLogin consumes a single-use recovery code. Every stored hash is
// checked so timing does not reveal how many codes remain unused.
func (s *Service) RecoveryLogin(ctx context.Context, req dto.RecoveryLoginRequest, ip, ua string) (*dto.LoginResponse, error) {
	result := "failure"
	defer func() { metrics.LoginsTotal.WithLabelValues("recovery_code", result).Inc() }()

	if req.Username == "" || req.RecoveryCode == "" {
		return nil, fmt.Errorf("%w: username and recoveryCode are required", ErrInvalidRequest)
	}

	user, err := s.store.Users().GetByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	if !user.IsPaired {
		return nil, domain.ErrNotPaired
	}

	unused, err := s.store.RecoveryCodes().ListUnused(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var matched *domain.RecoveryCode
	for _, rc := range unused {
		if verifyRecoveryCode(req.RecoveryCode, rc) && matched == nil {
			matched = rc
		}
	}
	if matched == nil {
		slog.Warn("recovery code rejected",
			"user_id", user.ID,
			"username", user.Username,
			"ip", ip,
			"user_agent", netutil.TruncateUserAgent(ua),
		)
		return nil, domain.ErrInvalidCode
	}

	if err := s.store.RecoveryCodes().MarkUsed(ctx, matched.ID, s.now().UTC()); err != nil {
		return nil, err
	}

	resp, err := s.issueSession(user, "recovery_code")
	if err != nil {
		return nil, err
	}

	slog.Info("login succeeded",
		"user_id", user.ID,
		"username", user.Username,
		"flow", "recovery_code",
		"ip", ip,
	)
	result = "success"
	return resp, nil
}

func (s *Service) issueSession(user *domain.User, flow string) (*dto.LoginResponse, error) {
	token, err := s.signer.Sign(user.ID.String(), s.cfg.AccessTTL, map[string]any{
		"username": user.Username,
		"site_id":  s.cfg.SiteID,
		"amr":      flow,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Success:     true,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.AccessTTL / time.Second),
	}, nil
}
