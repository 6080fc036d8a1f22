package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"bioauth/internal/domain"
	"bioauth/internal/dto"
	"bioauth/internal/observability/metrics"
	"bioauth/internal/pairing"
	"bioauth/internal/sites"
	"bioauth/internal/store"

	"github.com/google/uuid"
)

// IssueQR creates an ephemeral pairing token for an enrolled user and returns
// the payload the browser renders as a QR code.
func (s *Service) IssueQR(ctx context.Context, username string) (*dto.QRResponse, error) {
	result := "failure"
	defer func() { metrics.PairTokensIssuedTotal.WithLabelValues(result).Inc() }()

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidRequest)
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	if !user.Enrolled() {
		return nil, domain.ErrNotEnrolled
	}

	token, err := pairing.NewToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.PairTokenTTL)
	s.pending.Put(token, pairing.Pending{
		UserID:    user.ID,
		SiteID:    s.cfg.SiteID,
		ExpiresAt: expiresAt,
	})
	metrics.PendingPairings.WithLabelValues().Set(float64(s.pending.Len()))

	slog.Info("pairing token issued",
		"user_id", user.ID,
		"username", user.Username,
		"site_id", s.cfg.SiteID,
		"expires_at", expiresAt,
	)

	result = "success"
	return &dto.QRResponse{
		Success: true,
		Payload: dto.QRPayload{
			ServerURL: s.cfg.ServerURL,
			UserID:    user.ID.String(),
			Username:  user.Username,
			SiteID:    s.cfg.SiteID,
			PairToken: token,
			ExpiresAt: expiresAt.UnixMilli(),
		},
	}, nil
}

// ConfirmDevice is called by the mobile app after scanning the QR. The token
// is single-use: Consume is the atomic gate, so of two racing confirms only
// one binds. CT encryption happens before the token is consumed; a bind
// failure afterwards restores the pending entry, so token removal and device
// binding land together or not at all.
func (s *Service) ConfirmDevice(ctx context.Context, req dto.ConfirmRequest) (*dto.ConfirmResponse, error) {
	result := "failure"
	defer func() { metrics.DeviceConfirmsTotal.WithLabelValues(result).Inc() }()

	if req.PairToken == "" || req.DeviceID == "" || req.DevicePublicKey == "" {
		return nil, fmt.Errorf("%w: pairToken, deviceId, devicePublicKey are required", ErrInvalidRequest)
	}

	now := s.now()
	rec, ok := s.pending.Get(req.PairToken, now)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.store.Users().GetByID(ctx, rec.UserID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrNotEnrolled
	} else if err != nil {
		return nil, err
	}
	if !user.Enrolled() {
		return nil, domain.ErrNotEnrolled
	}

	// Encrypt before consuming: the CT is never returned unencrypted, and an
	// unusable device key must not burn the token.
	ciphertext, err := encryptForDevice(req.DevicePublicKey, user.CTWeb)
	if err != nil {
		slog.Warn("device key rejected", "user_id", user.ID, "device_id", req.DeviceID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	rec, ok = s.pending.Consume(req.PairToken, now)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	metrics.PendingPairings.WithLabelValues().Set(float64(s.pending.Len()))

	device := &domain.Device{
		UserID:    user.ID,
		DeviceID:  req.DeviceID,
		Name:      req.DeviceName,
		PublicKey: req.DevicePublicKey,
		PairedAt:  now.UTC(),
	}
	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		return tx.Devices().Upsert(ctx, device)
	})
	if err != nil {
		s.pending.Put(req.PairToken, rec)
		return nil, fmt.Errorf("binding device: %w", err)
	}

	site := sites.Lookup(rec.SiteID)
	slog.Info("device confirmed",
		"user_id", user.ID,
		"username", user.Username,
		"device_id", req.DeviceID,
		"site_id", rec.SiteID,
	)

	result = "success"
	return &dto.ConfirmResponse{
		Success:     true,
		EncryptedCT: ciphertext,
		SiteSalt:    hex.EncodeToString(user.SiteSalt),
		DisplayName: site.DisplayName,
		LogoURL:     site.LogoURL,
		UserID:      user.ID.String(),
		SiteID:      rec.SiteID,
		Username:    user.Username,
	}, nil
}

// CompletePairing is the device's acknowledgement that it decrypted and
// stored the CT. It flips the user login-capable; the first completion also
// mints single-use recovery codes, returned in plaintext exactly once.
func (s *Service) CompletePairing(ctx context.Context, req dto.CompleteRequest) (*dto.CompleteResponse, error) {
	result := "failure"
	defer func() { metrics.PairingCompletionsTotal.WithLabelValues(result).Inc() }()

	if req.UserID == "" || req.DeviceID == "" {
		return nil, fmt.Errorf("%w: userId and deviceId are required", ErrInvalidRequest)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid userId", ErrInvalidRequest)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}

	if _, err := s.store.Devices().GetByUserAndDeviceID(ctx, userID, req.DeviceID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrDeviceNotRegistered
		}
		return nil, err
	}

	var plaintextCodes []string
	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Users().SetPaired(ctx, userID); err != nil {
			return err
		}
		if user.IsPaired {
			return nil // already paired; completion is idempotent
		}
		existing, err := tx.RecoveryCodes().CountByUser(ctx, userID)
		if err != nil || existing > 0 {
			return err
		}
		codes, records, err := s.mintRecoveryCodes(userID)
		if err != nil {
			return err
		}
		if err := tx.RecoveryCodes().AddBatch(ctx, records); err != nil {
			return err
		}
		plaintextCodes = codes
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("pairing completed", "user_id", userID, "device_id", req.DeviceID,
		"recovery_codes_minted", len(plaintextCodes))

	result = "success"
	return &dto.CompleteResponse{Success: true, RecoveryCodes: plaintextCodes}, nil
}

// Status reports the pairing state machine position for a user. It is the
// polling target for the browser and never mutates state.
func (s *Service) Status(ctx context.Context, username string) (*dto.StatusResponse, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidRequest)
	}
	user, err := s.store.Users().GetByUsername(ctx, username)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return &dto.StatusResponse{
		Success:      true,
		IsPaired:     user.IsPaired,
		HasBiometric: user.HasBiometric,
		HasCTWeb:     len(user.CTWeb) > 0,
	}, nil
}
