package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"bioauth/internal/ctweb"
	"bioauth/internal/domain"
	"bioauth/internal/dto"
	"bioauth/internal/observability/metrics"
	"bioauth/internal/store"

	"github.com/google/uuid"
)

const siteSaltBytes = 16

// Register creates a bare user record. Biometric material arrives later via
// Enroll; pairing later still.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidRequest)
	}

	if _, err := s.store.Users().GetByUsername(ctx, req.Username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:        uuid.New(),
		Username:  req.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Email != "" {
		email := req.Email
		user.Email = &email
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &dto.RegisterResponse{
		Success:  true,
		Message:  "User registered. Continue with fingerprint enrollment.",
		Username: user.Username,
	}, nil
}

// Enroll converts a captured fingerprint template into a cancellable template
// and stores it. Re-enrollment keeps the existing salt so already-paired
// devices keep deriving the same CT; enrollment always drops is_paired, so a
// device must confirm the (possibly new) CT before login works again.
func (s *Service) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollResponse, error) {
	result := "failure"
	defer func() { metrics.EnrollmentsTotal.WithLabelValues(result).Inc() }()

	if req.Username == "" || req.ANSITemplateBase64 == "" {
		return nil, fmt.Errorf("%w: username and ansiTemplateBase64 are required", ErrInvalidRequest)
	}

	template, err := base64.StdEncoding.DecodeString(req.ANSITemplateBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: template is not valid base64", ErrInvalidRequest)
	}
	if len(template) < ctweb.WindowSize {
		return nil, fmt.Errorf("%w: template shorter than one compression window", ErrInvalidRequest)
	}

	var resp *dto.EnrollResponse
	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		user, err := tx.Users().GetByUsername(ctx, req.Username)
		if errors.Is(err, store.ErrRecordNotFound) {
			now := s.now().UTC()
			user = &domain.User{
				ID:        uuid.New(),
				Username:  req.Username,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		siteSalt := user.SiteSalt
		if len(siteSalt) == 0 {
			siteSalt = make([]byte, siteSaltBytes)
			if _, err := rand.Read(siteSalt); err != nil {
				return err
			}
		}

		ct := ctweb.Derive(template, user.ID.String(), siteSalt)
		if err := tx.Users().SetEnrollment(ctx, user.ID, ct, siteSalt); err != nil {
			return err
		}

		slog.Info("biometric enrolled",
			"user_id", user.ID,
			"username", user.Username,
			"ct_len", len(ct),
			"template_len", len(template),
		)
		resp = &dto.EnrollResponse{Success: true, Next: "pairing", Username: user.Username}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = "success"
	return resp, nil
}
