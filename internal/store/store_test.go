package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bioauth/internal/domain"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Device{}, &domain.RecoveryCode{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return New(db)
}

func createUser(t *testing.T, s *Store, prefix string) *domain.User {
	t.Helper()
	user := &domain.User{Username: fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])}
	if err := s.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestUserLookup(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user := createUser(t, s, "lookup")

	byID, err := s.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Username != user.Username {
		t.Fatalf("username %q, want %q", byID.Username, user.Username)
	}

	byName, err := s.Users().GetByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != user.ID {
		t.Fatalf("id mismatch")
	}

	_, err = s.Users().GetByUsername(ctx, "missing-"+uuid.New().String())
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSetEnrollmentResetsPairing(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user := createUser(t, s, "enroll")

	ct := []byte{1, 2, 3, 4}
	salt := []byte("0123456789abcdef")
	if err := s.Users().SetEnrollment(ctx, user.ID, ct, salt); err != nil {
		t.Fatalf("set enrollment: %v", err)
	}
	if err := s.Users().SetPaired(ctx, user.ID); err != nil {
		t.Fatalf("set paired: %v", err)
	}

	// A new enrollment invalidates the paired state.
	if err := s.Users().SetEnrollment(ctx, user.ID, ct, salt); err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	got, err := s.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.HasBiometric || got.IsPaired {
		t.Fatalf("flags after re-enrollment: biometric=%v paired=%v", got.HasBiometric, got.IsPaired)
	}
	if string(got.CTWeb) != string(ct) || string(got.SiteSalt) != string(salt) {
		t.Fatalf("stored material differs")
	}
}

func TestDeviceUpsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user := createUser(t, s, "device")

	first := &domain.Device{UserID: user.ID, DeviceID: "phone-1", PublicKey: "pem-one"}
	if err := s.Devices().Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.Name != domain.DefaultDeviceName {
		t.Fatalf("empty name not defaulted: %q", first.Name)
	}

	// Same (user, device) replaces the key rather than adding a row.
	second := &domain.Device{UserID: user.ID, DeviceID: "phone-1", Name: "Renamed", PublicKey: "pem-two"}
	if err := s.Devices().Upsert(ctx, second); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	devices, err := s.Devices().ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].PublicKey != "pem-two" || devices[0].Name != "Renamed" {
		t.Fatalf("upsert did not replace: %+v", devices[0])
	}

	got, err := s.Devices().GetByUserAndDeviceID(ctx, user.ID, "phone-1")
	if err != nil {
		t.Fatalf("get device: %v", err)
	}
	if got.PublicKey != "pem-two" {
		t.Fatalf("stored key %q", got.PublicKey)
	}

	_, err = s.Devices().GetByUserAndDeviceID(ctx, user.ID, "phone-2")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecoveryCodeLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user := createUser(t, s, "codes")

	batch := make([]*domain.RecoveryCode, 3)
	for i := range batch {
		batch[i] = &domain.RecoveryCode{
			UserID:     user.ID,
			Algo:       "argon2id",
			CodeHash:   []byte{byte(i)},
			Salt:       []byte("salt"),
			ParamsJSON: []byte("{}"),
			CreatedAt:  time.Now().UTC(),
		}
	}
	if err := s.RecoveryCodes().AddBatch(ctx, batch); err != nil {
		t.Fatalf("add batch: %v", err)
	}

	n, err := s.RecoveryCodes().CountByUser(ctx, user.ID)
	if err != nil || n != 3 {
		t.Fatalf("count %d err %v, want 3", n, err)
	}

	if err := s.RecoveryCodes().MarkUsed(ctx, batch[0].ID, time.Now().UTC()); err != nil {
		t.Fatalf("mark used: %v", err)
	}

	unused, err := s.RecoveryCodes().ListUnused(ctx, user.ID)
	if err != nil {
		t.Fatalf("list unused: %v", err)
	}
	if len(unused) != 2 {
		t.Fatalf("expected 2 unused codes, got %d", len(unused))
	}
	for _, rc := range unused {
		if rc.ID == batch[0].ID {
			t.Fatalf("used code still listed")
		}
	}

	// A used code never counts toward the total of unused ones again, but it
	// remains on record.
	n, err = s.RecoveryCodes().CountByUser(ctx, user.ID)
	if err != nil || n != 3 {
		t.Fatalf("count after use %d err %v, want 3", n, err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	username := "tx-" + uuid.New().String()[:8]
	sentinel := errors.New("abort")
	err := s.WithTx(ctx, func(tx *Store) error {
		if err := tx.Users().Create(ctx, &domain.User{Username: username}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	if _, err := s.Users().GetByUsername(ctx, username); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("user survived a rolled-back transaction: %v", err)
	}
}
