package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"math/big"
	"strings"

	"bioauth/internal/domain"
	"bioauth/internal/rotcode"

	"golang.org/x/crypto/argon2"
)

// recoveryCodeLength counts symbols, displayed as two hyphenated groups.
const recoveryCodeLength = 10

type argon2Params struct {
	// Stored alongside the hash so verification uses the original cost.
	Time    uint32 `json:"t"`
	Memory  uint32 `json:"m"` // KiB
	Threads uint8  `json:"p"`
	KeyLen  uint32 `json:"k"`
	SaltLen uint32 `json:"s"`
}

var currentArgon2 = argon2Params{
	Time:    3,
	Memory:  64 * 1024, // 64 MiB
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

// newRecoveryCode draws symbols from the rotating-code alphabet so recovery
// codes read the same way as one-time codes (no I/O ambiguity).
func newRecoveryCode() (string, error) {
	max := big.NewInt(int64(len(rotcode.Alphabet)))
	var b strings.Builder
	for i := 0; i < recoveryCodeLength; i++ {
		if i == recoveryCodeLength/2 {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(rotcode.Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// normalizeRecoveryCode strips formatting so "ab3dk-9qrtz" and "AB3DK9QRTZ"
// hash and verify identically.
func normalizeRecoveryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	return strings.ReplaceAll(code, " ", "")
}

func (s *Service) mintRecoveryCodes(userID domain.UserID) ([]string, []*domain.RecoveryCode, error) {
	paramsJSON, err := json.Marshal(currentArgon2)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	codes := make([]string, 0, s.cfg.RecoveryCodeCount)
	records := make([]*domain.RecoveryCode, 0, s.cfg.RecoveryCodeCount)
	for i := 0; i < s.cfg.RecoveryCodeCount; i++ {
		code, err := newRecoveryCode()
		if err != nil {
			return nil, nil, err
		}
		salt := make([]byte, currentArgon2.SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
		hash := argon2.IDKey([]byte(normalizeRecoveryCode(code)), salt,
			currentArgon2.Time, currentArgon2.Memory, currentArgon2.Threads, currentArgon2.KeyLen)

		codes = append(codes, code)
		records = append(records, &domain.RecoveryCode{
			UserID:     userID,
			Algo:       "argon2id",
			CodeHash:   hash,
			Salt:       salt,
			ParamsJSON: paramsJSON,
			CreatedAt:  now,
		})
	}
	return codes, records, nil
}

func verifyRecoveryCode(code string, rc *domain.RecoveryCode) bool {
	if rc.Algo != "argon2id" {
		return false
	}
	var stored argon2Params
	if err := json.Unmarshal(rc.ParamsJSON, &stored); err != nil {
		return false
	}
	calculated := argon2.IDKey([]byte(normalizeRecoveryCode(code)), rc.Salt,
		stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	return subtle.ConstantTimeCompare(calculated, rc.CodeHash) == 1
}
