package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// encryptForDevice seals the CT under the device's RSA public key with
// OAEP/SHA-256 and returns base64 ciphertext. There is deliberately no
// plaintext fallback: if the key is unusable the confirm fails.
func encryptForDevice(pubPEM string, plaintext []byte) (string, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return "", errors.New("public key is not PEM encoded")
	}

	var rsaKey *rsa.PublicKey
	switch block.Type {
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("parsing PKCS#1 public key: %w", err)
		}
		rsaKey = key
	default:
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("parsing public key: %w", err)
		}
		var ok bool
		rsaKey, ok = key.(*rsa.PublicKey)
		if !ok {
			return "", fmt.Errorf("unsupported public key type %T", key)
		}
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, rsaKey, plaintext, nil)
	if err != nil {
		return "", fmt.Errorf("rsa-oaep encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
