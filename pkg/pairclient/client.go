// Package pairclient is the device-side API client: it confirms a scanned
// pairing QR, acknowledges completion, and performs rotating-code logins. The
// mobile app links this; it is also what the integration tests drive.
package pairclient

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bioauth/internal/dto"
	"bioauth/internal/rotcode"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// QRPayload mirrors the compact JSON the browser embeds in the QR image.
type QRPayload struct {
	ServerURL string `json:"s"`
	UserID    string `json:"u"`
	PairToken string `json:"t"`
	ExpiresAt int64  `json:"e"`
	SiteID    string `json:"i"`
}

// Confirm presents the scanned token plus this device's public key and
// returns the pairing material. The CT in the response is RSA-OAEP sealed to
// pub's counterpart private key.
func (c *Client) Confirm(ctx context.Context, token, deviceID, deviceName string, pub *rsa.PublicKey) (*dto.ConfirmResponse, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encoding device key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	var out dto.ConfirmResponse
	err = c.post(ctx, "/api/pairing/confirm", dto.ConfirmRequest{
		PairToken:       token,
		DeviceID:        deviceID,
		DeviceName:      deviceName,
		DevicePublicKey: string(pubPEM),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete acknowledges that the CT was decrypted and stored on-device.
func (c *Client) Complete(ctx context.Context, userID, deviceID string) (*dto.CompleteResponse, error) {
	var out dto.CompleteResponse
	if err := c.post(ctx, "/api/pairing/complete", dto.CompleteRequest{
		UserID:   userID,
		DeviceID: deviceID,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login computes the current rotating code from locally held pairing
// material and submits it.
func (c *Client) Login(ctx context.Context, username string, ct []byte, siteSaltHex string) (*dto.LoginResponse, error) {
	siteSalt, err := hex.DecodeString(siteSaltHex)
	if err != nil {
		return nil, fmt.Errorf("decoding site salt: %w", err)
	}
	code := rotcode.CodeAt(ct, siteSalt, time.Now().Unix())

	var out dto.LoginResponse
	if err := c.post(ctx, "/api/login", dto.LoginRequest{
		Username:    username,
		DynamicCode: code,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status polls the pairing state for a username.
func (c *Client) Status(ctx context.Context, username string) (*dto.StatusResponse, error) {
	endpoint := c.baseURL + "/api/pairing/status?username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var out dto.StatusResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptCT unseals the confirm response's CT with the device private key.
func DecryptCT(encryptedB64 string, priv *rsa.PrivateKey) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedB64)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	return rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		if len(data) == 0 {
			data = []byte(resp.Status)
		}
		return fmt.Errorf("request failed: %s", strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
