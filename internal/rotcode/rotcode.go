// Package rotcode implements the time-rotating one-time code derived from a
// cancellable template. Codes rotate every 30 seconds; verification tolerates
// one window of clock drift on either side. Both ends of a pairing must agree
// on this exact derivation, so the alphabet, window size, and code length are
// fixed constants.
package rotcode

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"math/big"
)

const (
	// Alphabet omits I and O to avoid visual confusion with 1 and 0.
	Alphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	CodeLength    = 8
	WindowSeconds = 30

	// DriftWindows is how many adjacent windows Verify accepts on each side
	// of the current one.
	DriftWindows = 1
)

func codeForWindow(ct, siteSalt []byte, window int64) string {
	var step [8]byte
	binary.BigEndian.PutUint64(step[:], uint64(window))

	h := sha256.New()
	h.Write(ct)
	h.Write(siteSalt)
	h.Write(step[:])
	digest := h.Sum(nil)

	// HOTP-style truncation over the full digest: repeated mod/div against
	// the alphabet size, least significant symbol first.
	num := new(big.Int).SetBytes(digest)
	base := big.NewInt(int64(len(Alphabet)))
	rem := new(big.Int)

	out := make([]byte, CodeLength)
	for i := 0; i < CodeLength; i++ {
		num.DivMod(num, base, rem)
		out[i] = Alphabet[rem.Int64()]
	}
	return string(out)
}

// CodeAt returns the code for the window containing epochSeconds.
func CodeAt(ct, siteSalt []byte, epochSeconds int64) string {
	return codeForWindow(ct, siteSalt, epochSeconds/WindowSeconds)
}

// Verify reports whether submitted matches the code for the current window or
// one window on either side. It fails closed: missing key material or a
// malformed code is a rejection, never an error.
func Verify(ct, siteSalt []byte, submitted string, nowEpochSeconds int64) bool {
	if len(ct) == 0 || len(siteSalt) == 0 || len(submitted) != CodeLength {
		return false
	}

	window := nowEpochSeconds / WindowSeconds
	matched := 0
	for w := window - DriftWindows; w <= window+DriftWindows; w++ {
		candidate := codeForWindow(ct, siteSalt, w)
		// Compare every candidate so timing does not reveal which window hit.
		matched |= subtle.ConstantTimeCompare([]byte(candidate), []byte(submitted))
	}
	return matched == 1
}
