// Package ctweb derives a cancellable template (CT) from a raw fingerprint
// template. The derivation is deterministic in (template, userID, siteSalt)
// and lossy by construction: a seeded permutation followed by 32:1 window
// compression, so the CT cannot reconstruct the source template. Rotating the
// salt yields an unrelated CT, which is what makes the template revocable.
package ctweb

import (
	"crypto/sha256"
	"encoding/binary"
)

// WindowSize is the compression window: each full window of shuffled bytes
// contributes exactly one CT byte, the in-window index of its maximum.
const WindowSize = 32

// prng is the xorshift32 generator paired clients reproduce. The shift
// constants and the float mapping are part of the wire-compatibility
// contract and must not change.
type prng struct {
	state uint32
}

func seedFrom(userID string, siteSalt []byte) uint32 {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write(siteSalt)
	sum := h.Sum(nil)

	// First 4 digest bytes as a signed 32-bit value; negatives are negated.
	// int32 negation wraps on the minimum value, matching the reference
	// client's 32-bit coercion.
	v := int32(binary.BigEndian.Uint32(sum[:4]))
	if v < 0 {
		v = -v
	}
	return uint32(v)
}

func (p *prng) next() float64 {
	p.state ^= p.state << 13
	p.state ^= p.state >> 17
	p.state ^= p.state << 5
	return float64(p.state) / float64(0xFFFFFFFF)
}

// intn returns an index in [0, n] driven by the generator.
func (p *prng) intn(n int) int {
	j := int(p.next() * float64(n+1))
	if j > n {
		// next() can emit exactly 1.0 when the state is all ones.
		j = n
	}
	return j
}

// Derive computes the cancellable template for a raw template.
// An empty template yields an empty CT; the function is otherwise total.
func Derive(template []byte, userID string, siteSalt []byte) []byte {
	if len(template) == 0 {
		return []byte{}
	}

	p := &prng{state: seedFrom(userID, siteSalt)}

	indices := make([]int, len(template))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := p.intn(i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	shuffled := make([]byte, len(template))
	for i := range shuffled {
		shuffled[i] = template[indices[i]]
	}

	numWindows := len(shuffled) / WindowSize
	ct := make([]byte, numWindows)
	for w := 0; w < numWindows; w++ {
		start := w * WindowSize
		maxIdx := 0
		maxVal := shuffled[start]
		for i := 1; i < WindowSize; i++ {
			if v := shuffled[start+i]; v > maxVal {
				maxVal = v
				maxIdx = i
			}
		}
		ct[w] = byte(maxIdx)
	}
	return ct
}
