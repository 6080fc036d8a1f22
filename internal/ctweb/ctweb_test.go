package ctweb

import (
	"bytes"
	"testing"
)

func testTemplate(n int) []byte {
	tmpl := make([]byte, n)
	for i := range tmpl {
		tmpl[i] = byte((i*37 + 11) % 251)
	}
	return tmpl
}

func TestDeriveDeterministic(t *testing.T) {
	tmpl := testTemplate(256)
	salt := []byte("0123456789abcdef")

	first := Derive(tmpl, "user-1", salt)
	second := Derive(tmpl, "user-1", salt)
	if !bytes.Equal(first, second) {
		t.Fatalf("expected identical CT on repeated derivation, got %v vs %v", first, second)
	}
}

func TestDeriveLength(t *testing.T) {
	tests := []struct {
		name    string
		tmplLen int
		ctLen   int
	}{
		{name: "empty", tmplLen: 0, ctLen: 0},
		{name: "below one window", tmplLen: 31, ctLen: 0},
		{name: "exactly one window", tmplLen: 32, ctLen: 1},
		{name: "partial trailing window dropped", tmplLen: 100, ctLen: 3},
		{name: "256 byte template", tmplLen: 256, ctLen: 8},
		{name: "1024 byte template", tmplLen: 1024, ctLen: 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ct := Derive(testTemplate(tc.tmplLen), "user-1", []byte("salt"))
			if len(ct) != tc.ctLen {
				t.Fatalf("expected CT length %d, got %d", tc.ctLen, len(ct))
			}
		})
	}
}

func TestDeriveOutputRange(t *testing.T) {
	ct := Derive(testTemplate(1024), "user-1", []byte("salt"))
	for i, v := range ct {
		if v >= WindowSize {
			t.Fatalf("CT byte %d out of range: %d", i, v)
		}
	}
}

func TestDeriveSaltRotationChangesCT(t *testing.T) {
	tmpl := testTemplate(256)

	ct1 := Derive(tmpl, "user-1", []byte("salt-one-000000"))
	ct2 := Derive(tmpl, "user-1", []byte("salt-two-111111"))
	if bytes.Equal(ct1, ct2) {
		t.Fatalf("rotating the salt must produce an unrelated CT")
	}
}

func TestDeriveUserScoping(t *testing.T) {
	tmpl := testTemplate(256)
	salt := []byte("0123456789abcdef")

	ct1 := Derive(tmpl, "user-1", salt)
	ct2 := Derive(tmpl, "user-2", salt)
	if bytes.Equal(ct1, ct2) {
		t.Fatalf("different users must derive different CTs from the same template")
	}
}

func TestDeriveKnownVector(t *testing.T) {
	// Pinned output: any change here breaks compatibility with paired
	// clients that reproduce the transform.
	ct := Derive(testTemplate(256), "user-1", []byte("0123456789abcdef"))
	want := []byte{16, 30, 7, 5, 6, 6, 22, 9}
	if !bytes.Equal(ct, want) {
		t.Fatalf("derived CT drifted from pinned vector: got %v want %v", ct, want)
	}
}

func TestPRNGSequenceStable(t *testing.T) {
	// The generator's bit behavior is a compatibility contract; the first
	// draws from a known seed must never change.
	p := &prng{state: 1}
	wantStates := []uint32{270369, 67634689, 2647435461, 307599695, 2398689233}
	for i, want := range wantStates {
		p.next()
		if p.state != want {
			t.Fatalf("draw %d: state %d, want %d", i, p.state, want)
		}
	}
}

func TestSeedFromNonNegative(t *testing.T) {
	// Seeds derive from hash bytes; whatever the sign bit, the effective
	// seed is the absolute value.
	for _, id := range []string{"a", "b", "c", "user-1", "user-2", "demo1"} {
		s := seedFrom(id, []byte("salt"))
		if int32(s) < 0 && s != 0x80000000 {
			t.Fatalf("seed for %q not normalized: %d", id, s)
		}
	}
}
