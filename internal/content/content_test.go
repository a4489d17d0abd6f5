package content

import (
	"strings"
	"testing"
)

func TestIdentifyDeterministic(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		nil,
		{},
		[]byte("hello"),
		[]byte("hello world, this is a longer blob of media bytes"),
		make([]byte, 1<<16),
	}

	for _, in := range inputs {
		first := Identify(in)
		for i := 0; i < 3; i++ {
			if got := Identify(in); got != first {
				t.Errorf("Identify not deterministic: %q vs %q", got, first)
			}
		}
	}
}

func TestIdentifyFormat(t *testing.T) {
	t.Parallel()

	id := Identify([]byte("sample"))
	if len(id) != IDLength {
		t.Fatalf("id length = %d, want %d", len(id), IDLength)
	}
	if id != strings.ToLower(id) {
		t.Errorf("id %q is not lowercase", id)
	}
	if !ValidID(id) {
		t.Errorf("Identify output %q does not pass ValidID", id)
	}
}

func TestIdentifyDistinguishesContent(t *testing.T) {
	t.Parallel()

	a := Identify([]byte("content a"))
	b := Identify([]byte("content b"))
	if a == b {
		t.Errorf("different contents produced the same id %q", a)
	}
}

func TestChecksumFullDigest(t *testing.T) {
	t.Parallel()

	sum := Checksum([]byte("sample"))
	if len(sum) != 64 {
		t.Fatalf("checksum length = %d, want 64", len(sum))
	}
	if !strings.HasPrefix(sum, Identify([]byte("sample"))) {
		t.Errorf("id should be a prefix of the checksum")
	}
}

func TestValidID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid id", "0123456789abcdef", true},
		{"too short", "0123456789abcde", false},
		{"too long", "0123456789abcdef0", false},
		{"uppercase rejected", "0123456789ABCDEF", false},
		{"non-hex character", "0123456789abcdeg", false},
		{"path traversal", "../../../etc/pwd", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidID(tt.id); got != tt.want {
				t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
