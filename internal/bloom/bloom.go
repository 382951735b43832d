// Package bloom implements the seen-before membership filter for wireless
// identities. It is a classic bloom filter sized from a target capacity and
// false-positive rate: once an identity is added, Contains always reports
// true for it (no false negatives); identities never added report true with
// probability approaching the configured rate as the filter fills.
// This package has NO external dependencies. Identities are never stored,
// only bit positions derived from them.
package bloom

import (
	"fmt"
	"math"
)

// FNV-1a constants for the probe hash.
const (
	offsetBasis uint32 = 2166136261
	fnvPrime    uint32 = 16777619
)

// maxHashes bounds the probe count for degenerate configurations.
const maxHashes = 20

// Filter is a bloom filter over 6-byte hardware addresses.
type Filter struct {
	bits    []byte
	bitSize uint32
	numHash int
}

// New creates a filter sized for the given capacity and target
// false-positive rate. The bit array size is m = -n*ln(p) / (ln2)^2 and the
// probe count is k = (m/n)*ln2, clamped to [1, 20].
func New(capacity int, fpRate float64) (*Filter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("bloom: capacity must be positive, got %d", capacity)
	}
	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("bloom: false-positive rate must be in (0,1), got %g", fpRate)
	}

	m := -float64(capacity) * math.Log(fpRate) / (math.Ln2 * math.Ln2)
	bitSize := uint32(math.Ceil(m))
	if bitSize == 0 {
		return nil, fmt.Errorf("bloom: computed bit size is zero for capacity=%d rate=%g", capacity, fpRate)
	}

	k := int(math.Round(float64(bitSize) / float64(capacity) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > maxHashes {
		k = maxHashes
	}

	return &Filter{
		bits:    make([]byte, (bitSize+7)/8),
		bitSize: bitSize,
		numHash: k,
	}, nil
}

// probe returns the bit position for one of the k hashes. FNV-1a over the
// 6 address bytes, with the probe index folded into the offset basis so the
// k probes are deterministically distinct.
func (f *Filter) probe(mac [6]byte, seed int) uint32 {
	h := offsetBasis ^ uint32(seed)
	for i := 0; i < 6; i++ {
		h ^= uint32(mac[i])
		h *= fnvPrime
	}
	return h % f.bitSize
}

// Add marks the identity as seen. Unconditional; adding twice is a no-op.
func (f *Filter) Add(mac [6]byte) {
	for i := 0; i < f.numHash; i++ {
		bit := f.probe(mac, i)
		f.bits[bit/8] |= 1 << (bit % 8)
	}
}

// Contains reports whether the identity was (probably) added before.
// A false return is always correct; a true return may be a false positive.
func (f *Filter) Contains(mac [6]byte) bool {
	for i := 0; i < f.numHash; i++ {
		bit := f.probe(mac, i)
		if f.bits[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// Reset clears all bits.
func (f *Filter) Reset() {
	for i := range f.bits {
		f.bits[i] = 0
	}
}

// Bytes returns a copy of the raw bit array for persistence.
func (f *Filter) Bytes() []byte {
	out := make([]byte, len(f.bits))
	copy(out, f.bits)
	return out
}

// Restore replaces the bit array with previously persisted bytes.
// The length must match the configured byte size exactly.
func (f *Filter) Restore(data []byte) error {
	if len(data) != len(f.bits) {
		return fmt.Errorf("bloom: restore length %d, want %d", len(data), len(f.bits))
	}
	copy(f.bits, data)
	return nil
}

// ByteSize returns the size of the backing bit array in bytes.
func (f *Filter) ByteSize() int { return len(f.bits) }

// BitSize returns the size of the backing bit array in bits.
func (f *Filter) BitSize() uint32 { return f.bitSize }

// NumHashes returns the number of probes per identity.
func (f *Filter) NumHashes() int { return f.numHash }
