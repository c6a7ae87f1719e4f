// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"io"
	"math/bits"
)

// Bitmask is a fixed-length bit sequence packed MSB-first: bit i lives
// in byte i/8 at position 0x80 >> (i%8), so the most significant bit
// of each byte corresponds to the lowest index in that byte group.
// Padding bits past Len() in the final byte are always zero.
//
// The zero value is an empty mask.
type Bitmask struct {
	data []byte
	bits int
}

// NewBitmask returns an all-clear mask of the given bit length.
// Negative lengths are treated as zero.
func NewBitmask(bitCount int) Bitmask {
	if bitCount < 0 {
		bitCount = 0
	}
	return Bitmask{
		data: make([]byte, (bitCount+7)/8),
		bits: bitCount,
	}
}

// Len returns the number of bits in the mask.
func (m Bitmask) Len() int {
	return m.bits
}

// ByteLen returns the packed byte length: ceil(Len()/8).
func (m Bitmask) ByteLen() int {
	return (m.bits + 7) / 8
}

// Bit reports whether bit i is set. Out-of-range indices (including
// negative) report false.
func (m Bitmask) Bit(i int) bool {
	if i < 0 || i >= m.bits {
		return false
	}
	return m.data[i/8]&(0x80>>(i%8)) != 0
}

// SetBit sets or clears bit i. Out-of-range indices are a no-op.
func (m *Bitmask) SetBit(i int, value bool) {
	if i < 0 || i >= m.bits {
		return
	}
	position := byte(0x80 >> (i % 8))
	if value {
		m.data[i/8] |= position
	} else {
		m.data[i/8] &^= position
	}
}

// AppendBit grows the mask by one bit and sets it to value.
func (m *Bitmask) AppendBit(value bool) {
	m.bits++
	if m.ByteLen() > len(m.data) {
		m.data = append(m.data, 0)
	}
	m.SetBit(m.bits-1, value)
}

// RemoveBit deletes bit i, shifting all subsequent bits down by one
// and shrinking the mask by one bit. Out-of-range indices are a
// no-op. This is how masks track file deletion: the caller removes
// the file at index i from its file list and removes bit i from every
// mask in lockstep.
func (m *Bitmask) RemoveBit(i int) {
	if i < 0 || i >= m.bits {
		return
	}
	for j := i; j < m.bits-1; j++ {
		m.SetBit(j, m.Bit(j+1))
	}
	m.bits--
	m.data = m.data[:(m.bits+7)/8]
	m.clearPadding()
}

// CountSet returns the number of set bits.
func (m Bitmask) CountSet() int {
	var total int
	for _, b := range m.data {
		total += bits.OnesCount8(b)
	}
	return total
}

// clearPadding zeroes the bits of the final byte beyond Len(). The
// packed form must keep padding zero so identical masks are
// byte-identical.
func (m *Bitmask) clearPadding() {
	if remainder := m.bits % 8; remainder != 0 {
		m.data[len(m.data)-1] &= byte(0xFF << (8 - remainder))
	}
}

// readBitmask reads a packed mask of exactly bitCount bits from r.
// Returns a *FormatError if the stream cannot satisfy the declared
// bit count. Padding bits are cleared on read so a re-encode is
// byte-stable even for sloppy producers.
func readBitmask(r io.Reader, bitCount int) (Bitmask, error) {
	mask := NewBitmask(bitCount)
	if _, err := io.ReadFull(r, mask.data); err != nil {
		return Bitmask{}, formatErrorf(err, "reading %d-bit mask (%d bytes)", bitCount, len(mask.data))
	}
	mask.clearPadding()
	return mask, nil
}

// writeTo writes the packed mask bytes to w. Padding bits are already
// zero by construction.
func (m Bitmask) writeTo(w io.Writer) error {
	_, err := w.Write(m.data)
	return err
}
