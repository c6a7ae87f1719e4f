// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/binary"
	"fmt"
	"io"
)

// All manifest integers are big-endian. This is the Coffer archive's
// global endianness; the tag section inherits it rather than defining
// its own.

func readUint32(r io.Reader, field string) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, formatErrorf(err, "reading %s", field)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeUint32(w io.Writer, value uint32, field string) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	return nil
}

func readUint64(r io.Reader, field string) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, formatErrorf(err, "reading %s", field)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func writeUint64(w io.Writer, value uint64, field string) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	return nil
}

// readString reads a length-prefixed string: u16 big-endian byte
// length followed by UTF-8 bytes. Lengths above MaxTagNameLength are
// rejected — no legitimate manifest string comes close, and the cap
// keeps a corrupt length field from forcing a huge allocation.
func readString(r io.Reader, field string) (string, error) {
	var lengthBytes [2]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return "", formatErrorf(err, "reading %s length", field)
	}
	length := binary.BigEndian.Uint16(lengthBytes[:])
	if length > MaxTagNameLength {
		return "", formatErrorf(nil, "%s is %d bytes, maximum is %d", field, length, MaxTagNameLength)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", formatErrorf(err, "reading %s (%d bytes)", field, length)
	}
	return string(buf), nil
}

// writeString writes a length-prefixed string. Returns an error for
// strings longer than MaxTagNameLength.
func writeString(w io.Writer, value, field string) error {
	if len(value) > MaxTagNameLength {
		return fmt.Errorf("%s is %d bytes, maximum is %d", field, len(value), MaxTagNameLength)
	}
	var lengthBytes [2]byte
	binary.BigEndian.PutUint16(lengthBytes[:], uint16(len(value)))
	if _, err := w.Write(lengthBytes[:]); err != nil {
		return fmt.Errorf("writing %s length: %w", field, err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	return nil
}
