// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxTagNameLength is the maximum byte length of a tag name. Real tag
// names are short ("Windows", "enUS", "x86_64"); the limit exists so
// a corrupt length prefix cannot demand an absurd allocation.
const MaxTagNameLength = 512

// Tag type categories. Types are not unique across tags — every
// locale tag shares TagTypeLocale. TagTypeAlternate has a distinct
// numeric value but sorts as locale-adjacent (see sortRank).
const (
	TagTypePlatform     uint16 = 1
	TagTypeArchitecture uint16 = 2
	TagTypeLocale       uint16 = 3
	TagTypeRegion       uint16 = 4
	TagTypeFeature      uint16 = 5
	TagTypeAlternate    uint16 = 0x4000
)

// TagEntry is a single named classification and the per-file mask
// recording which archive files carry it. Mask length always equals
// the owning manifest's file count.
type TagEntry struct {
	// Name is the tag identifier, unique in its collection under
	// case-insensitive comparison. The original casing is preserved
	// for serialization and display.
	Name string

	// Type is the tag's category code (TagTypePlatform etc.).
	Type uint16

	// Mask has one bit per archive file; bit i set means file i
	// carries this tag.
	Mask Bitmask
}

// readTagEntry decodes one entry from r: length-prefixed name, u16
// type, then a packed mask of exactly fileCount bits. Any truncation
// or oversized declared length is a *FormatError.
func readTagEntry(r io.Reader, fileCount int) (*TagEntry, error) {
	name, err := readString(r, "tag name")
	if err != nil {
		return nil, err
	}

	var typeBytes [2]byte
	if _, err := io.ReadFull(r, typeBytes[:]); err != nil {
		return nil, formatErrorf(err, "reading type of tag %q", name)
	}

	mask, err := readBitmask(r, fileCount)
	if err != nil {
		return nil, formatErrorf(err, "decoding tag %q", name)
	}

	return &TagEntry{
		Name: name,
		Type: binary.BigEndian.Uint16(typeBytes[:]),
		Mask: mask,
	}, nil
}

// writeTo encodes the entry in the same layout readTagEntry decodes.
// Mask padding bits beyond the file count are zero by construction.
func (e *TagEntry) writeTo(w io.Writer) error {
	if err := writeString(w, e.Name, "tag name"); err != nil {
		return err
	}

	var typeBytes [2]byte
	binary.BigEndian.PutUint16(typeBytes[:], e.Type)
	if _, err := w.Write(typeBytes[:]); err != nil {
		return fmt.Errorf("writing type of tag %q: %w", e.Name, err)
	}

	if err := e.Mask.writeTo(w); err != nil {
		return fmt.Errorf("writing mask of tag %q: %w", e.Name, err)
	}
	return nil
}

// sortRank maps a tag type to its serialization ordering rank.
// Alternate (0x4000) is locale-adjacent: it sorts immediately after
// true locale tags and before region tags, despite its distinct
// numeric type. Ranks are doubled to leave that gap.
func sortRank(tagType uint16) int {
	if tagType == TagTypeAlternate {
		return 2*int(TagTypeLocale) + 1
	}
	return 2 * int(tagType)
}
