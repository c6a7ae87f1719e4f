// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"io"
	"iter"
	"sort"
	"strings"
)

// TagCollection maps tag names to entries. Names are unique under
// case-insensitive comparison (the map is keyed by the lowercased
// name; entries keep their original casing). Iteration order during
// mutation is irrelevant — only serialization imposes an order, via
// the deterministic sort in Encode.
//
// TagCollection is not safe for concurrent mutation. Callers needing
// concurrent access must serialize it externally, one writer at a
// time per manifest.
type TagCollection struct {
	entries map[string]*TagEntry // lowercased name → entry

	// Checksum is the tag-section digest recorded by the most recent
	// successful Encode. It is zeroed by every mutation and by Decode,
	// so a non-zero value always fingerprints the collection's current
	// serialized form.
	Checksum Digest
}

// NewTagCollection returns an empty collection.
func NewTagCollection() *TagCollection {
	return &TagCollection{entries: make(map[string]*TagEntry)}
}

// Len returns the number of tags in the collection.
func (c *TagCollection) Len() int {
	return len(c.entries)
}

// Add creates a tag with an all-clear mask sized to fileCount. If a
// tag with the same name (case-insensitive) already exists it is
// replaced entirely, including its mask — Add never errors on
// duplicates.
func (c *TagCollection) Add(name string, tagType uint16, fileCount int) {
	c.AddOrUpdate(&TagEntry{Name: name, Type: tagType, Mask: NewBitmask(fileCount)}, fileCount)
}

// AddOrUpdate stores entry under its name. A name not yet present
// gets a fresh all-clear mask of fileCount bits (whatever mask the
// caller put on entry is discarded). A name already present is
// replaced entirely by entry, mask included: the stored mask is NOT
// merged into the replacement, so callers that want to keep prior
// bits must carry the old mask forward themselves.
func (c *TagCollection) AddOrUpdate(entry *TagEntry, fileCount int) {
	key := strings.ToLower(entry.Name)
	if _, exists := c.entries[key]; !exists {
		entry.Mask = NewBitmask(fileCount)
	}
	c.entries[key] = entry
	c.Checksum = Digest{}
}

// Remove deletes the entry by name. Removing an absent tag is a
// no-op.
func (c *TagCollection) Remove(entry *TagEntry) {
	delete(c.entries, strings.ToLower(entry.Name))
	c.Checksum = Digest{}
}

// TryGet looks up a tag by name, case-insensitively.
func (c *TagCollection) TryGet(name string) (*TagEntry, bool) {
	entry, exists := c.entries[strings.ToLower(name)]
	return entry, exists
}

// ContainsTag reports whether a tag with the given name exists,
// case-insensitively.
func (c *TagCollection) ContainsTag(name string) bool {
	_, exists := c.entries[strings.ToLower(name)]
	return exists
}

// TagsForFile returns a lazy sequence of the names of every tag whose
// mask bit at index is set. A negative index yields an empty sequence
// (the file has not been assigned an index yet). Order follows map
// iteration and is not stable across calls — callers wanting a fixed
// order must sort.
func (c *TagCollection) TagsForFile(index int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if index < 0 {
			return
		}
		for _, entry := range c.entries {
			if entry.Mask.Bit(index) {
				if !yield(entry.Name) {
					return
				}
			}
		}
	}
}

// SetTags applies value to the mask bit at index. With no names it
// applies to every entry — the bulk form used when a newly added file
// starts untagged or when all classifications for a file are cleared
// at once. With names, only the named tags that exist are touched;
// unknown names are silently ignored. A negative index is a no-op.
func (c *TagCollection) SetTags(index int, value bool, names ...string) {
	if index < 0 {
		return
	}
	if len(names) == 0 {
		for _, entry := range c.entries {
			entry.Mask.SetBit(index, value)
		}
		c.Checksum = Digest{}
		return
	}
	for _, name := range names {
		if entry, exists := c.entries[strings.ToLower(name)]; exists {
			entry.Mask.SetBit(index, value)
		}
	}
	c.Checksum = Digest{}
}

// RemoveFileIndex removes the bit at index from every entry's mask,
// shifting subsequent bits down and shrinking each mask by one bit.
// Must be called in lockstep with the owning manifest's file-list
// deletion, never independently — it is what keeps mask length equal
// to the file count. A negative index is a no-op.
func (c *TagCollection) RemoveFileIndex(index int) {
	if index < 0 {
		return
	}
	for _, entry := range c.entries {
		entry.Mask.RemoveBit(index)
	}
	c.Checksum = Digest{}
}

// LoadDefaultTags replaces all entries with the fixed catalog for the
// given build number. Every inserted tag starts with an all-clear
// mask of fileCount bits. See defaultTags for the catalog and its
// build thresholds.
func (c *TagCollection) LoadDefaultTags(build uint32, fileCount int) {
	c.entries = make(map[string]*TagEntry)
	for _, entry := range defaultTags(build, fileCount) {
		c.entries[strings.ToLower(entry.Name)] = entry
	}
	c.Checksum = Digest{}
}

// Decode reads tagCount entries from r, each with a mask of exactly
// fileCount bits, replacing the collection's contents. The counts are
// the caller's framing (the manifest header carries them). On error
// the collection is partially populated and undefined — discard it.
//
// Duplicate names in the stream resolve last-writer-wins, matching
// AddOrUpdate.
func (c *TagCollection) Decode(r io.Reader, tagCount, fileCount int) error {
	c.entries = make(map[string]*TagEntry, tagCount)
	c.Checksum = Digest{}
	for i := 0; i < tagCount; i++ {
		entry, err := readTagEntry(r, fileCount)
		if err != nil {
			return formatErrorf(err, "decoding tag entry %d of %d", i, tagCount)
		}
		c.entries[strings.ToLower(entry.Name)] = entry
	}
	return nil
}

// Encode writes every entry to w in deterministic order and records
// the BLAKE3 digest of the written bytes in Checksum. Two collections
// with identical content produce byte-identical output regardless of
// insertion order — downstream consumers rely on this for checksum
// stability.
func (c *TagCollection) Encode(w io.Writer) error {
	c.Checksum = Digest{}
	hasher := newTagSectionHasher()
	tee := io.MultiWriter(w, hasher)

	for _, entry := range c.sortedEntries() {
		if err := entry.writeTo(tee); err != nil {
			return err
		}
	}

	copy(c.Checksum[:], hasher.Sum(nil))
	return nil
}

// Entries returns the tags in serialization order. The slice is
// freshly allocated, but the entries are the collection's own —
// mutating them mutates the collection.
func (c *TagCollection) Entries() []*TagEntry {
	return c.sortedEntries()
}

// sortedEntries returns the entries in serialization order: primary
// key sortRank (type id, with Alternate slotted just after locales),
// secondary key byte-wise name comparison (ordinal, not
// locale-aware).
func (c *TagCollection) sortedEntries() []*TagEntry {
	sorted := make([]*TagEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		sorted = append(sorted, entry)
	}
	sort.Slice(sorted, func(i, j int) bool {
		rankI, rankJ := sortRank(sorted[i].Type), sortRank(sorted[j].Type)
		if rankI != rankJ {
			return rankI < rankJ
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
