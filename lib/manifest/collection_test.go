// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"errors"
	"sort"
	"testing"
)

func TestTryGetCaseInsensitive(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("enUS", TagTypeLocale, 5)

	entry, exists := collection.TryGet("ENus")
	if !exists {
		t.Fatal("TryGet missed a name differing only in case")
	}
	if entry.Name != "enUS" {
		t.Errorf("stored name = %q, want original casing %q", entry.Name, "enUS")
	}
	if !collection.ContainsTag("enus") {
		t.Error("ContainsTag missed a lowercased name")
	}
	if collection.ContainsTag("frFR") {
		t.Error("ContainsTag reported an absent name")
	}
}

func TestAddDuplicateReplaces(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("speech", TagTypeFeature, 4)
	collection.SetTags(2, true, "speech")

	// Adding the same name again replaces the entry wholesale — the
	// previously set bit is gone and the type is the new one.
	collection.Add("Speech", TagTypeAlternate, 4)

	if collection.Len() != 1 {
		t.Fatalf("Len = %d, want 1", collection.Len())
	}
	entry, _ := collection.TryGet("speech")
	if entry.Type != TagTypeAlternate {
		t.Errorf("type = %d, want replacement type %d", entry.Type, TagTypeAlternate)
	}
	if entry.Mask.Bit(2) {
		t.Error("replacement entry kept the old mask bit")
	}
	if entry.Mask.Len() != 4 {
		t.Errorf("mask length = %d, want 4", entry.Mask.Len())
	}
}

func TestAddOrUpdateReplacesMask(t *testing.T) {
	// AddOrUpdate is replace-not-merge: updating an existing tag with
	// an entry built from scratch silently discards the prior mask
	// bits. This is preserved behavior — suspicious for callers that
	// expect additive updates, so it is pinned here rather than
	// "fixed".
	collection := NewTagCollection()
	collection.Add("text", TagTypeFeature, 6)
	collection.SetTags(1, true, "text")
	collection.SetTags(4, true, "text")

	collection.AddOrUpdate(&TagEntry{Name: "text", Type: TagTypeFeature, Mask: NewBitmask(6)}, 6)

	entry, _ := collection.TryGet("text")
	if entry.Mask.CountSet() != 0 {
		t.Errorf("replacement kept %d prior mask bits, replace semantics expect 0", entry.Mask.CountSet())
	}
}

func TestAddOrUpdateNewEntryGetsFreshMask(t *testing.T) {
	// A NEW entry's caller-built mask is discarded in favor of an
	// all-clear mask sized to the file count. Part of the same
	// replace-policy edge as TestAddOrUpdateReplacesMask.
	prebuilt := NewBitmask(8)
	prebuilt.SetBit(3, true)

	collection := NewTagCollection()
	collection.AddOrUpdate(&TagEntry{Name: "CN", Type: TagTypeRegion, Mask: prebuilt}, 8)

	entry, _ := collection.TryGet("CN")
	if entry.Mask.CountSet() != 0 {
		t.Error("new entry kept its caller-built mask bits")
	}
	if entry.Mask.Len() != 8 {
		t.Errorf("mask length = %d, want 8", entry.Mask.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("EU", TagTypeRegion, 3)

	entry, _ := collection.TryGet("EU")
	collection.Remove(entry)
	if collection.Len() != 0 {
		t.Fatalf("Len = %d after Remove, want 0", collection.Len())
	}

	// Removing again is a no-op, not an error.
	collection.Remove(entry)
	collection.Remove(&TagEntry{Name: "never-existed"})
}

func TestSetTagsBulkAndNamed(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("Windows", TagTypePlatform, 5)
	collection.Add("enUS", TagTypeLocale, 5)
	collection.Add("x86_64", TagTypeArchitecture, 5)

	// Empty name list: every entry's bit at the index.
	collection.SetTags(2, true)
	names := collectTags(collection, 2)
	if len(names) != 3 {
		t.Fatalf("TagsForFile(2) yielded %d names after bulk set, want 3", len(names))
	}

	// Bulk clear empties the file's tag set.
	collection.SetTags(2, false)
	if names := collectTags(collection, 2); len(names) != 0 {
		t.Fatalf("TagsForFile(2) yielded %v after bulk clear, want none", names)
	}

	// Named set touches only the named tags; unknown names are
	// silently ignored.
	collection.SetTags(1, true, "ENUS", "no-such-tag")
	names = collectTags(collection, 1)
	if len(names) != 1 || names[0] != "enUS" {
		t.Errorf("TagsForFile(1) = %v, want [enUS]", names)
	}

	// Negative index is a no-op.
	collection.SetTags(-1, true)
	for index := 0; index < 5; index++ {
		if index == 1 {
			continue
		}
		if len(collectTags(collection, index)) != 0 {
			t.Errorf("negative-index SetTags leaked into index %d", index)
		}
	}
}

func TestTagsForFileNegativeIndex(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("Windows", TagTypePlatform, 2)
	collection.SetTags(0, true)

	if names := collectTags(collection, -1); len(names) != 0 {
		t.Errorf("TagsForFile(-1) yielded %v, want empty sequence", names)
	}
}

func TestTagsForFileEarlyBreak(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("Windows", TagTypePlatform, 1)
	collection.Add("OSX", TagTypePlatform, 1)
	collection.SetTags(0, true)

	var seen int
	for range collection.TagsForFile(0) {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("saw %d names after break, want 1", seen)
	}
}

func TestRemoveFileIndexShiftsMembership(t *testing.T) {
	// Four files; file membership before removal:
	//   Windows: {0, 2}, enUS: {1, 3}
	collection := NewTagCollection()
	collection.Add("Windows", TagTypePlatform, 4)
	collection.Add("enUS", TagTypeLocale, 4)
	collection.SetTags(0, true, "Windows")
	collection.SetTags(2, true, "Windows")
	collection.SetTags(1, true, "enUS")
	collection.SetTags(3, true, "enUS")

	collection.RemoveFileIndex(1)

	// Every mask shrinks to 3 bits; membership below the removed
	// index is unchanged, membership above shifts down by one:
	//   Windows: {0, 1}, enUS: {2}
	windows, _ := collection.TryGet("Windows")
	enUS, _ := collection.TryGet("enUS")
	if windows.Mask.Len() != 3 || enUS.Mask.Len() != 3 {
		t.Fatalf("mask lengths = %d, %d after removal, want 3, 3", windows.Mask.Len(), enUS.Mask.Len())
	}
	for i, want := range []bool{true, true, false} {
		if windows.Mask.Bit(i) != want {
			t.Errorf("Windows bit %d = %v, want %v", i, windows.Mask.Bit(i), want)
		}
	}
	for i, want := range []bool{false, false, true} {
		if enUS.Mask.Bit(i) != want {
			t.Errorf("enUS bit %d = %v, want %v", i, enUS.Mask.Bit(i), want)
		}
	}

	// Negative index is a no-op.
	collection.RemoveFileIndex(-1)
	if windows.Mask.Len() != 3 {
		t.Error("negative-index RemoveFileIndex shrank the masks")
	}
}

func TestEncodeIsOrderIndependent(t *testing.T) {
	// Two collections with identical content built in different
	// insertion orders must serialize byte-identically.
	first := NewTagCollection()
	first.Add("Windows", TagTypePlatform, 9)
	first.Add("enUS", TagTypeLocale, 9)
	first.Add("US", TagTypeRegion, 9)
	first.Add("Alternate", TagTypeAlternate, 9)
	first.SetTags(4, true, "enUS", "US")

	second := NewTagCollection()
	second.Add("Alternate", TagTypeAlternate, 9)
	second.Add("US", TagTypeRegion, 9)
	second.Add("Windows", TagTypePlatform, 9)
	second.Add("enUS", TagTypeLocale, 9)
	second.SetTags(4, true, "US", "enUS")

	var firstBytes, secondBytes bytes.Buffer
	if err := first.Encode(&firstBytes); err != nil {
		t.Fatalf("first Encode failed: %v", err)
	}
	if err := second.Encode(&secondBytes); err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}

	if !bytes.Equal(firstBytes.Bytes(), secondBytes.Bytes()) {
		t.Error("identical content serialized to different bytes")
	}
	if first.Checksum != second.Checksum {
		t.Error("identical content produced different checksums")
	}
	if first.Checksum == (Digest{}) {
		t.Error("Encode left the checksum zero")
	}
}

func TestSerializationOrder(t *testing.T) {
	// Alternate (0x4000) sorts locale-adjacent: after true locale
	// tags and before region tags. Within a type, byte-wise name
	// order.
	collection := NewTagCollection()
	for _, tag := range []struct {
		name    string
		tagType uint16
	}{
		{"US", TagTypeRegion},
		{"Alternate", TagTypeAlternate},
		{"enUS", TagTypeLocale},
		{"deDE", TagTypeLocale},
		{"speech", TagTypeFeature},
		{"Windows", TagTypePlatform},
		{"x86_64", TagTypeArchitecture},
	} {
		collection.Add(tag.name, tag.tagType, 3)
	}

	var got []string
	for _, entry := range collection.Entries() {
		got = append(got, entry.Name)
	}
	want := []string{"Windows", "x86_64", "deDE", "enUS", "Alternate", "US", "speech"}
	if len(got) != len(want) {
		t.Fatalf("Entries returned %d tags, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("serialization order = %v, want %v", got, want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := NewTagCollection()
	original.Add("Windows", TagTypePlatform, 12)
	original.Add("OSX", TagTypePlatform, 12)
	original.Add("enUS", TagTypeLocale, 12)
	original.SetTags(0, true, "Windows", "enUS")
	original.SetTags(11, true, "OSX")

	var buffer bytes.Buffer
	if err := original.Encode(&buffer); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded := NewTagCollection()
	if err := decoded.Decode(&buffer, original.Len(), 12); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Len() != original.Len() {
		t.Fatalf("decoded %d tags, want %d", decoded.Len(), original.Len())
	}
	for _, want := range original.Entries() {
		got, exists := decoded.TryGet(want.Name)
		if !exists {
			t.Fatalf("tag %q missing after round trip", want.Name)
		}
		if got.Type != want.Type {
			t.Errorf("tag %q type = %d, want %d", want.Name, got.Type, want.Type)
		}
		for i := 0; i < 12; i++ {
			if got.Mask.Bit(i) != want.Mask.Bit(i) {
				t.Errorf("tag %q bit %d = %v, want %v", want.Name, i, got.Mask.Bit(i), want.Mask.Bit(i))
			}
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	original := NewTagCollection()
	original.Add("Windows", TagTypePlatform, 8)
	original.Add("enUS", TagTypeLocale, 8)

	var buffer bytes.Buffer
	if err := original.Encode(&buffer); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	truncated := buffer.Bytes()[:buffer.Len()-3]

	decoded := NewTagCollection()
	err := decoded.Decode(bytes.NewReader(truncated), 2, 8)
	if err == nil {
		t.Fatal("Decode succeeded on a truncated stream")
	}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("error is %T, want *FormatError", err)
	}
}

func TestChecksumLifecycle(t *testing.T) {
	collection := NewTagCollection()
	collection.Add("Windows", TagTypePlatform, 4)

	var buffer bytes.Buffer
	if err := collection.Encode(&buffer); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if collection.Checksum == (Digest{}) {
		t.Fatal("Encode did not set the checksum")
	}

	// Every mutation marks the checksum stale.
	checkCleared := func(name string, mutate func()) {
		t.Helper()
		if err := collection.Encode(&bytes.Buffer{}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		mutate()
		if collection.Checksum != (Digest{}) {
			t.Errorf("%s did not clear the checksum", name)
		}
	}

	checkCleared("SetTags", func() { collection.SetTags(0, true) })
	checkCleared("Add", func() { collection.Add("OSX", TagTypePlatform, 4) })
	checkCleared("Remove", func() { collection.Remove(&TagEntry{Name: "OSX"}) })
	checkCleared("RemoveFileIndex", func() { collection.RemoveFileIndex(0) })
	checkCleared("LoadDefaultTags", func() { collection.LoadDefaultTags(19000, 3) })
}

// collectTags drains TagsForFile into a sorted slice for assertions.
func collectTags(collection *TagCollection, index int) []string {
	var names []string
	for name := range collection.TagsForFile(index) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
