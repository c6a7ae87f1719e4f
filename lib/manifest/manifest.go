// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Frame format constants.
const (
	// manifestVersion is the frame version byte inside the magic.
	// Version 1 is the initial format.
	manifestVersion = 1

	// maxBuildInfoLength caps the CBOR BuildInfo blob. Real blobs are
	// a few dozen bytes; the cap keeps a corrupt length field from
	// forcing a huge allocation.
	maxBuildInfoLength = 1 << 20
)

// manifestMagic is the 8-byte frame signature: "COFFER" + version
// byte + reserved byte.
var manifestMagic = [8]byte{'C', 'O', 'F', 'F', 'E', 'R', manifestVersion, 0}

// buildInfoEncMode encodes BuildInfo with CBOR Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding. Same logical info always produces identical frame bytes.
var buildInfoEncMode cbor.EncMode

func init() {
	var err error
	buildInfoEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("manifest: CBOR encoder initialization failed: " + err.Error())
	}
}

// BuildInfo identifies the archive build a manifest belongs to. The
// build number drives the default-tag catalog thresholds.
type BuildInfo struct {
	Product string `cbor:"product"`
	Build   uint32 `cbor:"build"`
}

// FileEntry is one file in the archive's authoritative file list.
// File indices are ordinal positions in Manifest.Files; every tag
// mask bit i refers to Files[i].
type FileEntry struct {
	Name   string
	Size   uint64
	Digest Digest
}

// Manifest owns the authoritative file list and the tag layer that
// classifies it. All file-list mutation goes through AddFile and
// RemoveFile so that every tag mask keeps exactly one bit per file.
type Manifest struct {
	Info  BuildInfo
	Files []FileEntry
	Tags  *TagCollection
}

// New returns an empty manifest for the given build.
func New(info BuildInfo) *Manifest {
	return &Manifest{Info: info, Tags: NewTagCollection()}
}

// FileCount returns the number of files in the manifest.
func (m *Manifest) FileCount() int {
	return len(m.Files)
}

// AddFile appends entry to the file list, grows every tag mask by one
// cleared bit (a new file starts untagged), then sets the named tags
// for the new index. Unknown tag names are silently ignored, matching
// SetTags. Returns the new file's index.
func (m *Manifest) AddFile(entry FileEntry, tagNames ...string) int {
	m.Files = append(m.Files, entry)
	index := len(m.Files) - 1

	for _, tag := range m.Tags.entries {
		tag.Mask.AppendBit(false)
	}
	m.Tags.Checksum = Digest{}

	if len(tagNames) > 0 {
		m.Tags.SetTags(index, true, tagNames...)
	}
	return index
}

// RemoveFile deletes the file at index from the file list and removes
// its bit from every tag mask in lockstep. Out-of-range indices are a
// no-op.
func (m *Manifest) RemoveFile(index int) {
	if index < 0 || index >= len(m.Files) {
		return
	}
	m.Files = append(m.Files[:index], m.Files[index+1:]...)
	m.Tags.RemoveFileIndex(index)
}

// Encode writes the complete manifest frame to w: magic, CBOR
// BuildInfo, file table, tag section, trailing tag-section digest.
// A successful encode leaves Tags.Checksum set to the digest that was
// written.
func (m *Manifest) Encode(w io.Writer) error {
	if _, err := w.Write(manifestMagic[:]); err != nil {
		return fmt.Errorf("writing manifest magic: %w", err)
	}

	info, err := buildInfoEncMode.Marshal(m.Info)
	if err != nil {
		return fmt.Errorf("encoding build info: %w", err)
	}
	if err := writeUint32(w, uint32(len(info)), "build info length"); err != nil {
		return err
	}
	if _, err := w.Write(info); err != nil {
		return fmt.Errorf("writing build info: %w", err)
	}

	if err := writeUint32(w, uint32(len(m.Files)), "file count"); err != nil {
		return err
	}
	for i, file := range m.Files {
		if err := writeString(w, file.Name, "file name"); err != nil {
			return fmt.Errorf("file %d: %w", i, err)
		}
		if err := writeUint64(w, file.Size, "file size"); err != nil {
			return fmt.Errorf("file %d: %w", i, err)
		}
		if _, err := w.Write(file.Digest[:]); err != nil {
			return fmt.Errorf("writing file %d digest: %w", i, err)
		}
	}

	// Tag-section header: tag count, then the file count again. The
	// repeated count makes the section self-describing for consumers
	// that read it without the surrounding frame.
	if err := writeUint32(w, uint32(m.Tags.Len()), "tag count"); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(m.Files)), "tag section file count"); err != nil {
		return err
	}
	if err := m.Tags.Encode(w); err != nil {
		return err
	}

	if _, err := w.Write(m.Tags.Checksum[:]); err != nil {
		return fmt.Errorf("writing tag section digest: %w", err)
	}
	return nil
}

// Read decodes a manifest frame from r, verifying the magic, the
// version, the repeated file count, and the trailing tag-section
// digest against the bytes actually read. Any structural problem is a
// *FormatError; the partially built manifest must be discarded.
func Read(r io.Reader) (*Manifest, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, formatErrorf(err, "reading manifest magic")
	}
	if magic != manifestMagic {
		if bytes.Equal(magic[:6], manifestMagic[:6]) {
			return nil, formatErrorf(nil, "manifest version %d is not supported (this code supports version %d)",
				magic[6], manifestVersion)
		}
		return nil, formatErrorf(nil, "not a Coffer manifest (invalid magic bytes)")
	}

	infoLength, err := readUint32(r, "build info length")
	if err != nil {
		return nil, err
	}
	if infoLength > maxBuildInfoLength {
		return nil, formatErrorf(nil, "build info is %d bytes, maximum is %d", infoLength, maxBuildInfoLength)
	}
	infoBytes := make([]byte, infoLength)
	if _, err := io.ReadFull(r, infoBytes); err != nil {
		return nil, formatErrorf(err, "reading build info (%d bytes)", infoLength)
	}

	manifest := &Manifest{Tags: NewTagCollection()}
	if err := cbor.Unmarshal(infoBytes, &manifest.Info); err != nil {
		return nil, formatErrorf(err, "decoding build info")
	}

	fileCount, err := readUint32(r, "file count")
	if err != nil {
		return nil, err
	}
	manifest.Files = make([]FileEntry, fileCount)
	for i := range manifest.Files {
		name, err := readString(r, "file name")
		if err != nil {
			return nil, formatErrorf(err, "decoding file %d of %d", i, fileCount)
		}
		size, err := readUint64(r, "file size")
		if err != nil {
			return nil, formatErrorf(err, "decoding file %q", name)
		}
		var digest Digest
		if _, err := io.ReadFull(r, digest[:]); err != nil {
			return nil, formatErrorf(err, "reading digest of file %q", name)
		}
		manifest.Files[i] = FileEntry{Name: name, Size: size, Digest: digest}
	}

	tagCount, err := readUint32(r, "tag count")
	if err != nil {
		return nil, err
	}
	sectionFileCount, err := readUint32(r, "tag section file count")
	if err != nil {
		return nil, err
	}
	if sectionFileCount != fileCount {
		return nil, formatErrorf(nil, "tag section declares %d files, file table has %d",
			sectionFileCount, fileCount)
	}

	// Stream the tag section through the digest hasher as it is
	// decoded, then check the trailing digest against what was read.
	hasher := newTagSectionHasher()
	tee := io.TeeReader(r, hasher)
	if err := manifest.Tags.Decode(tee, int(tagCount), int(fileCount)); err != nil {
		return nil, err
	}

	var declared Digest
	if _, err := io.ReadFull(r, declared[:]); err != nil {
		return nil, formatErrorf(err, "reading tag section digest")
	}
	var actual Digest
	copy(actual[:], hasher.Sum(nil))
	if declared != actual {
		return nil, formatErrorf(nil, "tag section digest mismatch: declared %s, computed %s",
			FormatDigest(declared), FormatDigest(actual))
	}

	return manifest, nil
}
