// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest. The manifest uses two digest
// domains: the tag-section fingerprint embedded in the frame, and the
// per-file content fingerprint carried by each FileEntry.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps tag-section digests and file-content digests from
// ever colliding even on identical input bytes. Keys are fixed
// constants — changing one invalidates every digest in that domain —
// and are readable ASCII zero-padded to 32 bytes so they can be
// spotted in hex dumps.
type domainKey [32]byte

var (
	tagSectionDomainKey = domainKey{
		'c', 'o', 'f', 'f', 'e', 'r', '.', 'm', 'a', 'n', 'i', 'f', 'e', 's', 't', '.',
		't', 'a', 'g', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	fileContentDomainKey = domainKey{
		'c', 'o', 'f', 'f', 'e', 'r', '.', 'm', 'a', 'n', 'i', 'f', 'e', 's', 't', '.',
		'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashFileContent computes the file-content-domain digest of data.
// This is the fingerprint a manifest builder records in
// FileEntry.Digest for each archived file.
func HashFileContent(data []byte) Digest {
	hasher := keyedHasher(fileContentDomainKey)
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// FormatDigest returns the hex-encoded form of a digest, the
// canonical representation in logs and CLI output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// newTagSectionHasher returns a hasher for the tag-section domain.
// The encoder streams the serialized section through it to produce
// TagCollection.Checksum.
func newTagSectionHasher() *blake3.Hasher {
	return keyedHasher(tagSectionDomainKey)
}

// keyedHasher creates a BLAKE3 keyed hasher. NewKeyed only fails for
// a wrong key length, which the domainKey type rules out.
func keyedHasher(key domainKey) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("manifest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
