// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest implements the Coffer archive manifest: the
// authoritative file list of an archive together with the tag layer
// that classifies those files by platform, architecture, locale,
// region, and feature.
//
// The package has two levels:
//
//   - Tag layer: TagCollection maps case-insensitive tag names to
//     TagEntry values. Each entry carries a Bitmask with one bit per
//     file in the owning archive, ordinally indexed — bit set means
//     the file carries that tag. The collection encodes to a
//     deterministic binary form: entries are sorted by a composite
//     (type rank, name) key before writing, so two collections with
//     identical content always produce byte-identical output. The
//     BLAKE3 digest of the encoded section is recorded on the
//     collection and embedded in the manifest frame.
//
//   - Manifest frame: a fixed 8-byte magic, a CBOR-encoded BuildInfo
//     blob (Core Deterministic Encoding), the counted file table, the
//     embedded tag section, and the trailing tag-section digest. All
//     integers are big-endian; strings are length-prefixed (u16
//     length + UTF-8 bytes).
//
// Mask length is an invariant: every entry's Bitmask has exactly one
// bit per manifest file at all times. Manifest.AddFile and
// Manifest.RemoveFile mutate the file table and every mask in
// lockstep; callers holding a bare TagCollection must do the same via
// SetTags and RemoveFileIndex.
//
// Decoding is strict: truncated streams, oversized declared lengths,
// and digest mismatches surface as *FormatError. A collection that
// failed mid-decode is in an undefined partial state and must be
// discarded. Queries never error — absence is a boolean result — and
// mutations silently no-op on unknown names or negative indices,
// favoring idempotent bulk operations over strict validation.
package manifest
