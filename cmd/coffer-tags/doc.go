// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

// Coffer-tags inspects the tag layer of a Coffer archive manifest.
// With no query flags it prints every tag with its type and the
// number of files carrying it. --file shows the tags carried by one
// file index; --tag shows the files carrying one tag
// (case-insensitive). --json switches any of the three outputs from
// tables to JSON for scripting.
//
// Exit codes:
//
//	0  success
//	1  query matched nothing (file carries no tags, or tag unknown)
//	2  error (unreadable file, malformed manifest, bad arguments)
package main
