// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

// Build numbers at which the archive format gained new tag groups.
// These are fixed historical cutoffs: newer builds carry strictly
// more tag categories, and the exact values must never change or
// existing archives stop matching their default catalogs.
const (
	// regionTagsMinBuild is the last build WITHOUT region-code tags.
	// Builds strictly greater carry the type-4 region group.
	regionTagsMinBuild = 18761

	// featureTagsMinBuild is the last build WITHOUT the speech/text
	// feature group and the Alternate tag. Builds strictly greater
	// carry both.
	featureTagsMinBuild = 20426
)

// Fixed default catalog. Each row is (name, type); the list is grouped
// by category for readability — serialization order is imposed later
// by the collection's deterministic sort, not by this table.
var (
	defaultPlatformTags = []string{"Windows", "OSX"}

	defaultArchitectureTags = []string{"x86_32", "x86_64"}

	defaultLocaleTags = []string{
		"deDE", "enGB", "enUS", "esES", "esMX", "frFR", "itIT",
		"koKR", "ptBR", "ptPT", "ruRU", "zhCN", "zhTW",
	}

	defaultRegionTags = []string{"CN", "EU", "KR", "TW", "US"}

	defaultFeatureTags = []string{"speech", "text"}
)

// defaultTags returns the fixed tag catalog for a build number. Every
// entry carries an all-clear mask of fileCount bits. The function is
// pure: same inputs, same catalog, no shared state.
func defaultTags(build uint32, fileCount int) []*TagEntry {
	var entries []*TagEntry

	appendGroup := func(names []string, tagType uint16) {
		for _, name := range names {
			entries = append(entries, &TagEntry{
				Name: name,
				Type: tagType,
				Mask: NewBitmask(fileCount),
			})
		}
	}

	appendGroup(defaultPlatformTags, TagTypePlatform)
	appendGroup(defaultArchitectureTags, TagTypeArchitecture)
	appendGroup(defaultLocaleTags, TagTypeLocale)

	if build > regionTagsMinBuild {
		appendGroup(defaultRegionTags, TagTypeRegion)
	}
	if build > featureTagsMinBuild {
		appendGroup(defaultFeatureTags, TagTypeFeature)
		appendGroup([]string{"Alternate"}, TagTypeAlternate)
	}

	return entries
}
