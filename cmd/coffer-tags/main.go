// Copyright 2026 The Coffer Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/coffer-archive/coffer/lib/manifest"
	"github.com/coffer-archive/coffer/lib/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("coffer-tags", pflag.ContinueOnError)
	fileIndex := flags.Int("file", -1, "show tags carried by the file at this index")
	tagName := flags.String("tag", "", "show files carrying this tag (case-insensitive)")
	outputJSON := flags.Bool("json", false, "output as JSON")
	showVersion := flags.Bool("version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: coffer-tags [flags] <manifest>\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	if *showVersion {
		fmt.Printf("coffer-tags %s\n", version.Info())
		return 0
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	file, err := os.Open(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer file.Close()

	archive, err := manifest.Read(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", flags.Arg(0), err)
		return 2
	}

	switch {
	case flags.Changed("file"):
		return printTagsForFile(archive, *fileIndex, *outputJSON)
	case *tagName != "":
		return printFilesForTag(archive, *tagName, *outputJSON)
	default:
		return printAllTags(archive, *outputJSON)
	}
}

// tagSummary is the JSON shape for the default listing.
type tagSummary struct {
	Name  string `json:"name"`
	Type  uint16 `json:"type"`
	Files int    `json:"files"`
}

func printAllTags(archive *manifest.Manifest, asJSON bool) int {
	entries := archive.Tags.Entries()

	if asJSON {
		summaries := make([]tagSummary, len(entries))
		for i, entry := range entries {
			summaries[i] = tagSummary{Name: entry.Name, Type: entry.Type, Files: entry.Mask.CountSet()}
		}
		return writeJSON(summaries)
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "NAME\tTYPE\tFILES\n")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t0x%04x\t%d\n", entry.Name, entry.Type, entry.Mask.CountSet())
	}
	tw.Flush()
	return 0
}

func printTagsForFile(archive *manifest.Manifest, index int, asJSON bool) int {
	if index < 0 || index >= archive.FileCount() {
		fmt.Fprintf(os.Stderr, "error: file index %d out of range [0, %d)\n", index, archive.FileCount())
		return 2
	}

	var names []string
	for name := range archive.Tags.TagsForFile(index) {
		names = append(names, name)
	}
	sort.Strings(names)

	if asJSON {
		if names == nil {
			names = []string{}
		}
		if code := writeJSON(names); code != 0 {
			return code
		}
		if len(names) == 0 {
			return 1
		}
		return 0
	}

	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "file %d (%s) carries no tags\n", index, archive.Files[index].Name)
		return 1
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}

// fileSummary is the JSON shape for --tag output.
type fileSummary struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Size   uint64 `json:"size"`
	Digest string `json:"digest"`
}

func printFilesForTag(archive *manifest.Manifest, tagName string, asJSON bool) int {
	entry, exists := archive.Tags.TryGet(tagName)
	if !exists {
		fmt.Fprintf(os.Stderr, "tag %q not found\n", tagName)
		return 1
	}

	var matches []fileSummary
	for i, file := range archive.Files {
		if entry.Mask.Bit(i) {
			matches = append(matches, fileSummary{
				Index:  i,
				Name:   file.Name,
				Size:   file.Size,
				Digest: manifest.FormatDigest(file.Digest),
			})
		}
	}

	if asJSON {
		if matches == nil {
			matches = []fileSummary{}
		}
		if code := writeJSON(matches); code != 0 {
			return code
		}
		if len(matches) == 0 {
			return 1
		}
		return 0
	}

	if len(matches) == 0 {
		fmt.Fprintf(os.Stderr, "no files carry tag %q\n", entry.Name)
		return 1
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "INDEX\tNAME\tSIZE\n")
	for _, match := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", match.Index, match.Name, match.Size)
	}
	tw.Flush()
	return 0
}

func writeJSON(value any) int {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		fmt.Fprintf(os.Stderr, "error: encoding JSON: %v\n", err)
		return 2
	}
	return 0
}
