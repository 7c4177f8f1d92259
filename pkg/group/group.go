// Package group partitions flat file lists into merge jobs of a fixed
// size, either by position or by shared filename prefix.
package group

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// separators that end a shared prefix, checked by last occurrence.
const separators = "_- "

// Group is an ordered set of files that form one merge job, plus a
// derived output name (without extension).
type Group struct {
	Files []string
	Name  string
}

// Sequential sorts files by name and chunks them into groups of size n.
// A trailing chunk smaller than n is discarded.
func Sequential(files []string, n int) []Group {
	if n < 1 {
		return nil
	}

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var groups []Group
	for i := 0; i+n <= len(sorted); i += n {
		groups = append(groups, Group{
			Files: sorted[i : i+n],
			Name:  fmt.Sprintf("merged_%d", len(groups)+1),
		})
	}
	return groups
}

// Smart groups files that share a filename prefix. The prefix is
// everything before the last '_', '-' or space in the extension-less
// name; a name with no separator is its own key. Each key's files are
// sorted and chunked into groups of n, remainders discarded. Groups
// come out in lexicographic key order.
func Smart(files []string, n int) []Group {
	if n < 1 {
		return nil
	}

	byKey := make(map[string][]string)
	for _, f := range files {
		byKey[Key(f)] = append(byKey[Key(f)], f)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var groups []Group
	for _, k := range keys {
		members := byKey[k]
		sort.Strings(members)

		for i := 0; i+n <= len(members); i += n {
			name := k + "_merged"
			if i > 0 {
				name = fmt.Sprintf("%s_merged_%d", k, i/n+1)
			}
			groups = append(groups, Group{Files: members[i : i+n], Name: name})
		}
	}
	return groups
}

// Key extracts the grouping key from a file path: the base name with
// its extension stripped, cut at the last separator.
func Key(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	if i := strings.LastIndexAny(name, separators); i > 0 {
		return name[:i]
	}
	return name
}
