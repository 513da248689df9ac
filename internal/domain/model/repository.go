package model

import (
	"fmt"
	"sort"
	"strings"
)

// RepositoryList is the normalized set of repository identifiers for a run.
type RepositoryList struct {
	// Names holds unique identifiers sorted case-insensitively.
	Names []string
	// Duplicates counts entries dropped because a case-insensitive match
	// appeared earlier in the raw list.
	Duplicates int
}

// NormalizeRepositories parses a comma-separated list of repository identifiers.
// Whitespace around each entry is ignored and empty segments are dropped.
// Duplicates are matched case-insensitively; the first occurrence keeps its case.
// Returns an error wrapping ErrConfiguration and ErrNoRepositories when nothing remains.
func NormalizeRepositories(raw string) (RepositoryList, error) {
	seen := make(map[string]struct{})
	var list RepositoryList

	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			list.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		list.Names = append(list.Names, name)
	}

	if len(list.Names) == 0 {
		return RepositoryList{}, fmt.Errorf("%w: %w", ErrConfiguration, ErrNoRepositories)
	}

	sort.SliceStable(list.Names, func(i, j int) bool {
		return RepositoryLess(list.Names[i], list.Names[j])
	})

	return list, nil
}

// RepositoryLess orders repository identifiers case-insensitively, falling
// back to byte order so the ordering is total.
func RepositoryLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
