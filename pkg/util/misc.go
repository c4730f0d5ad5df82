package util

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/r3labs/diff"
)

// ProtectedChangelog computes a changelog between two values and
// rejects it if anything outside of allowedFields has changed
// NOTE: only the top-level path element is checked
func ProtectedChangelog(allowedFields map[string]bool, before, after interface{}) (diff.Changelog, error) {
	changelog, err := diff.Diff(before, after)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute changelog")
	}

	for _, change := range changelog {
		if len(change.Path) == 0 {
			continue
		}

		if !allowedFields[change.Path[0]] {
			return nil, errors.Errorf("`%s` is protected and cannot be changed", change.Path[0])
		}
	}

	return changelog, nil
}

// ChangedFields returns a sorted set of top-level fields touched by a changelog
func ChangedFields(changelog diff.Changelog) []string {
	seen := make(map[string]bool)
	fields := make([]string, 0)

	for _, change := range changelog {
		if len(change.Path) == 0 || seen[change.Path[0]] {
			continue
		}

		seen[change.Path[0]] = true
		fields = append(fields, change.Path[0])
	}

	sort.Strings(fields)

	return fields
}

// SortedKeys returns sorted keys of a string-indexed map
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
