// Package tagging derives hierarchical run tags from dash-separated session names.
//
// Given sessions such as check-python-tests, check-python-format and
// check-javascript-tests, tags like check and check-python let a runner
// select a whole family of sessions at once.
package tagging

import (
	"sort"
	"strings"
)

// Mode selects how prefixes become tags.
type Mode int

const (
	// Off derives no tags.
	Off Mode = iota
	// Siblings tags a prefix that another session shares, and the prefixes
	// branching off a shared one.
	Siblings
	// AllPrefixes tags every proper prefix unconditionally.
	AllPrefixes
	// Depth tags proper prefixes up to a fixed number of words.
	Depth
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Siblings:
		return "siblings"
	case AllPrefixes:
		return "all"
	case Depth:
		return "depth"
	default:
		return "off"
	}
}

// ParseMode maps a configuration name back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return Off, true
	case "siblings", "auto":
		return Siblings, true
	case "all", "all-prefixes":
		return AllPrefixes, true
	case "depth":
		return Depth, true
	}
	return Off, false
}

// Name is one registered session as seen by the deriver.
type Name struct {
	Name   string
	OptOut bool // receives no tags, still counts as a sibling
}

// Deriver computes tags for a set of names.
type Deriver struct {
	Mode      Mode
	Depth     int    // maximum prefix length in words, for Depth mode
	Separator string // defaults to "-"
	Skip      int    // leading words never tagged on their own (the group prefix)
}

// Derive returns the derived tags of every non-opted-out name, each sorted.
// Names without tags are absent from the result.
func (d Deriver) Derive(names []Name) map[string][]string {
	result := make(map[string][]string)
	if d.Mode == Off {
		return result
	}
	sep := d.Separator
	if sep == "" {
		sep = "-"
	}

	split := make([][]string, len(names))
	// sharing counts, for every prefix length, how many names start with it
	sharing := make(map[string]int)
	for i, n := range names {
		words := strings.Split(n.Name, sep)
		split[i] = words
		for k := 0; k <= len(words); k++ {
			sharing[strings.Join(words[:k], sep)]++
		}
	}

	for i, n := range names {
		if n.OptOut {
			continue
		}
		words := split[i]
		var tags []string
		for k := d.Skip + 1; k < len(words); k++ {
			if d.emit(words, k, sep, sharing) {
				tags = append(tags, strings.Join(words[:k], sep))
			}
		}
		if len(tags) > 0 {
			sort.Strings(tags)
			result[n.Name] = tags
		}
	}
	return result
}

func (d Deriver) emit(words []string, k int, sep string, sharing map[string]int) bool {
	switch d.Mode {
	case AllPrefixes:
		return true
	case Depth:
		return k-d.Skip <= d.Depth
	case Siblings:
		if sharing[strings.Join(words[:k], sep)] >= 2 {
			return true
		}
		// the root and the group prefix are not branches
		return k-1 > d.Skip && sharing[strings.Join(words[:k-1], sep)] >= 2
	}
	return false
}

// All returns the sorted set of every tag in derived.
func All(derived map[string][]string) []string {
	seen := make(map[string]bool)
	var all []string
	for _, tags := range derived {
		for _, t := range tags {
			if !seen[t] {
				seen[t] = true
				all = append(all, t)
			}
		}
	}
	sort.Strings(all)
	return all
}
