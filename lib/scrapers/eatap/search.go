package eatap

import (
	"sort"

	"eatap-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// ProfileMatch is a profile scored against a searched name.
type ProfileMatch struct {
	Profile
	Similarity float64 `json:"similarity"`
}

// FilterProfilesByName returns the profiles whose name is the searched
// name, ignoring case and whitespace shape. More than one result means
// the portal holds distinct records under the same name; callers decide
// what to do with that, this layer never picks one.
func FilterProfilesByName(name string, profiles []Profile) []Profile {
	var matches []Profile
	for _, p := range profiles {
		if textutil.EqualNames(p.Name, name) {
			matches = append(matches, p)
		}
	}
	return matches
}

// RankProfilesByName scores every profile against the searched name and
// returns them best-first. Ties keep document order.
func RankProfilesByName(name string, profiles []Profile) []ProfileMatch {
	needle := textutil.NormalizeName(name)

	matches := make([]ProfileMatch, len(profiles))
	for i, p := range profiles {
		matches[i] = ProfileMatch{
			Profile:    p,
			Similarity: matchr.JaroWinkler(needle, textutil.NormalizeName(p.Name), false),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}
