// Package relation classifies dependency and semantic relation labels.
//
// Every predicate expects a normalized label (see Normalize). Unknown labels
// are never an error: they simply fall outside every category.
package relation

import "strings"

// Dependency-side labels.
const (
	Root      = "root"
	Punct     = "punct"
	Flat      = "flat"
	Parataxis = "parataxis"
	CC        = "cc"
	Conj      = "conj"
	Aux       = "aux"
	Mark      = "mark"
	Advcl     = "advcl"
	Xcomp     = "xcomp"
	Appos     = "appos"
)

// Semantic-side labels.
const (
	Punctuation   = "U"
	Terminal      = "Terminal"
	ParallelScene = "H"
	Connector     = "N"
)

// PunctTag is the part-of-speech tag of punctuation tokens.
const PunctTag = "PUNCT"

// Pair names the same concept in the dependency and the semantic format.
type Pair struct {
	Dependency string
	Semantic   string
}

var (
	punctuation = Pair{Dependency: Punct, Semantic: Punctuation}
	flat        = Pair{Dependency: Flat, Semantic: Terminal}

	// Replacements lists the label pairs swapped between the two formats.
	Replacements = []Pair{flat, punctuation}

	topLevel = []string{ParallelScene, Parataxis}

	highAttach = map[string][]string{
		Connector: {Conj},
		CC:        {Conj},
		Mark:      {Advcl, Xcomp},
	}

	priority = []string{Root, Parataxis, Conj, Advcl, Xcomp}
)

// Normalize strips a ":subtype" suffix, so "nsubj:pass" becomes "nsubj".
func Normalize(rel string) string {
	base, _, _ := strings.Cut(rel, ":")
	return base
}

// IsPunctuation reports whether rel marks punctuation in either format.
func IsPunctuation(rel string) bool {
	return rel == punctuation.Dependency || rel == punctuation.Semantic
}

// IsFlat reports whether rel marks a flat (multi-token, headless) unit.
func IsFlat(rel string) bool {
	return rel == flat.Dependency || rel == flat.Semantic
}

// IsTopLevel reports whether rel denotes an independent clause or
// parenthetical that stays attached to the structural root.
func IsTopLevel(rel string) bool {
	for _, r := range topLevel {
		if r == rel {
			return true
		}
	}
	return false
}

// HighAttachTargets returns the relations among which the head of an edge
// labelled rel should be searched for. It returns nil when rel does not
// attach high.
func HighAttachTargets(rel string) []string {
	return highAttach[rel]
}

// Priority ranks rel when choosing the primary head among several incoming
// edges. Lower is preferred; unlisted relations share the lowest rank.
func Priority(rel string) int {
	for i, r := range priority {
		if r == rel {
			return i
		}
	}
	return len(priority)
}

// Swap converts rel between the formats when it belongs to a replacement
// pair. toSemantic selects the direction.
func Swap(rel string, toSemantic bool) string {
	for _, p := range Replacements {
		if toSemantic && rel == p.Dependency {
			return p.Semantic
		}
		if !toSemantic && rel == p.Semantic {
			return p.Dependency
		}
	}
	return rel
}

// In reports whether rel is one of rels.
func In(rel string, rels ...string) bool {
	for _, r := range rels {
		if r == rel {
			return true
		}
	}
	return false
}
