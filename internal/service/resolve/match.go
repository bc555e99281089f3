package resolve

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
	"github.com/sandevgo/reportgen/internal/core"
)

const (
	maxEditDistance = 2
	maxAbbrevLength = 6
)

const quoteChars = "\"'`“”‘’"

// Match applies the name tie-break rules to query:
//
//   - a query contained in two or more names is ambiguous
//   - an exact case-insensitive match wins
//   - a query contained in exactly one name, or containing exactly one name, wins
//   - one name within a small edit distance wins, several are ambiguous
//   - one name the query abbreviates wins, several are ambiguous
func Match(query string, dir core.Directory) (Kind, []core.CompanyRef) {
	q := normalize(query)
	if q == "" {
		return KindNotFound, nil
	}
	entries := dir.Entries()

	var exact, containing, contained []core.CompanyRef
	for _, ref := range entries {
		name := normalize(ref.Name)
		if name == "" {
			continue
		}
		if name == q {
			exact = append(exact, ref)
		}
		if strings.Contains(name, q) {
			containing = append(containing, ref)
		} else if len(name) >= 3 && containsWord(q, name) {
			contained = append(contained, ref)
		}
	}

	if len(containing) >= 2 {
		return KindAmbiguous, containing
	}
	if len(exact) == 1 {
		return KindResolved, exact
	}
	if len(containing) == 1 {
		return KindResolved, containing
	}
	if contained = longestOnly(contained); len(contained) > 0 {
		return decide(contained)
	}

	if close := closeMatches(q, entries); len(close) > 0 {
		return decide(close)
	}
	if abbrev := abbreviations(q, entries); len(abbrev) > 0 {
		return decide(abbrev)
	}
	return KindNotFound, nil
}

func decide(refs []core.CompanyRef) (Kind, []core.CompanyRef) {
	if len(refs) == 1 {
		return KindResolved, refs
	}
	return KindAmbiguous, refs
}

func closeMatches(q string, entries []core.CompanyRef) []core.CompanyRef {
	limit := utf8.RuneCountInString(q)
	var out []core.CompanyRef
	for _, ref := range entries {
		d := levenshtein.ComputeDistance(q, normalize(ref.Name))
		if d <= maxEditDistance && d*2 < limit {
			out = append(out, ref)
		}
	}
	return out
}

func abbreviations(q string, entries []core.CompanyRef) []core.CompanyRef {
	if len(q) < 2 || len(q) > maxAbbrevLength || strings.ContainsRune(q, ' ') {
		return nil
	}

	names := make([]string, len(entries))
	for i, ref := range entries {
		names[i] = normalize(ref.Name)
	}

	var out []core.CompanyRef
	for _, m := range fuzzy.Find(q, names) {
		if len(m.MatchedIndexes) == 0 || m.MatchedIndexes[0] != 0 {
			continue
		}
		if !atWordStarts(m.Str, m.MatchedIndexes) {
			continue
		}
		out = append(out, entries[m.Index])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// atWordStarts requires every matched character after the first to begin a word, so
// "ibm" abbreviates "international business machines" but "ms" does not abbreviate
// "mastercard".
func atWordStarts(s string, idx []int) bool {
	for _, i := range idx[1:] {
		if i == 0 || s[i-1] != ' ' {
			return false
		}
	}
	return true
}

// Mentions returns the directory entries whose names appear verbatim as whole words in
// text. Names found inside a longer mentioned name are dropped. Apostrophes in text are
// kept so a possessive ends the word before it.
func Mentions(text string, dir core.Directory) []core.CompanyRef {
	t := fold(text)
	if t == "" {
		return nil
	}

	var found []core.CompanyRef
	for _, ref := range dir.Entries() {
		name := fold(trimQuotes(ref.Name))
		if name != "" && containsWord(t, name) {
			found = append(found, ref)
		}
	}
	return longestOnly(found)
}

func longestOnly(refs []core.CompanyRef) []core.CompanyRef {
	var out []core.CompanyRef
	for i, ref := range refs {
		name := normalize(ref.Name)
		shadowed := false
		for j, other := range refs {
			if i == j {
				continue
			}
			o := normalize(other.Name)
			if len(o) > len(name) && containsWord(o, name) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, ref)
		}
	}
	return out
}

func containsWord(text, word string) bool {
	re := regexp.MustCompile(`(^|[^\pL\pN])` + regexp.QuoteMeta(word) + `($|[^\pL\pN])`)
	return re.MatchString(text)
}

// normalize strips quote characters, lowercases and collapses whitespace. It is meant
// for names, not free text.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}
		return r
	}, s)
	return fold(s)
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// fold lowercases, unifies apostrophes and collapses whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(apostrophes.Replace(s))), " ")
}

func trimQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), quoteChars))
}
