package similarity

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are dropped from the end of a normalized name.
var legalSuffixes = map[string]bool{
	"ltd": true, "limited": true, "llc": true, "inc": true, "incorporated": true,
	"corp": true, "corporation": true, "co": true, "company": true,
	"gmbh": true, "ag": true, "sa": true, "sarl": true, "srl": true,
	"bv": true, "nv": true, "plc": true, "ab": true, "oy": true, "as": true,
	"spa": true, "pty": true, "llp": true, "lp": true, "kft": true, "ou": true, "sro": true,
}

// NormalizeName folds case, strips diacritics and punctuation (hyphens are
// kept) and removes trailing legal-form tokens.
func NormalizeName(name string) string {
	// Casers and transform chains carry state, so they are built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	folded := cases.Fold().String(stripped)

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '-':
			return r
		case r == '.' || r == '\'' || r == '’':
			return -1
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		}
		return r
	}, folded)

	tokens := strings.Fields(cleaned)
	for len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// NameSimilarity prefers embedding cosine when both sides carry a
// compatible embedding and falls back to the fuzzy ratio of the normalized
// names.
func NameSimilarity(nameA, nameB string, embA, embB []float32) float64 {
	if len(embA) > 0 && len(embA) == len(embB) {
		if cos, ok := Cosine(embA, embB); ok {
			return clamp01(cos)
		}
	}
	if strings.TrimSpace(nameA) == "" || strings.TrimSpace(nameB) == "" {
		return 0
	}
	na, nb := NormalizeName(nameA), NormalizeName(nameB)
	if na == "" && nb == "" {
		// Names made only of punctuation: compare them raw.
		if strings.EqualFold(strings.TrimSpace(nameA), strings.TrimSpace(nameB)) {
			return 1
		}
		return 0
	}
	return FuzzyRatio(na, nb)
}

// FuzzyRatio returns 1 - indel/(len(a)+len(b)), where indel counts the
// insertions and deletions needed to turn a into b. Identical strings
// score 1, strings with no common characters 0.
func FuzzyRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	lcs := lcsLength(ra, rb)
	indel := total - 2*lcs
	return 1 - float64(indel)/float64(total)
}

// lcsLength computes the longest common subsequence with two rows.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		curr[0] = 0
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Cosine returns the cosine similarity of two equal-length vectors. ok is
// false when either vector has zero magnitude.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
