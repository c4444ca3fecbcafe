package vector

import "strings"

// coreKeywords mark identifier-like attributes. A key containing any of these
// fragments is classified as core.
var coreKeywords = []string{
	"registration",
	"company_number",
	"tax",
	"vat",
	"ein",
	"ssn",
	"dob",
	"date_of_birth",
	"birth",
	"passport",
	"national_id",
	"lei",
	"duns",
	"isin",
	"imo",
	"swift",
	"iban",
}

// shellKeywords mark secondary contact details. Unmatched keys are treated as
// shell as well; the list exists so that a shell keyword wins over an
// accidental core fragment ("registered_address" is an address, not an id).
var shellKeywords = []string{
	"address",
	"phone",
	"email",
	"status",
	"website",
	"fax",
	"contact",
	"url",
}

// NormalizeKey lower-cases an attribute key and joins words with underscores.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '-' || r == '.' || r == '_'
	}), "_")
}

// IsCoreKey reports whether a normalized key holds an identifier.
func IsCoreKey(key string) bool {
	for _, kw := range shellKeywords {
		if strings.Contains(key, kw) {
			return false
		}
	}
	for _, kw := range coreKeywords {
		if kw == "ein" || kw == "lei" || kw == "imo" || kw == "vat" || kw == "ssn" || kw == "dob" {
			// short fragments only count as whole words
			if hasWord(key, kw) {
				return true
			}
			continue
		}
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func hasWord(key, word string) bool {
	for _, part := range strings.Split(key, "_") {
		if part == word {
			return true
		}
	}
	return false
}
