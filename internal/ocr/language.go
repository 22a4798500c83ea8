package ocr

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultLanguage is used when a LanguageSet is empty.
const DefaultLanguage = "eng"

// Languages maps display names to Tesseract codes.
var Languages = map[string]string{
	"English": "eng",
	"Hindi":   "hin",
	"Spanish": "spa",
	"French":  "fra",
	"German":  "deu",
}

// LanguageNames returns the display names in Languages, sorted.
func LanguageNames() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LanguageSet is an ordered list of Tesseract language codes.
// Duplicates are allowed; the engine tolerates them.
type LanguageSet []string

var codePattern = regexp.MustCompile(`^[a-z]{3}(_[a-z]+)?$`)

// ParseLanguages builds a LanguageSet from display names ("English") or raw
// codes ("eng", "chi_sim"). Matching of display names is case-insensitive.
// Empty entries are skipped.
func ParseLanguages(items ...string) (LanguageSet, error) {
	var set LanguageSet
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, err := lookupLanguage(item)
		if err != nil {
			return nil, err
		}
		set = append(set, code)
	}
	return set, nil
}

// SplitLanguages parses a comma- or plus-separated list such as
// "English,Hindi" or "eng+hin".
func SplitLanguages(s string) (LanguageSet, error) {
	return ParseLanguages(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+'
	})...)
}

func lookupLanguage(item string) (string, error) {
	for name, code := range Languages {
		if strings.EqualFold(name, item) {
			return code, nil
		}
	}
	lower := strings.ToLower(item)
	if codePattern.MatchString(lower) {
		return lower, nil
	}
	return "", fmt.Errorf("unknown language %q", item)
}

// Codes returns the codes to pass to the engine, falling back to
// DefaultLanguage when the set is empty.
func (s LanguageSet) Codes() []string {
	if len(s) == 0 {
		return []string{DefaultLanguage}
	}
	return s
}

// Param joins the codes with "+", the form Tesseract expects for -l.
func (s LanguageSet) Param() string {
	return strings.Join(s.Codes(), "+")
}

func (s LanguageSet) String() string { return s.Param() }
