// Package util provides shared naming helpers.
package util

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidName is returned when a name cannot be normalized into a
// resource identifier.
var ErrInvalidName = errors.New("invalid name")

var (
	nonAlphanumHyphen = regexp.MustCompile(`[^a-z0-9-]`)
	multipleHyphens   = regexp.MustCompile(`-{2,}`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
)

// Slugify converts a human-readable name into a URL/key-safe slug.
// It lowercases, replaces spaces with hyphens, strips non-[a-z0-9-],
// collapses multiple hyphens, and trims leading/trailing hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = nonAlphanumHyphen.ReplaceAllString(s, "")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// PascalCase joins the words of s with each word capitalized and the rest of
// the word lowercased. Words are split on separators and on case boundaries,
// so "prod-eu", "prod_eu" and "prodEu" all become "ProdEu".
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}
	return b.String()
}

// Derive returns the logical identifier for the resource playing role in the
// named environment, e.g. Derive("prod", "OriginBucket") == "ProdOriginBucket".
// The result is alphanumeric and never starts with a digit.
func Derive(environment, role string) (string, error) {
	base, err := Normalize(environment)
	if err != nil {
		return "", err
	}
	return base + PascalCase(role), nil
}

// Normalize returns the PascalCase form of an environment name, rejecting
// names that are empty, contain characters outside [A-Za-z0-9 _./-], or
// normalize to something that is not a valid identifier.
func Normalize(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	for _, r := range name {
		if r > unicode.MaxASCII || !(isAlnum(r) || isSeparator(r)) {
			return "", fmt.Errorf("%w: %q contains unsupported character %q", ErrInvalidName, name, r)
		}
	}
	id := PascalCase(name)
	if !identifierPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q normalizes to %q, which must start with a letter", ErrInvalidName, name, id)
	}
	return id, nil
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		if !isAlnum(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			// "prodEu" -> prod|Eu, "PRODOrigin" -> PROD|Origin
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isSeparator(r rune) bool {
	switch r {
	case '-', '_', ' ', '.', '/':
		return true
	}
	return false
}
