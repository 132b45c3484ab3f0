package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	lowerCaser = cases.Lower(language.Und)
	folder     = cases.Fold()
)

// cleanText NFC-normalizes s and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func cleanEmail(s string) string {
	return lowerCaser.String(strings.TrimSpace(norm.NFC.String(s)))
}

// foldKey is the comparison form used for search matching.
func foldKey(s string) string {
	return folder.String(cleanText(s))
}

func cleanTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := cleanText(*s)
	return &v
}
