// Copyright 2025 The Padron Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"regexp"
	"strings"

	"github.com/camdev/padron/utils/textutil"
)

// countryQualifier scopes every query to the supported catalog country.
const countryQualifier = "Colombia"

// Street-type abbreviations common in Colombian addresses. Longer alternatives
// must come first inside each group so "cra" never matches as "cr"+"a".
var abbreviations = []struct {
	re   *regexp.Regexp
	full string
}{
	{regexp.MustCompile(`(?i)\b(?:cra|kra|cr|kr)\b\.?`), "Carrera"},
	{regexp.MustCompile(`(?i)\b(?:cll|cl)\b\.?`), "Calle"},
	{regexp.MustCompile(`(?i)\b(?:avda|av)\b\.?`), "Avenida"},
	{regexp.MustCompile(`(?i)\b(?:diag|dg)\b\.?`), "Diagonal"},
	{regexp.MustCompile(`(?i)\b(?:transv|tv)\b\.?`), "Transversal"},
	{regexp.MustCompile(`(?i)\b(?:autop|aut)\b\.?`), "Autopista"},
}

var (
	// House-number markers: "No. 45", "Nro 45", "# 45-10".
	numberMarkerRe = regexp.MustCompile(`(?i)\b(?:nro|num|no)\b\.?\s*(\d)`)
	hashRe         = regexp.MustCompile(`#`)

	// Everything that isn't a word character, a comma or whitespace.
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N},\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	commaSpacesRe = regexp.MustCompile(`\s*,\s*`)
)

// NormalizeQuery turns a raw address line and a municipality display name into
// a geocoder-friendly query. The result is always scoped to the catalog
// country. A blank line yields an empty string and the caller must skip
// geocoding in that case.
func NormalizeQuery(line, municipality string) string {
	s := strings.TrimSpace(line)
	if s == "" {
		return ""
	}

	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.full)
	}

	s = numberMarkerRe.ReplaceAllString(s, "$1")
	s = hashRe.ReplaceAllString(s, " ")
	s = punctuationRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = commaSpacesRe.ReplaceAllString(s, ", ")
	s = strings.Trim(s, " ,")

	if s == "" {
		return ""
	}

	// Avoid "Bogotá, Bogotá, Colombia" when the line already names its
	// municipality. Comparison folds accents and case.
	if municipality != "" &&
		!strings.Contains(textutil.LowerASCIIFolding(s), textutil.LowerASCIIFolding(municipality)) {
		s += ", " + municipality
	}

	return s + ", " + countryQualifier
}
