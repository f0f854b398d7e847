package service

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Heuristics for pulling a patient name out of OCR'd text. Handles patterns
// like "Patient Name: Jane Doe", "Name - John Smith" and bare single-word
// names near the top of the document.

var (
	nameLabelRe   = regexp.MustCompile(`(?i)^(patient\s*name|member\s*name|patient|name)\s*[:\-–—]*\s*`)
	nameSepRe     = regexp.MustCompile(`[:\-–—]`)
	nonNameCharRe = regexp.MustCompile(`[^A-Za-z\s.'-]`)
	slugRe        = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

const (
	nameScanLines     = 120
	fallbackScanLines = 80
	maxNameWords      = 4
)

// guessPatientName scans document text for a plausible patient name and
// returns it title-cased, or "" when nothing qualifies.
func guessPatientName(text string) string {
	if text == "" {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	prefixes := []string{"patient name", "member name", "name", "patient"}
	var candidates []string
	for i, line := range lines {
		if i >= nameScanLines {
			break
		}
		lower := strings.ToLower(line)
		labeled := false
		for _, prefix := range prefixes {
			if strings.Contains(lower, prefix) {
				labeled = true
				break
			}
		}
		if !labeled {
			continue
		}
		candidate := line
		if parts := nameSepRe.Split(line, 2); len(parts) > 1 {
			candidate = parts[1]
		}
		cleaned := cleanNameCandidate(candidate)
		if n := len(strings.Fields(cleaned)); n >= 1 && n <= maxNameWords {
			candidates = append(candidates, cleaned)
		}
	}

	// Fallback: first reasonably short line that looks like a name.
	if len(candidates) == 0 {
		for i, line := range lines {
			if i >= fallbackScanLines {
				break
			}
			cleaned := cleanNameCandidate(line)
			if n := len(strings.Fields(cleaned)); n >= 1 && n <= maxNameWords && cleaned != "" {
				candidates = append(candidates, cleaned)
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	// Prefer the shortest plausible candidate to avoid long sentences.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return titleCase(best)
}

// cleanNameCandidate strips label prefixes, separators and non-name
// characters, and bounds the result to four words.
func cleanNameCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = nameLabelRe.ReplaceAllString(s, "")
	s = strings.Trim(s, " -:|\t")
	s = strings.TrimSpace(nonNameCharRe.ReplaceAllString(s, ""))

	parts := strings.Fields(s)
	if len(parts) > 0 {
		switch strings.ToLower(parts[0]) {
		case "name", "patient", "member":
			parts = parts[1:]
		}
	}
	if len(parts) > maxNameWords {
		parts = parts[:maxNameWords]
	}
	return strings.Join(parts, " ")
}

// nameFromFilename derives a display name from an upload's filename stem.
func nameFromFilename(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
	if stem == "" {
		return ""
	}
	return titleCase(stem)
}

// slugifyName produces a filesystem-safe prefix for a stored document.
func slugifyName(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "patient"
	}
	return slug
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
