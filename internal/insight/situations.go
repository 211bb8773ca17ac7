package insight

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// situationPatterns are applied in order to the lower-cased text. Captured
// spans shorter than 6 or longer than 99 characters are discarded. Spans
// from different templates are intentionally not deduplicated here; the
// store merges them against existing situations by bidirectional
// substring containment.
var situationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`i'?m dealing with ([^.!?,;\n]+)`),
	regexp.MustCompile(`i'?ve been having ([^.!?,;\n]+)`),
	regexp.MustCompile(`i'?ve been going through ([^.!?,;\n]+)`),
	regexp.MustCompile(`i'?m going through ([^.!?,;\n]+)`),
	regexp.MustCompile(`i'?m struggling with ([^.!?,;\n]+)`),
	regexp.MustCompile(`i'?m worried about ([^.!?,;\n]+)`),
	regexp.MustCompile(`i (?:just )?lost my ([^.!?,;\n]+)`),
	regexp.MustCompile(`my ([^.!?,;\n]+? (?:is dying|is leaving|is struggling|is sick|passed away|left me))`),
}

const (
	minSituationLen = 6
	maxSituationLen = 99
)

type regexSituationExtractor struct{}

func (regexSituationExtractor) Situations(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var situations []string
	for _, pattern := range situationPatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			span := strings.TrimSpace(match[1])
			if n := utf8.RuneCountInString(span); n < minSituationLen || n > maxSituationLen {
				continue
			}
			situations = append(situations, span)
		}
	}
	return situations
}
