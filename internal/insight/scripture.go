package insight

import (
	"fmt"
	"regexp"
	"strings"
)

// verseRefPattern matches "Book Chapter:Verse" with an optional verse range
// and an optional leading book number ("1 Corinthians 13:4-7").
var verseRefPattern = regexp.MustCompile(`\b((?:[1-3] )?[A-Z][a-z]+(?: of [A-Z][a-z]+)?) (\d{1,3}):(\d{1,3})(?:-(\d{1,3}))?`)

// bareChapterBooks are the only books accepted in the bare "Book Chapter"
// form; anything else without a verse number is too ambiguous to keep.
var bareChapterBooks = []string{
	"Psalm", "Psalms", "Proverbs", "Genesis", "Isaiah", "Matthew",
	"John", "Romans", "Philippians", "James", "Ecclesiastes",
}

var bareChapterPattern = regexp.MustCompile(
	`\b(` + strings.Join(bareChapterBooks, "|") + `) (\d{1,3})\b`)

// DetectScriptureRefs returns every scripture reference found in the text,
// deduplicated by exact string equality, in order of first appearance.
func DetectScriptureRefs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	for _, match := range verseRefPattern.FindAllStringSubmatch(text, -1) {
		ref := fmt.Sprintf("%s %s:%s", match[1], match[2], match[3])
		if match[4] != "" {
			ref += "-" + match[4]
		}
		add(ref)
	}

	for _, match := range bareChapterPattern.FindAllStringSubmatchIndex(text, -1) {
		// Skip bare matches that are the prefix of a full verse reference.
		end := match[1]
		if end < len(text) && text[end] == ':' {
			continue
		}
		add(text[match[2]:match[3]] + " " + text[match[4]:match[5]])
	}

	return refs
}
