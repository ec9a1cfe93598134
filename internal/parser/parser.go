// Package parser recovers quiz questions from loosely formatted pasted text.
//
// Input is expected to look like
//
//	1. Question text
//	a) first option
//	b) second option
//
// but the parser is lenient: blocks it cannot make sense of are dropped.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"quiz-room-service/internal/domain"
)

var (
	// Spaces include Unicode separators such as NBSP, common in pasted text.
	// A numbered marker glued to the end of the previous line.
	gluedNumber = regexp.MustCompile(`([\p{L}\p{N}_)])[\s\p{Z}]+(\d+[.)])`)
	numbered    = regexp.MustCompile(`\n[\s\p{Z}]*\d+[.)][\s\p{Z}]*`)
	// Option letters: a-d in Latin, any Cyrillic letter, either case.
	optionAtLineStart = regexp.MustCompile(`\n[\s\p{Z}]*[a-dA-Dа-яА-Я][).][\s\p{Z}]*`)
	optionInline      = regexp.MustCompile(`[\s\p{Z}]+[a-dA-Dа-яА-Я][).][\s\p{Z}]+`)
)

// Parse turns raw text into an ordered list of questions. CorrectIndex is
// always 0; answer keys are applied later.
func Parse(text string) []domain.Question {
	text = gluedNumber.ReplaceAllString(text, "$1\n$2")
	text = "\n" + text

	var questions []domain.Question
	for _, block := range numbered.Split(text, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if q, ok := parseBlock(block); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func parseBlock(block string) (domain.Question, bool) {
	parts := optionAtLineStart.Split(block, -1)
	if len(parts) < 2 {
		parts = optionInline.Split(block, -1)
	}
	if len(parts) < 2 {
		return domain.Question{}, false
	}

	options := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		options = append(options, truncate(p, domain.MaxOptionLen, ""))
	}
	if len(options) < domain.MinOptions {
		return domain.Question{}, false
	}
	return domain.Question{
		Prompt:  truncate(strings.TrimSpace(parts[0]), domain.MaxQuestionLen, "..."),
		Options: options,
	}, true
}

// truncate caps s at limit runes. When a suffix is given it is included in
// the limit.
func truncate(s string, limit int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-len([]rune(suffix))]) + suffix
}

var optionLetters = []rune("abcdefghijklmnopqrstuvwxyz")

// OptionLetter returns the marker letter for option i.
func OptionLetter(i int) string {
	if i < 0 || i >= len(optionLetters) {
		return "?"
	}
	return string(optionLetters[i])
}

// Format writes questions back in the numbered/lettered layout Parse reads.
func Format(questions []domain.Question) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Prompt)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "%s) %s\n", OptionLetter(j), opt)
		}
	}
	return b.String()
}
