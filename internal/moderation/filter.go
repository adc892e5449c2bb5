// Package moderation censors prohibited words in relayed messages.
// Matching is whole-word and case-insensitive against a word list
// loaded once at startup.
package moderation

import (
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// mask replaces every censored word. Fixed length regardless of the
// matched word, so the censored output leaks nothing about it.
const mask = "*****"

type Filter struct {
	matcher *goahocorasick.Machine
}

type span struct {
	start, end int
}

// New builds the Aho-Corasick automaton over the lower-cased word
// list. An empty list yields a filter that passes everything through.
func New(words []string) (*Filter, error) {
	cleaned := lo.Uniq(lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, w != ""
	}))
	patterns := lo.Map(cleaned, func(w string, _ int) []rune { return []rune(w) })
	if len(patterns) == 0 {
		return &Filter{}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}

	return &Filter{matcher: m}, nil
}

// Censor replaces every whole-word occurrence of a prohibited word
// with the mask, preserving the surrounding text.
func (f *Filter) Censor(text string) string {
	spans := f.matches([]rune(text))
	if len(spans) == 0 {
		return text
	}

	runes := []rune(text)
	var b strings.Builder
	last := 0
	for _, s := range spans {
		if s.start < last {
			continue
		}
		b.WriteString(string(runes[last:s.start]))
		b.WriteString(mask)
		last = s.end
	}
	b.WriteString(string(runes[last:]))

	return b.String()
}

// IsProhibited reports whether text contains any prohibited word.
func (f *Filter) IsProhibited(text string) bool {
	return len(f.matches([]rune(text))) > 0
}

// matches returns the whole-word match spans in text, ordered by
// start position.
func (f *Filter) matches(runes []rune) []span {
	if f.matcher == nil || len(runes) == 0 {
		return nil
	}

	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	terms := f.matcher.MultiPatternSearch(lowered, false)

	var spans []span
	for _, t := range terms {
		start := t.Pos
		end := start + len(t.Word)
		if start > 0 && isWordRune(runes[start-1]) {
			continue
		}
		if end < len(runes) && isWordRune(runes[end]) {
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
