// Package listing renders a vocabulary snapshot as chat text.
package listing

import (
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/dictbot/core/telegram/format"
	"github.com/m3rciful/dictbot/internal/domain"
)

// EmptyText is shown when there is nothing to list.
const EmptyText = "You have no words saved yet."

// MessageLimit is the longest text Telegram accepts in one message.
const MessageLimit = 4096

// Render formats entries as "<word> - <meaning>;" lines in the given order.
// Entries missing a word or a meaning are skipped.
func Render(entries []domain.WordEntry) string {
	return render(entries, EmptyText, func(e domain.WordEntry) string {
		return e.Word + " - " + e.Meaning + ";\n"
	})
}

// RenderMarkdown is Render for Telegram MarkdownV2, with the word in bold and
// the meaning in italics.
func RenderMarkdown(entries []domain.WordEntry) string {
	return render(entries, format.EscapeV2(EmptyText), func(e domain.WordEntry) string {
		return format.BoldV2(e.Word) + ` \- ` + format.ItalicV2(e.Meaning) + ";\n"
	})
}

func render(entries []domain.WordEntry, empty string, line func(domain.WordEntry) string) string {
	var b strings.Builder
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		b.WriteString(line(e))
	}
	if b.Len() == 0 {
		return empty
	}
	return b.String()
}

// Chunks splits text at line boundaries into pieces of at most limit bytes.
// Joining the pieces gives back text. A line longer than limit is cut at a
// rune boundary, never inside a MarkdownV2 escape.
func Chunks(text string, limit int) []string {
	if limit < 2 || len(text) <= limit {
		return []string{text}
	}
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for text != "" {
		line, rest, found := strings.Cut(text, "\n")
		if found {
			line += "\n"
		}
		text = rest

		if b.Len()+len(line) > limit {
			flush()
		}
		for len(line) > limit {
			cut := cutPoint(line, limit)
			out = append(out, line[:cut])
			line = line[cut:]
		}
		b.WriteString(line)
	}
	flush()
	return out
}

func cutPoint(line string, limit int) int {
	cut := limit
	for cut > 1 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	slashes := 0
	for i := cut - 1; i >= 0 && line[i] == '\\'; i-- {
		slashes++
	}
	if slashes%2 == 1 && cut > 1 {
		cut--
	}
	return cut
}
