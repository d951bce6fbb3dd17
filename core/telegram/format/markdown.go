// Package format escapes text for Telegram parse modes.
package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

// Entity types with their own escaping rules in MarkdownV2.
const (
	EntityCode = "code"
	EntityPre  = "pre"
	EntityLink = "text_link"
)

var (
	mdV1Re     = regexp.MustCompile("[_*`\\[]")
	mdV2Re     = regexp.MustCompile(`[\\_*\[\]()~` + "`" + `>#+\-=|{}.!]`)
	mdV2CodeRe = regexp.MustCompile("[`\\\\]")
	mdV2LinkRe = regexp.MustCompile(`[)\\]`)
)

func escapeWith(re *regexp.Regexp, text string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string { return `\` + m })
}

// EscapeMarkdown escapes text for the given markdown version. For MarkdownV2
// an entityType of EntityCode, EntityPre or EntityLink selects the narrower
// escaping Telegram applies inside those entities; "" means regular text.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return escapeWith(mdV1Re, text), nil
	case MarkdownV2:
		switch entityType {
		case EntityCode, EntityPre:
			return escapeWith(mdV2CodeRe, text), nil
		case EntityLink:
			return escapeWith(mdV2LinkRe, text), nil
		default:
			return escapeWith(mdV2Re, text), nil
		}
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeV2 escapes regular MarkdownV2 text.
func EscapeV2(text string) string {
	return escapeWith(mdV2Re, text)
}

// BoldV2 escapes text and wraps it in MarkdownV2 bold markers.
func BoldV2(text string) string {
	return "*" + EscapeV2(text) + "*"
}

// ItalicV2 escapes text and wraps it in MarkdownV2 italic markers.
func ItalicV2(text string) string {
	return "_" + EscapeV2(text) + "_"
}
