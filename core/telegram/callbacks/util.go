// Package callbacks decodes telebot inline button data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Telebot prefixes unique button data with a form feed: "\f<unique>|<payload>".
const uniquePrefix = "\f"

// ParseCallbackData returns the unique key and payload of cb. Telebot fills
// cb.Unique only when a handler is bound to that exact unique; callbacks that
// reach the generic OnCallback endpoint still carry the raw encoding.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, uniquePrefix)
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Encode produces the data string telebot generates for a button with unique and payload.
func Encode(unique, payload string) string {
	if payload == "" {
		return uniquePrefix + unique
	}
	return uniquePrefix + unique + "|" + payload
}

// CallbackKey returns the unique key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns the payload of the current callback.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
