// Package format renders user supplied text for Telegram HTML parse mode.
package format

import (
	"html"
	"strings"
)

// Escape makes s safe for Telegram HTML parse mode.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped s in <b>.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Field renders "label: value" with value escaped; an empty value yields "".
func Field(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return Escape(label) + ": " + Escape(value)
}

// Lines joins non-empty lines with newlines.
func Lines(lines ...string) string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
