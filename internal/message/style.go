package message

import (
	"fmt"
	"strings"
)

// style captures the markup conventions of one platform.
type style struct {
	bold   func(string) string
	italic func(string) string
	code   func(string) string
	link   func(url, label string) string
	escape func(string) string
	emoji  func(slack, unicode string) string
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var slackStyle = style{
	bold:   wrap("*"),
	italic: wrap("_"),
	code:   wrap("`"),
	link: func(url, label string) string {
		return fmt.Sprintf("<%s|%s>", url, label)
	},
	escape: slackEscaper.Replace,
	emoji: func(shortcode, _ string) string {
		return ":" + shortcode + ":"
	},
}

var discordStyle = style{
	bold:   wrap("**"),
	italic: wrap("*"),
	code:   wrap("`"),
	link: func(url, label string) string {
		return fmt.Sprintf("[%s](%s)", label, url)
	},
	escape: func(s string) string {
		return strings.ReplaceAll(s, "@", "@\u200b")
	},
	emoji: func(_, unicode string) string {
		return unicode
	},
}

var plainStyle = style{
	bold:   identity,
	italic: identity,
	code:   identity,
	link: func(url, label string) string {
		return fmt.Sprintf("%s: %s", label, url)
	},
	escape: identity,
	emoji: func(string, string) string {
		return ""
	},
}

func wrap(marker string) func(string) string {
	return func(s string) string {
		if s == "" {
			return s
		}
		return marker + s + marker
	}
}

func identity(s string) string {
	return s
}

// prefix joins an emoji and text, dropping the separator when the emoji is empty.
func (s style) prefix(shortcode, unicode, text string) string {
	mark := s.emoji(shortcode, unicode)
	if mark == "" {
		return text
	}
	return mark + " " + text
}
