package db

import (
	"strconv"
	"strings"
)

// EscapeTag escapes a value for use inside an FT TAG clause: @field:{value}.
func EscapeTag(value string) string {
	return tagEscaper.Replace(value)
}

// EscapeText escapes a value for use as a term in an FT full-text clause.
func EscapeText(value string) string {
	return queryEscaper.Replace(value)
}

// TagClause renders @field:{v1|v2|...}. Returns "" for no values.
func TagClause(field string, values ...string) string {
	if len(values) == 0 {
		return ""
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = EscapeTag(v)
	}
	return "@" + field + ":{" + strings.Join(escaped, " | ") + "}"
}

// NumericClause renders an inclusive @field:[min max]; nil bounds become -inf/+inf.
func NumericClause(field string, minBound, maxBound *int64) string {
	lo, hi := "-inf", "+inf"
	if minBound != nil {
		lo = strconv.FormatInt(*minBound, 10)
	}
	if maxBound != nil {
		hi = strconv.FormatInt(*maxBound, 10)
	}
	return "@" + field + ":[" + lo + " " + hi + "]"
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
)
