package processor

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

var (
	placeholderRE = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)
	canonicalRE   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// CanonicalName reports whether name is an upper snake case placeholder name.
func CanonicalName(name string) bool {
	return canonicalRE.MatchString(name)
}

// ExtractPlaceholders returns the distinct placeholder names in content, in
// order of first appearance.
func ExtractPlaceholders(content string) []string {
	var placeholders []string
	seen := make(map[string]bool)

	for _, match := range placeholderRE.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if !seen[name] {
			placeholders = append(placeholders, name)
			seen[name] = true
		}
	}

	return placeholders
}

// Resolve substitutes every {{NAME}} token in content. Values are inserted as
// escaped literal text and are not scanned again. Tokens without a value are
// removed.
func Resolve(content string, variables map[string]string) string {
	return placeholderRE.ReplaceAllStringFunc(content, func(token string) string {
		match := placeholderRE.FindStringSubmatch(token)
		if len(match) != 2 {
			return ""
		}
		value, ok := variables[match[1]]
		if !ok {
			return ""
		}
		return html.EscapeString(value)
	})
}

// FallbackDocument is produced when the template cannot be loaded. It keeps
// the supplied variables visible so a person can notice and correct the
// contract.
func FallbackDocument(title string, variables map[string]string) string {
	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))
	b.WriteString("<p>Template indisponível. Conteúdo gerado a partir das variáveis informadas.</p>\n")
	b.WriteString("<ul>\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s</li>\n", html.EscapeString(k), html.EscapeString(variables[k]))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
