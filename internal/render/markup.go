package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Paragraph is a flattened block of contract markup.
type Paragraph struct {
	Text    string
	Heading bool
	Bullet  bool
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "blockquote": true, "section": true,
	"article": true, "header": true, "footer": true, "hr": true,
}

var headingTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true}

// Paragraphs flattens markup into text paragraphs. Inline formatting is
// dropped and whitespace is collapsed; script and style content is skipped.
func Paragraphs(markup string) []Paragraph {
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		out     []Paragraph
		buf     strings.Builder
		heading int
		bullet  bool
		skip    int
	)

	flush := func() {
		text := strings.Join(strings.Fields(buf.String()), " ")
		buf.Reset()
		if text == "" {
			return
		}
		out = append(out, Paragraph{Text: text, Heading: heading > 0, Bullet: bullet})
		bullet = false
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return out
		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				}
			case blockTags[tag]:
				flush()
				if headingTags[tag] && tt == html.StartTagToken {
					heading++
				}
				if tag == "li" {
					bullet = true
				}
			case tag == "td" || tag == "th":
				buf.WriteString(" ")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockTags[tag]:
				flush()
				if headingTags[tag] && heading > 0 {
					heading--
				}
				if tag == "li" {
					bullet = false
				}
			}
		}
	}
}
