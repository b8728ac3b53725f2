package render

import (
	"strconv"
	"strings"

	"github.com/yourorg/notioncms/internal/content"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five HTML-significant characters in s.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// HTML renders blocks as an HTML fragment, one sibling per line.
func HTML(blocks []content.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, blockHTML(b))
	}
	return strings.Join(parts, "\n")
}

func blockHTML(b content.Block) string {
	text := EscapeHTML(b.Content)
	children := HTML(b.Children)
	url := EscapeHTML(b.Metadata.URL)

	switch b.Kind() {
	case content.KindParagraph:
		return "<p>" + text + "</p>"
	case content.KindHeading1:
		return heading(1, text)
	case content.KindHeading2:
		return heading(2, text)
	case content.KindHeading3:
		return heading(3, text)
	case content.KindBulletedListItem:
		return listItem("ul", text, children)
	case content.KindNumberedListItem:
		return listItem("ol", text, children)
	case content.KindToDo:
		checked := ""
		if b.Metadata.IsChecked() {
			checked = "checked "
		}
		return `<div class="todo"><input type="checkbox" ` + checked + `disabled />` + text + "</div>"
	case content.KindToggle:
		return "<details><summary>" + text + "</summary>" + children + "</details>"
	case content.KindCode:
		lang := EscapeHTML(b.Metadata.Language)
		return `<pre><code class="language-` + lang + `">` + text + "</code></pre>"
	case content.KindQuote:
		return "<blockquote>" + text + "</blockquote>"
	case content.KindCallout:
		return `<div class="callout">` + EscapeHTML(b.Metadata.Icon) + " " + text + "</div>"
	case content.KindDivider:
		return "<hr />"
	case content.KindImage:
		caption := ""
		if text != "" {
			caption = "<figcaption>" + text + "</figcaption>"
		}
		return `<figure><img src="` + url + `" alt="` + text + `" />` + caption + "</figure>"
	case content.KindVideo:
		return `<video src="` + url + `" controls></video>`
	case content.KindEmbed:
		return `<iframe src="` + url + `" frameborder="0"></iframe>`
	case content.KindBookmark:
		label := text
		if label == "" {
			label = url
		}
		return `<a href="` + url + `" class="bookmark">` + label + "</a>"
	case content.KindTable:
		return "<table>" + children + "</table>"
	case content.KindTableRow:
		var row strings.Builder
		row.WriteString("<tr>")
		for _, cell := range b.Metadata.Cells {
			row.WriteString("<td>" + EscapeHTML(cell) + "</td>")
		}
		row.WriteString("</tr>")
		return row.String()
	case content.KindUnknown:
	}
	return `<div class="block-` + EscapeHTML(b.Type) + `">` + text + "</div>"
}

func heading(level int, text string) string {
	tag := "h" + strconv.Itoa(level)
	return "<" + tag + ">" + text + "</" + tag + ">"
}

// listItem only wraps children in a nested list when rendered children exist.
func listItem(listTag, text, children string) string {
	if children == "" {
		return "<li>" + text + "</li>"
	}
	return "<li>" + text + "<" + listTag + ">" + children + "</" + listTag + "></li>"
}
