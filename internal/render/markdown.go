package render

import (
	"strings"

	"github.com/yourorg/notioncms/internal/content"
)

const (
	defaultCalloutIcon = "💡"
	childIndent        = "  "
)

// Markdown renders blocks as Markdown, siblings separated by a blank line. Text is not escaped.
func Markdown(blocks []content.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, blockMarkdown(b))
	}
	return strings.Join(parts, "\n\n")
}

func blockMarkdown(b content.Block) string {
	text := b.Content
	url := b.Metadata.URL

	switch b.Kind() {
	case content.KindParagraph:
		return text
	case content.KindHeading1:
		return "# " + text
	case content.KindHeading2:
		return "## " + text
	case content.KindHeading3:
		return "### " + text
	case content.KindBulletedListItem:
		return withChildren("- "+text, b.Children)
	case content.KindNumberedListItem:
		return withChildren("1. "+text, b.Children)
	case content.KindToDo:
		box := "[ ]"
		if b.Metadata.IsChecked() {
			box = "[x]"
		}
		return "- " + box + " " + text
	case content.KindToggle:
		return "<details>\n<summary>" + text + "</summary>\n\n" + indentedChildren(b.Children) + "\n</details>"
	case content.KindCode:
		return "```" + b.Metadata.Language + "\n" + text + "\n```"
	case content.KindQuote:
		return "> " + text
	case content.KindCallout:
		icon := b.Metadata.Icon
		if icon == "" {
			icon = defaultCalloutIcon
		}
		return "> " + icon + " " + text
	case content.KindDivider:
		return "---"
	case content.KindImage:
		return "![" + orDefault(text, "image") + "](" + url + ")"
	case content.KindVideo:
		return "[Video](" + url + ")"
	case content.KindEmbed:
		return "[Embed](" + url + ")"
	case content.KindBookmark:
		return "[" + orDefault(text, "Link") + "](" + url + ")"
	case content.KindTable:
		rows := make([]string, 0, len(b.Children))
		for _, child := range b.Children {
			rows = append(rows, blockMarkdown(child))
		}
		return strings.Join(rows, "\n")
	case content.KindTableRow:
		return "| " + strings.Join(b.Metadata.Cells, " | ") + " |"
	case content.KindUnknown:
	}
	return text
}

func withChildren(line string, children []content.Block) string {
	nested := indentedChildren(children)
	if nested == "" {
		return line
	}
	return line + "\n" + nested
}

// indentedChildren renders children one per line, shifting every line right by two spaces.
func indentedChildren(children []content.Block) string {
	if len(children) == 0 {
		return ""
	}
	lines := make([]string, 0, len(children))
	for _, child := range children {
		rendered := blockMarkdown(child)
		lines = append(lines, childIndent+strings.ReplaceAll(rendered, "\n", "\n"+childIndent))
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
