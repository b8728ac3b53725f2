// Package content normalizes Notion pages and block trees into the renderer's content model.
package content

// Kind is the closed set of block types the renderers understand.
type Kind int

// Block kinds. KindUnknown covers every type not listed here; the raw name stays on Block.Type.
const (
	KindUnknown Kind = iota
	KindParagraph
	KindHeading1
	KindHeading2
	KindHeading3
	KindBulletedListItem
	KindNumberedListItem
	KindToDo
	KindToggle
	KindCode
	KindQuote
	KindCallout
	KindDivider
	KindImage
	KindVideo
	KindEmbed
	KindBookmark
	KindTable
	KindTableRow
)

var kindsByName = map[string]Kind{
	"paragraph":          KindParagraph,
	"heading_1":          KindHeading1,
	"heading_2":          KindHeading2,
	"heading_3":          KindHeading3,
	"bulleted_list_item": KindBulletedListItem,
	"numbered_list_item": KindNumberedListItem,
	"to_do":              KindToDo,
	"toggle":             KindToggle,
	"code":               KindCode,
	"quote":              KindQuote,
	"callout":            KindCallout,
	"divider":            KindDivider,
	"image":              KindImage,
	"video":              KindVideo,
	"embed":              KindEmbed,
	"bookmark":           KindBookmark,
	"table":              KindTable,
	"table_row":          KindTableRow,
}

// KindOf maps a Notion block type name to its Kind.
func KindOf(blockType string) Kind {
	if kind, ok := kindsByName[blockType]; ok {
		return kind
	}
	return KindUnknown
}

// Block is one node of the normalized content tree.
//
// Children is nil when the source block reported no descendants and non-nil (possibly empty)
// when it did; list renderers rely on that to decide whether to emit a nested list.
type Block struct {
	Metadata Metadata `json:"metadata"`
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Children []Block  `json:"children,omitempty"`
}

// Kind reports the block's kind.
func (b Block) Kind() Kind {
	return KindOf(b.Type)
}

// Metadata carries the type-specific fields renderers need.
type Metadata struct {
	Checked  *bool    `json:"checked,omitempty"`
	Language string   `json:"language,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	URL      string   `json:"url,omitempty"`
	Cells    []string `json:"cells,omitempty"`
}

// IsChecked reports the to-do state, treating an absent flag as unchecked.
func (m Metadata) IsChecked() bool {
	return m.Checked != nil && *m.Checked
}
