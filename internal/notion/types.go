package notion

import (
	"encoding/json"
	"fmt"
)

// Page represents a Notion page or database row.
//
// Timestamps are kept as the API's verbatim strings; the content pipeline passes them through.
type Page struct {
	Properties     map[string]PropertyValue `json:"properties"`
	Parent         PageParent               `json:"parent"`
	Icon           *Icon                    `json:"icon,omitempty"`
	CreatedTime    string                   `json:"created_time"`
	LastEditedTime string                   `json:"last_edited_time"`
	ID             string                   `json:"id"`
	Object         string                   `json:"object"`
	URL            string                   `json:"url"`
	Archived       bool                     `json:"archived"`
}

// PageParent captures the page's parent container information.
type PageParent struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// Icon holds either emoji or external file icon data.
type Icon struct {
	Emoji    *string      `json:"emoji,omitempty"`
	External *ExternalRef `json:"external,omitempty"`
	File     *FileRef     `json:"file,omitempty"`
	Type     string       `json:"type"`
}

// ExternalRef points at an externally hosted file.
type ExternalRef struct {
	URL string `json:"url"`
}

// FileRef points at a Notion-hosted file.
type FileRef struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

// PropertyValue represents a typed page property.
//
//nolint:govet // fieldalignment: layout keeps related property projections together.
type PropertyValue struct {
	Relation       []RelationReference `json:"relation,omitempty"`
	People         []UserReference     `json:"people,omitempty"`
	MultiSelect    []SelectValue       `json:"multi_select,omitempty"`
	RichText       []RichText          `json:"rich_text,omitempty"`
	Title          []RichText          `json:"title,omitempty"`
	Files          []FileObject        `json:"files,omitempty"`
	Raw            json.RawMessage     `json:"-"`
	Rollup         *RollupValue        `json:"rollup,omitempty"`
	Status         *SelectValue        `json:"status,omitempty"`
	Select         *SelectValue        `json:"select,omitempty"`
	Date           *DateValue          `json:"date,omitempty"`
	CreatedBy      *UserReference      `json:"created_by,omitempty"`
	LastEditedBy   *UserReference      `json:"last_edited_by,omitempty"`
	Number         *float64            `json:"number,omitempty"`
	Checkbox       *bool               `json:"checkbox,omitempty"`
	URL            *string             `json:"url,omitempty"`
	Email          *string             `json:"email,omitempty"`
	Phone          *string             `json:"phone_number,omitempty"`
	CreatedTime    *string             `json:"created_time,omitempty"`
	LastEditedTime *string             `json:"last_edited_time,omitempty"`
	Formula        *FormulaValue       `json:"formula,omitempty"`
	ID             string              `json:"id"`
	Type           string              `json:"type"`
}

// UnmarshalJSON keeps the original JSON while decoding known fields.
func (p *PropertyValue) UnmarshalJSON(data []byte) error {
	type alias PropertyValue
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("unmarshal property value: %w", err)
	}
	*p = PropertyValue(tmp)
	p.Raw = append(p.Raw[:0], data...)
	return nil
}

// RelationReference references a related page.
type RelationReference struct {
	ID string `json:"id"`
}

// RollupValue captures aggregated relation data.
//
//nolint:govet // fieldalignment: retain canonical order from Notion API docs.
type RollupValue struct {
	Array  []PropertyValue `json:"array,omitempty"`
	Number *float64        `json:"number,omitempty"`
	Date   *DateValue      `json:"date,omitempty"`
	Type   string          `json:"type"`
}

// RichText is a Notion rich text object.
type RichText struct {
	Text        *Text        `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	Href        *string      `json:"href,omitempty"`
	PlainText   string       `json:"plain_text"`
	Type        string       `json:"type"`
}

// Text contains the raw textual content.
type Text struct {
	Link *struct {
		URL string `json:"url"`
	} `json:"link,omitempty"`
	Content string `json:"content"`
}

// Annotations describe styling for rich text content.
type Annotations struct {
	Color         string `json:"color"`
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
}

// SelectValue represents a select, multi-select or status option.
type SelectValue struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DateValue represents date/time spans.
type DateValue struct {
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
	Start    string  `json:"start"`
}

// FileObject references an uploaded or external file.
type FileObject struct {
	File     *FileRef     `json:"file,omitempty"`
	External *ExternalRef `json:"external,omitempty"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
}

// UserReference references a Notion user.
type UserReference struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
}

// FormulaValue reflects computed formula content.
type FormulaValue struct {
	Date    *DateValue `json:"date,omitempty"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Type    string     `json:"type"`
}

// QueryDatabaseRequest mirrors the Notion database query payload.
//
//nolint:govet // fieldalignment: preserve logical grouping of JSON fields for readability.
type QueryDatabaseRequest struct {
	Filter      any    `json:"filter,omitempty"`
	Sorts       []any  `json:"sorts,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// QueryDatabaseResponse captures paginated query results.
//
//nolint:govet // fieldalignment: minimal benefit versus semantic ordering of fields.
type QueryDatabaseResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// AppendBlockChildrenRequest for PATCH /v1/blocks/{block_id}/children.
type AppendBlockChildrenRequest struct {
	Children []Block `json:"children"`
}

// BlockChildrenResponse represents paginated block children.
//
//nolint:govet // fieldalignment: keep response metadata grouped with results.
type BlockChildrenResponse struct {
	Results    []Block `json:"results"`
	Object     string  `json:"object"`
	NextCursor string  `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}
