package content

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yourorg/notioncms/internal/notion"
)

// PropertyKind is the closed set of property types the extractor understands.
type PropertyKind int

// Property kinds. PropertyUnknown extracts to nil so new Notion types degrade quietly.
const (
	PropertyUnknown PropertyKind = iota
	PropertyTitle
	PropertyRichText
	PropertyNumber
	PropertySelect
	PropertyMultiSelect
	PropertyDate
	PropertyCheckbox
	PropertyURL
	PropertyEmail
	PropertyPhoneNumber
	PropertyFiles
	PropertyRelation
	PropertyFormula
	PropertyRollup
	PropertyCreatedTime
	PropertyLastEditedTime
	PropertyCreatedBy
	PropertyLastEditedBy
	PropertyStatus
)

var propertyKindsByName = map[string]PropertyKind{
	"title":            PropertyTitle,
	"rich_text":        PropertyRichText,
	"number":           PropertyNumber,
	"select":           PropertySelect,
	"multi_select":     PropertyMultiSelect,
	"date":             PropertyDate,
	"checkbox":         PropertyCheckbox,
	"url":              PropertyURL,
	"email":            PropertyEmail,
	"phone_number":     PropertyPhoneNumber,
	"files":            PropertyFiles,
	"relation":         PropertyRelation,
	"formula":          PropertyFormula,
	"rollup":           PropertyRollup,
	"created_time":     PropertyCreatedTime,
	"last_edited_time": PropertyLastEditedTime,
	"created_by":       PropertyCreatedBy,
	"last_edited_by":   PropertyLastEditedBy,
	"status":           PropertyStatus,
}

// PropertyKindOf maps a Notion property type name to its PropertyKind.
func PropertyKindOf(propertyType string) PropertyKind {
	if kind, ok := propertyKindsByName[propertyType]; ok {
		return kind
	}
	return PropertyUnknown
}

const slugPropertyName = "Slug"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// RichText flattens rich text runs into their concatenated plain text.
func RichText(runs []notion.RichText) string {
	if len(runs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.PlainText)
	}
	return b.String()
}

// PropertyValue extracts the plain value of a typed property.
func PropertyValue(prop notion.PropertyValue) any {
	switch PropertyKindOf(prop.Type) {
	case PropertyTitle:
		return RichText(prop.Title)
	case PropertyRichText:
		return RichText(prop.RichText)
	case PropertyNumber:
		if prop.Number == nil {
			return nil
		}
		return *prop.Number
	case PropertySelect:
		return optionName(prop.Select)
	case PropertyMultiSelect:
		names := make([]string, 0, len(prop.MultiSelect))
		for _, opt := range prop.MultiSelect {
			names = append(names, opt.Name)
		}
		return names
	case PropertyDate:
		return dateValue(prop.Date)
	case PropertyCheckbox:
		return prop.Checkbox != nil && *prop.Checkbox
	case PropertyURL:
		return derefString(prop.URL)
	case PropertyEmail:
		return derefString(prop.Email)
	case PropertyPhoneNumber:
		return derefString(prop.Phone)
	case PropertyFiles:
		return fileURLs(prop.Files)
	case PropertyRelation:
		ids := make([]string, 0, len(prop.Relation))
		for _, rel := range prop.Relation {
			ids = append(ids, rel.ID)
		}
		return ids
	case PropertyFormula:
		return formulaValue(prop.Formula)
	case PropertyRollup:
		return rollupValue(prop.Rollup)
	case PropertyCreatedTime:
		return derefString(prop.CreatedTime)
	case PropertyLastEditedTime:
		return derefString(prop.LastEditedTime)
	case PropertyCreatedBy:
		return userValue(prop.CreatedBy)
	case PropertyLastEditedBy:
		return userValue(prop.LastEditedBy)
	case PropertyStatus:
		return optionName(prop.Status)
	case PropertyUnknown:
		return nil
	}
	return nil
}

// Properties extracts every property of page keyed by property name.
func Properties(page notion.Page) map[string]any {
	out := make(map[string]any, len(page.Properties))
	for name, prop := range page.Properties {
		out[name] = PropertyValue(prop)
	}
	return out
}

// Title flattens the page's title property, whatever it is named.
func Title(page notion.Page) string {
	names := make([]string, 0, len(page.Properties))
	for name := range page.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := page.Properties[name]
		if prop.Type == "title" && prop.Title != nil {
			return RichText(prop.Title)
		}
	}
	return ""
}

// Slug returns the page's "Slug" rich text property, or a slug derived from its title.
func Slug(page notion.Page) string {
	if prop, ok := page.Properties[slugPropertyName]; ok && prop.RichText != nil {
		return RichText(prop.RichText)
	}
	return Kebab(Title(page))
}

// Kebab lowercases s and collapses every run of non-alphanumeric characters into one hyphen.
func Kebab(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// BlockMetadata collects the renderer-facing fields of a block payload.
func BlockMetadata(data notion.BlockData) Metadata {
	var meta Metadata

	meta.Language = data.Language
	if data.Checked != nil {
		checked := *data.Checked
		meta.Checked = &checked
	}
	if data.Icon != nil {
		meta.Icon = iconValue(data.Icon)
	}

	// Later sources win: direct url, then hosted file, then external file.
	if data.URL != "" {
		meta.URL = data.URL
	}
	if data.File != nil && data.File.URL != "" {
		meta.URL = data.File.URL
	}
	if data.External != nil && data.External.URL != "" {
		meta.URL = data.External.URL
	}

	if data.Cells != nil {
		meta.Cells = make([]string, 0, len(data.Cells))
		for _, cell := range data.Cells {
			meta.Cells = append(meta.Cells, RichText(cell))
		}
	}
	return meta
}

func iconValue(icon *notion.Icon) string {
	if icon.Emoji != nil && *icon.Emoji != "" {
		return *icon.Emoji
	}
	if icon.External != nil {
		return icon.External.URL
	}
	return ""
}

func optionName(opt *notion.SelectValue) any {
	if opt == nil || opt.Name == "" {
		return nil
	}
	return opt.Name
}

// dateValue and userValue keep an absent value a plain nil rather than a typed nil pointer.
func dateValue(d *notion.DateValue) any {
	if d == nil {
		return nil
	}
	return d
}

func userValue(u *notion.UserReference) any {
	if u == nil {
		return nil
	}
	return u
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fileURLs(files []notion.FileObject) []string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		switch {
		case f.File != nil && f.File.URL != "":
			urls = append(urls, f.File.URL)
		case f.External != nil:
			urls = append(urls, f.External.URL)
		default:
			urls = append(urls, "")
		}
	}
	return urls
}

func formulaValue(f *notion.FormulaValue) any {
	if f == nil {
		return nil
	}
	switch f.Type {
	case "string":
		return derefString(f.String)
	case "number":
		if f.Number == nil {
			return nil
		}
		return *f.Number
	case "boolean":
		if f.Boolean == nil {
			return nil
		}
		return *f.Boolean
	case "date":
		return dateValue(f.Date)
	default:
		return nil
	}
}

func rollupValue(r *notion.RollupValue) any {
	if r == nil {
		return nil
	}
	switch r.Type {
	case "number":
		if r.Number == nil {
			return nil
		}
		return *r.Number
	case "date":
		return dateValue(r.Date)
	case "array":
		values := make([]any, 0, len(r.Array))
		for _, item := range r.Array {
			values = append(values, PropertyValue(item))
		}
		return values
	default:
		return nil
	}
}
