package notion

import (
	"encoding/json"
	"fmt"
)

// Block represents a Notion block. The type-specific object stored under the key named by Type
// is kept raw in Payload so unknown block types survive a decode/encode round trip.
type Block struct {
	Payload     json.RawMessage `json:"-"`
	ID          string          `json:"id,omitempty"`
	Object      string          `json:"object,omitempty"`
	Type        string          `json:"type"`
	HasChildren bool            `json:"has_children,omitempty"`
}

// BlockData is the union of the type-specific fields the content pipeline reads.
//
//nolint:govet // fieldalignment: grouped by the block types that populate each field.
type BlockData struct {
	RichText []RichText   `json:"rich_text,omitempty"`
	Text     []RichText   `json:"text,omitempty"`
	Caption  []RichText   `json:"caption,omitempty"`
	Cells    [][]RichText `json:"cells,omitempty"`
	Icon     *Icon        `json:"icon,omitempty"`
	File     *FileRef     `json:"file,omitempty"`
	External *ExternalRef `json:"external,omitempty"`
	Checked  *bool        `json:"checked,omitempty"`
	Language string       `json:"language,omitempty"`
	URL      string       `json:"url,omitempty"`
}

// UnmarshalJSON decodes the common block envelope and captures the payload for Type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("unmarshal block: %w", err)
	}

	type envelope struct {
		ID          string `json:"id"`
		Object      string `json:"object"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal block envelope: %w", err)
	}

	blockType := env.Type
	if blockType == "" {
		blockType = payloadKey(fields)
	}

	*b = Block{
		ID:          env.ID,
		Object:      env.Object,
		Type:        blockType,
		HasChildren: env.HasChildren,
	}
	if raw, ok := fields[blockType]; ok && blockType != "" {
		b.Payload = append(json.RawMessage(nil), raw...)
	}
	return nil
}

// envelopeKeys are the block fields that never name a block type.
var envelopeKeys = map[string]bool{
	"id":               true,
	"object":           true,
	"type":             true,
	"has_children":     true,
	"parent":           true,
	"archived":         true,
	"in_trash":         true,
	"created_time":     true,
	"last_edited_time": true,
	"created_by":       true,
	"last_edited_by":   true,
}

// payloadKey infers the type of a request-shaped block such as {"heading_1":{...}}, which
// omits "type". It returns "" unless exactly one non-envelope key is present.
func payloadKey(fields map[string]json.RawMessage) string {
	found := ""
	for key := range fields {
		if envelopeKeys[key] {
			continue
		}
		if found != "" {
			return ""
		}
		found = key
	}
	return found
}

// MarshalJSON emits the envelope with the payload nested under the block type.
func (b Block) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": b.Type}
	if b.Object != "" {
		out["object"] = b.Object
	}
	if b.ID != "" {
		out["id"] = b.ID
	}
	if b.HasChildren {
		out["has_children"] = true
	}
	if b.Type != "" {
		payload := b.Payload
		if len(payload) == 0 {
			payload = json.RawMessage(`{}`)
		}
		out[b.Type] = payload
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal block: %w", err)
	}
	return data, nil
}

// Data decodes the type-specific payload. Blocks without a payload yield an empty BlockData.
func (b Block) Data() (BlockData, error) {
	var data BlockData
	if len(b.Payload) == 0 || string(b.Payload) == "null" {
		return data, nil
	}
	if err := json.Unmarshal(b.Payload, &data); err != nil {
		return BlockData{}, fmt.Errorf("decode %s payload for block %s: %w", b.Type, b.ID, err)
	}
	return data, nil
}
