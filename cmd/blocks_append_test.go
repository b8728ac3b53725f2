package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourorg/notioncms/internal/config"
)

func writeMarkdown(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.md")
	content := "# Title\n\nThis is **markdown**."
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp markdown: %v", err)
	}
	return path
}

func TestLoadMarkdownBlocks(t *testing.T) {
	blocks, err := loadMarkdownBlocks(writeMarkdown(t))
	if err != nil {
		t.Fatalf("loadMarkdownBlocks returned error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Type != "heading_1" || blocks[1].Type != "paragraph" {
		t.Fatalf("unexpected block types %q, %q", blocks[0].Type, blocks[1].Type)
	}

	data, err := blocks[0].Data()
	if err != nil {
		t.Fatalf("decode heading payload: %v", err)
	}
	if len(data.RichText) == 0 || data.RichText[0].PlainText != "Title" {
		t.Fatalf("heading payload lost: %#v", data)
	}
}

func TestMarkdownBlocksEncodeTypeAndPayload(t *testing.T) {
	blocks, err := markdownBlocks("# Title\n\nThis is **markdown**.")
	if err != nil {
		t.Fatalf("markdownBlocks returned error: %v", err)
	}

	encoded, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshal blocks: %v", err)
	}
	var wire []map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &wire); err != nil {
		t.Fatalf("unmarshal encoded blocks: %v", err)
	}
	for i, block := range wire {
		var blockType string
		if err := json.Unmarshal(block["type"], &blockType); err != nil || blockType == "" {
			t.Fatalf("block %d encoded without a type: %s", i, encoded)
		}
		if _, ok := block[blockType]; !ok {
			t.Fatalf("block %d encoded without its %s payload: %s", i, blockType, encoded)
		}
	}
}

func TestBlocksAppendUploadsConvertedBlocks(t *testing.T) {
	fake, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	cmd := newBlocksAppendCmd(&globalOptions{profile: "default"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"p1", "--md", writeMarkdown(t)})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("blocks append returned error: %v", err)
	}

	got := fake.appendedBlocks()
	if len(got) != 2 || got[0] != "heading_1" || got[1] != "paragraph" {
		t.Fatalf("appended block types = %v, want [heading_1 paragraph]", got)
	}
	if out.String() != "Appended 2 blocks\n" {
		t.Fatalf("unexpected confirmation %q", out.String())
	}
}

func TestBlocksAppendRequiresMarkdown(t *testing.T) {
	cmd := newBlocksAppendCmd(&globalOptions{profile: "default"})
	cmd.SetArgs([]string{"p1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected error without --md")
	}
}
