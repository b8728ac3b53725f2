package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/notioncms/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newPagesGetCmd(&globalOptions{profile: "default"})
	switch args[0] {
	case "db":
		cmd = newDBQueryCmd(&globalOptions{profile: "default"})
		args = args[1:]
	case "pages":
		args = args[1:]
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPagesGetMarkdown(t *testing.T) {
	_, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	out, err := runCommand(t, "pages", "p1", "--format", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Launch\n\nShip <it>\n", out)
}

func TestPagesGetHTMLEscapes(t *testing.T) {
	_, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	out, err := runCommand(t, "pages", "p1", "--format", "html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Launch</h1>\n<p>Ship &lt;it&gt;</p>\n", out)
}

func TestPagesGetBySlugWithExpansion(t *testing.T) {
	fake, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{DatabaseID: "db1"})

	out, err := runCommand(t, "pages", "launch-notes", "--slug", "--expand", "Related")
	require.NoError(t, err)

	var decoded struct {
		Relations map[string][]struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"relations"`
		ID       string `json:"id"`
		Title    string `json:"title"`
		Markdown string `json:"markdown"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "p1", decoded.ID)
	assert.Equal(t, "Launch Notes", decoded.Title)
	require.Len(t, decoded.Relations["Related"], 1)
	assert.Equal(t, "Roadmap", decoded.Relations["Related"][0].Title)

	require.Len(t, fake.recordedQueries(), 1)
	assert.Equal(t, 1, fake.recordedQueries()[0].PageSize)
}

func TestPagesGetValidation(t *testing.T) {
	_, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	_, err := runCommand(t, "pages", "p1", "--format", "table")
	require.Error(t, err)

	_, err = runCommand(t, "pages", "p1", "--format", "html", "--expand", "Related")
	require.Error(t, err)

	_, err = runCommand(t, "pages", "p1", "--expand", "Name")
	require.ErrorContains(t, err, "not a relation")

	_, err = runCommand(t, "pages", "missing-slug", "--slug")
	require.ErrorContains(t, err, "database id is required")
}

func TestDBQueryAllTable(t *testing.T) {
	fake, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{DatabaseID: "db1"})

	out, err := runCommand(t, "db", "--all", "--page-size", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "launch-notes")
	assert.Contains(t, lines[2], "roadmap")

	require.Len(t, fake.recordedQueries(), 2)
	assert.Equal(t, "c1", fake.recordedQueries()[1].StartCursor)
	assert.Equal(t, 1, fake.recordedQueries()[1].PageSize)
}

func TestDBQueryJSONWithFilter(t *testing.T) {
	fake, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	out, err := runCommand(t, "db", "db1", "--format", "json",
		"--filter", `{"property":"Slug","rich_text":{"equals":"launch-notes"}}`,
		"--sorts", `[{"property":"Name","direction":"ascending"}]`)
	require.NoError(t, err)
	assert.Contains(t, out, `"slug": "launch-notes"`)

	require.Len(t, fake.recordedQueries(), 1)
	assert.Len(t, fake.recordedQueries()[0].Sorts, 1)
	assert.Equal(t, 100, fake.recordedQueries()[0].PageSize)
}

func TestDBQueryRejectsBadSorts(t *testing.T) {
	_, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	_, err := runCommand(t, "db", "db1", "--sorts", `{"property":"Name"}`)
	require.ErrorContains(t, err, "JSON array")
}

func TestDBQueryPageSizeBounds(t *testing.T) {
	fake, srv := newFakeNotion(t)
	useFakeRuntime(t, srv, config.Settings{})

	_, err := runCommand(t, "db", "db1", "--page-size", "101")
	require.ErrorContains(t, err, "between 0 (default) and 100")
	_, err = runCommand(t, "db", "db1", "--page-size", "-1")
	require.ErrorContains(t, err, "between 0 (default) and 100")
	assert.Empty(t, fake.recordedQueries())

	_, err = runCommand(t, "db", "db1", "--page-size", "0")
	require.NoError(t, err)
	require.Len(t, fake.recordedQueries(), 1)
	assert.Equal(t, 100, fake.recordedQueries()[0].PageSize)
}
