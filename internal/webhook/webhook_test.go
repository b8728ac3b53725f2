package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yourorg/notioncms/internal/webhook"
)

const pageCreatedBody = `{"type":"event","event":{"type":"page.created","timestamp":"2024-01-01T00:00:00Z",` +
	`"workspace_id":"ws","data":{"page_id":"p1","parent":{"type":"database_id","database_id":"db"}}}}`

func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	p := webhook.New(webhook.Config{Secret: "s"})
	signature := sign("s", "1000", "{}")

	assert.True(t, p.VerifySignature([]byte("{}"), signature, "1000"))
	assert.False(t, p.VerifySignature([]byte("{}"), signature, "1001"))
	assert.False(t, p.VerifySignature([]byte("{ }"), signature, "1000"))
}

func TestSignatureMutationIsRejected(t *testing.T) {
	p := webhook.New(webhook.Config{Secret: "s"})
	signature := sign("s", "1000", "{}")

	for i := range signature {
		mutated := []byte(signature)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		resp, err := p.HandleRequest(context.Background(), []byte("{}"), webhook.HeadersFromMap(map[string]string{
			"x-notion-signature": string(mutated),
			"x-notion-timestamp": "1000",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.Status, "mutation at %d", i)
		assert.Equal(t, map[string]string{"error": "Invalid signature"}, resp.Body)
	}

	resp, err := p.HandleRequest(context.Background(), []byte("{}"), webhook.HeadersFromMap(map[string]string{
		"X-Notion-Signature": signature,
		"X-Notion-Timestamp": "1000",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]bool{"ok": true}, resp.Body)
}

func TestURLVerificationSkipsSignature(t *testing.T) {
	p := webhook.New(webhook.Config{Secret: "s"})

	resp, err := p.HandleRequest(context.Background(),
		[]byte(`{"type":"url_verification","verification_token":"abc"}`), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]string{"challenge": "abc"}, resp.Body)

	resp, err = p.HandleRequest(context.Background(),
		[]byte(`{"type":"url_verification","verification_token":"abc"}`),
		webhook.HeadersFromMap(map[string]string{"x-notion-signature": "v0=bad", "x-notion-timestamp": "1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestUnsignedEventsAreAccepted(t *testing.T) {
	calls := 0
	p := webhook.New(webhook.Config{
		Secret:       "s",
		OnPageCreate: func(context.Context, webhook.Event) error { calls++; return nil },
	})

	resp, err := p.HandleRequest(context.Background(), []byte(pageCreatedBody),
		webhook.HeadersFromMap(map[string]string{"x-notion-signature": "v0=only-one-header"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, calls)
}

func TestMalformedBodyIsAnError(t *testing.T) {
	p := webhook.New(webhook.Config{Secret: "s"})
	_, err := p.HandleRequest(context.Background(), []byte("{"), http.Header{})
	require.Error(t, err)
}

func TestDispatchRunsSpecificThenWildcard(t *testing.T) {
	var order []string
	p := webhook.New(webhook.Config{Secret: "s"}, webhook.WithLogger(zaptest.NewLogger(t)))
	p.On(webhook.Wildcard, func(context.Context, webhook.Event) error { order = append(order, "B"); return nil })
	p.On(webhook.PageCreated, func(_ context.Context, e webhook.Event) error {
		order = append(order, "A")
		assert.Equal(t, "p1", e.Data.PageID)
		require.NotNil(t, e.Data.Parent)
		assert.Equal(t, "db", e.Data.Parent.DatabaseID)
		return nil
	})
	p.On(webhook.PageDeleted, func(context.Context, webhook.Event) error { order = append(order, "X"); return nil })

	resp, err := p.HandleRequest(context.Background(), []byte(pageCreatedBody), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestConfigConvenienceHandlers(t *testing.T) {
	var seen []webhook.EventType
	record := func(_ context.Context, e webhook.Event) error {
		seen = append(seen, e.Type)
		return nil
	}
	p := webhook.New(webhook.Config{OnPageUpdate: record, OnDatabaseUpdate: record, OnPageDelete: record})

	for _, typ := range []string{
		"page.content_updated", "page.properties_updated", "page.deleted",
		"database.content_updated", "database.properties_updated", "page.moved",
	} {
		body := `{"type":"event","event":{"type":"` + typ + `","data":{}}}`
		_, err := p.HandleRequest(context.Background(), []byte(body), http.Header{})
		require.NoError(t, err)
	}

	assert.Equal(t, []webhook.EventType{
		webhook.PageContentUpdated, webhook.PagePropertiesUpdated, webhook.PageDeleted,
		webhook.DatabaseContentUpdated, webhook.DatabasePropertiesUpdated,
	}, seen)
}

func TestOffRemovesOnlyThatSubscription(t *testing.T) {
	calls := 0
	handler := func(context.Context, webhook.Event) error { calls++; return nil }

	p := webhook.New(webhook.Config{})
	first := p.On(webhook.PageCreated, handler)
	p.On(webhook.PageCreated, handler)
	p.Off(webhook.PageCreated, first)
	p.Off(webhook.PageCreated, first)
	p.Off(webhook.PageDeleted, first)

	_, err := p.HandleRequest(context.Background(), []byte(pageCreatedBody), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestHandlerErrorAbortsDispatch(t *testing.T) {
	boom := errors.New("boom")
	var ran []string
	p := webhook.New(webhook.Config{})
	p.On(webhook.PageCreated, func(context.Context, webhook.Event) error { ran = append(ran, "first"); return boom })
	p.On(webhook.PageCreated, func(context.Context, webhook.Event) error { ran = append(ran, "second"); return nil })
	p.On(webhook.Wildcard, func(context.Context, webhook.Event) error { ran = append(ran, "any"); return nil })

	_, err := p.HandleRequest(context.Background(), []byte(pageCreatedBody), http.Header{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, ran)
}

func TestEventTypeHelpers(t *testing.T) {
	assert.True(t, webhook.PageLocked.Known())
	assert.False(t, webhook.EventType("comment.created").Known())
	assert.True(t, webhook.PageMoved.IsPage())
	assert.False(t, webhook.PageMoved.IsDatabase())
	assert.True(t, webhook.DatabaseMoved.IsDatabase())
	assert.False(t, webhook.Wildcard.IsPage())
}
