package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/yourorg/notioncms/internal/config"
	"github.com/yourorg/notioncms/internal/notion"
)

type stubBot struct {
	err     error
	user    notion.UserReference
	token   string
	version string
}

func (s *stubBot) RetrieveBotUser(context.Context) (notion.UserReference, error) {
	return s.user, s.err
}

func useStubBot(t *testing.T, bot *stubBot) {
	t.Helper()
	previous := loginClient
	loginClient = func(token, version string) botIdentifier {
		bot.token, bot.version = token, version
		return bot
	}
	t.Cleanup(func() { loginClient = previous })
}

func isolateKeyring(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NOTIONCMS_TOKEN", "")
	keyring.MockInit()
}

func TestAuthLoginReadsTokenFromStdin(t *testing.T) {
	isolateKeyring(t)

	cmd := newAuthLoginCmd(&globalOptions{profile: "work"})
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("  secret_from_stdin\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--notion-version", "2022-06-28"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("auth login returned error: %v", err)
	}

	token, version, err := config.LoadAuth("work")
	if err != nil {
		t.Fatalf("LoadAuth returned error: %v", err)
	}
	if token != "secret_from_stdin" || version != "2022-06-28" {
		t.Fatalf("stored credentials = (%q, %q)", token, version)
	}
	if !strings.Contains(out.String(), `profile "work"`) {
		t.Fatalf("unexpected confirmation: %q", out.String())
	}
}

func TestAuthLoginVerifiesTokenBeforeSaving(t *testing.T) {
	isolateKeyring(t)
	bot := &stubBot{user: notion.UserReference{ID: "bot-1", Name: "CMS Integration"}}
	useStubBot(t, bot)

	cmd := newAuthLoginCmd(&globalOptions{profile: "work"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--token", "secret_abc", "--verify"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("auth login returned error: %v", err)
	}
	if bot.token != "secret_abc" || bot.version != config.DefaultNotionVersion() {
		t.Fatalf("verify client built with (%q, %q)", bot.token, bot.version)
	}
	if !strings.Contains(out.String(), `integration "CMS Integration"`) {
		t.Fatalf("unexpected confirmation: %q", out.String())
	}
	if token, _, err := config.LoadAuth("work"); err != nil || token != "secret_abc" {
		t.Fatalf("LoadAuth = (%q, %v)", token, err)
	}
}

func TestAuthLoginRejectedTokenIsNotSaved(t *testing.T) {
	isolateKeyring(t)
	useStubBot(t, &stubBot{err: &notion.Error{Status: 401, Code: "unauthorized", Message: "API token is invalid."}})

	cmd := newAuthLoginCmd(&globalOptions{profile: "work"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--token", "bad", "--verify"})

	err := cmd.ExecuteContext(context.Background())
	var apiErr *notion.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("expected wrapped 401, got %v", err)
	}
	if _, _, err := config.LoadAuth("work"); err == nil {
		t.Fatalf("expected no stored credentials after a rejected token")
	}
}

func TestAuthLoginRejectsEmptyToken(t *testing.T) {
	isolateKeyring(t)

	cmd := newAuthLoginCmd(&globalOptions{profile: "work"})
	cmd.SetIn(strings.NewReader("   \n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	if err := cmd.ExecuteContext(context.Background()); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty token error, got %v", err)
	}
}
