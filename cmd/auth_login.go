package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yourorg/notioncms/internal/config"
	"github.com/yourorg/notioncms/internal/notion"
)

type loginOptions struct {
	notionVersion string
	token         string
	verify        bool
}

// botIdentifier resolves the integration behind a token before it is stored.
type botIdentifier interface {
	RetrieveBotUser(ctx context.Context) (notion.UserReference, error)
}

// loginClient builds the client used by --verify; tests point it at a fake API.
var loginClient = func(token, version string) botIdentifier {
	return notion.NewClient(notion.ClientConfig{Token: token, NotionVersion: version})
}

func newAuthLoginCmd(globals *globalOptions) *cobra.Command {
	opts := &loginOptions{notionVersion: config.DefaultNotionVersion()}

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Store a Notion integration token in the OS keyring",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, globals.profile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.token, "token", "", "Integration token to store (read from stdin when omitted)")
	flags.StringVar(&opts.notionVersion, "notion-version", opts.notionVersion, "Notion-Version header saved with the profile")
	flags.BoolVar(&opts.verify, "verify", false, "Check the token against the Notion API before saving it")

	return cmd
}

func (opts *loginOptions) run(cmd *cobra.Command, profile string) error {
	token, err := opts.resolveToken(cmd)
	if err != nil {
		return err
	}

	version := strings.TrimSpace(opts.notionVersion)
	if version == "" {
		version = config.DefaultNotionVersion()
	}

	integration := ""
	if opts.verify {
		bot, err := loginClient(token, version).RetrieveBotUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("verify token: %w", err)
		}
		integration = bot.Name
		if integration == "" {
			integration = bot.ID
		}
	}

	if err := config.SaveToken(profile, token, version); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	msg := fmt.Sprintf("Saved credentials for profile %q (Notion-Version %s)", profile, version)
	if integration != "" {
		msg += fmt.Sprintf(", integration %q", integration)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), msg); err != nil {
		return fmt.Errorf("write confirmation: %w", err)
	}
	return nil
}

func (opts *loginOptions) resolveToken(cmd *cobra.Command) (string, error) {
	token := strings.TrimSpace(opts.token)
	if token == "" {
		read, err := readToken(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		token = read
	}
	if token == "" {
		return "", errors.New("token cannot be empty")
	}
	return token, nil
}

// readToken prompts without echo on a terminal and otherwise reads all of in.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if _, err := fmt.Fprint(prompt, "Notion token: "); err != nil {
		return "", fmt.Errorf("prompt token: %w", err)
	}
	data, readErr := term.ReadPassword(int(f.Fd()))
	if _, err := fmt.Fprintln(prompt); err != nil {
		return "", fmt.Errorf("prompt token: %w", err)
	}
	if readErr != nil {
		return "", fmt.Errorf("read token: %w", readErr)
	}
	return strings.TrimSpace(string(data)), nil
}
