package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/notioncms/internal/cms"
	"github.com/yourorg/notioncms/internal/config"
	"github.com/yourorg/notioncms/internal/logger"
	"github.com/yourorg/notioncms/internal/notion"
)

// appRuntime bundles what a command needs to talk to Notion.
type appRuntime struct {
	client   *notion.Client
	logger   *zap.Logger
	settings config.Settings
}

var runtimeFactory = defaultRuntimeFactory

func defaultRuntimeFactory(globals *globalOptions) (*appRuntime, error) {
	settings, err := config.Load(globals.profile, globals.configFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if globals.logLevel != "" {
		settings.LogLevel = globals.logLevel
	}

	log, err := logger.New(settings.LogLevel, settings.LogDevelopment)
	if err != nil {
		return nil, err
	}

	token, _, err := config.LoadAuth(globals.profile)
	if err != nil {
		return nil, fmt.Errorf("load auth: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("profile %q has no stored Notion token", globals.profile)
	}

	client := notion.NewClient(notion.ClientConfig{
		Token:             token,
		NotionVersion:     settings.NotionVersion,
		Logger:            log.Named("notion"),
		EnableRetries:     settings.Retries,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	return &appRuntime{client: client, logger: log, settings: settings}, nil
}

func buildRuntime(globals *globalOptions) (*appRuntime, error) {
	return runtimeFactory(globals)
}

// content builds the cached content facade over the runtime's client.
func (rt *appRuntime) content() *cms.Client {
	return cms.New(rt.client, cms.Config{
		DatabaseID: rt.settings.DatabaseID,
		Cache: cms.CacheConfig{
			Enabled: rt.settings.CacheEnabled,
			TTL:     rt.settings.CacheTTL,
		},
	}, cms.WithLogger(rt.logger.Named("cms")))
}
