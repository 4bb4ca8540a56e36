package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

const DefaultEnvironment = "production"

// AppConfig is the TOML configuration file
type AppConfig struct {
	Workspace    WorkspaceConfig              `toml:"workspace"`
	Environments map[string]EnvironmentConfig `toml:"environment"`
}

// WorkspaceConfig describes the Slack workspace and how dates are shown in it
type WorkspaceConfig struct {
	URL                 string `toml:"url"`
	Timezone            string `toml:"timezone"`
	FallbackMeetingLink string `toml:"fallback_meeting_link"`
}

// EnvironmentConfig holds the settings that differ between deployments
type EnvironmentConfig struct {
	DefaultChannels []string `toml:"default_channels"`
	GuestTier       string   `toml:"guest_tier"`
}

// Validate checks the workspace section and every environment block
func (a *AppConfig) Validate() error {
	if a.Workspace.URL == "" {
		return goerr.Wrap(ErrInvalidConfig, "workspace url is required")
	}
	if _, err := model.NewWorkspace(a.Workspace.URL); err != nil {
		return goerr.Wrap(err, "invalid workspace url")
	}
	if a.Workspace.Timezone != "" {
		if _, err := time.LoadLocation(a.Workspace.Timezone); err != nil {
			return goerr.Wrap(ErrInvalidTimezone, err.Error(), goerr.V(TimezoneKey, a.Workspace.Timezone))
		}
	}

	if len(a.Environments) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "at least one environment block is required")
	}
	for name, env := range a.Environments {
		if len(env.DefaultChannels) == 0 {
			return goerr.Wrap(ErrNoDefaultChannels, "invalid environment", goerr.V(EnvironmentKey, name))
		}
		for _, ch := range env.DefaultChannels {
			if strings.TrimSpace(strings.TrimPrefix(ch, "#")) == "" {
				return goerr.Wrap(ErrInvalidConfig, "empty default channel name", goerr.V(EnvironmentKey, name))
			}
		}
		if env.GuestTier != "" {
			if _, err := types.ParseAccessTier(env.GuestTier); err != nil {
				return goerr.Wrap(err, "invalid guest tier", goerr.V(EnvironmentKey, name))
			}
		}
	}
	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, err.Error(), goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// Settings is the resolved configuration for one environment
type Settings struct {
	Environment     string
	Workspace       *model.Workspace
	Location        *time.Location
	DefaultChannels []string
	GuestTier       types.AccessTier
	Render          model.RenderOptions
}

// Resolve selects environment and converts the file into runtime settings
func (a *AppConfig) Resolve(environment string) (*Settings, error) {
	env, ok := a.Environments[environment]
	if !ok {
		names := make([]string, 0, len(a.Environments))
		for name := range a.Environments {
			names = append(names, name)
		}
		slices.Sort(names)
		return nil, goerr.Wrap(ErrUnknownEnvironment, "failed to resolve settings",
			goerr.V(EnvironmentKey, environment),
			goerr.V("available", names))
	}

	ws, err := model.NewWorkspace(a.Workspace.URL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid workspace url")
	}

	loc := time.UTC
	if a.Workspace.Timezone != "" {
		loc, err = time.LoadLocation(a.Workspace.Timezone)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidTimezone, err.Error(), goerr.V(TimezoneKey, a.Workspace.Timezone))
		}
	}

	tier := types.AccessTierUltraRestricted
	if env.GuestTier != "" {
		tier, err = types.ParseAccessTier(env.GuestTier)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid guest tier", goerr.V(EnvironmentKey, environment))
		}
	}

	channels := make([]string, 0, len(env.DefaultChannels))
	for _, ch := range env.DefaultChannels {
		channels = append(channels, strings.TrimSpace(strings.TrimPrefix(ch, "#")))
	}

	return &Settings{
		Environment:     environment,
		Workspace:       ws,
		Location:        loc,
		DefaultChannels: channels,
		GuestTier:       tier,
		Render: model.RenderOptions{
			Location:            loc,
			FallbackMeetingLink: a.Workspace.FallbackMeetingLink,
		},
	}, nil
}

// App is the flag group pointing at the configuration file
type App struct {
	path        string
	environment string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Value:       "minerva.toml",
			Sources:     cli.EnvVars("MINERVA_CONFIG"),
			Destination: &x.path,
		},
		&cli.StringFlag{
			Name:        "environment",
			Aliases:     []string{"e"},
			Usage:       "Environment block of the configuration file to use",
			Value:       DefaultEnvironment,
			Sources:     cli.EnvVars("MINERVA_ENVIRONMENT"),
			Destination: &x.environment,
		},
	}
}

// Configure loads the file and resolves the selected environment
func (x *App) Configure() (*Settings, error) {
	cfg, err := LoadAppConfiguration(x.path)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(x.environment)
}
