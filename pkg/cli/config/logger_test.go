package config_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/cli/config"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
)

func keepDefaultLogger(t *testing.T) {
	t.Helper()
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })
}

func TestLogger_ConfigureJSONFile(t *testing.T) {
	keepDefaultLogger(t)
	path := filepath.Join(t.TempDir(), "minerva.log")

	closer, err := config.NewLoggerForTest("info", "json", path, "warn").Configure()
	gt.NoError(t, err).Required()

	logging.Default().Debug("hidden")
	type credentials struct {
		Token string `masq:"secret"`
	}
	logging.Default().Info("pass finished", "events", 3, "creds", credentials{Token: "xoxb-leak"})
	closer()

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	gt.Array(t, lines).Length(1).Required()

	var rec map[string]any
	gt.NoError(t, json.Unmarshal([]byte(lines[0]), &rec)).Required()
	gt.Value(t, rec["msg"]).Equal("pass finished")
	gt.Value(t, rec["events"]).Equal(float64(3))
	gt.Bool(t, strings.Contains(string(data), "xoxb-leak")).False()
}

func TestLogger_ConfigureErrors(t *testing.T) {
	keepDefaultLogger(t)

	t.Run("unknown format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout", "warn").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogFormat)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("loud", "json", "stdout", "warn").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogLevel)
	})
}

type recordingPoster struct {
	mu    sync.Mutex
	texts []string
	dests []model.Destination
}

func (p *recordingPoster) PostMessage(ctx context.Context, dest model.Destination, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
	p.dests = append(p.dests, dest)
	return "1700000000.000001", nil
}

func TestLogger_AttachSlack(t *testing.T) {
	keepDefaultLogger(t)
	path := filepath.Join(t.TempDir(), "minerva.log")

	cfg := config.NewLoggerForTest("debug", "json", path, "warn")
	closer, err := cfg.Configure()
	gt.NoError(t, err).Required()
	defer closer()

	poster := &recordingPoster{}
	gt.NoError(t, cfg.AttachSlack(poster, "C0LOGS")).Required()

	logging.Default().Info("routine")
	logging.Default().Warn("calendar fetch failed", "status", 503, "secret_refresh_token", "1//leaked")

	gt.Array(t, poster.texts).Length(1).Required()
	gt.S(t, poster.texts[0]).Contains("[WARN] calendar fetch failed")
	gt.Bool(t, strings.Contains(poster.texts[0], "1//leaked")).False()
	gt.Value(t, poster.dests[0].ID()).Equal("C0LOGS")

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.S(t, string(data)).Contains("routine")
	gt.S(t, string(data)).Contains("calendar fetch failed")
	gt.Bool(t, strings.Contains(string(data), "1//leaked")).False()
}

func TestLogger_AttachSlackWithoutChannel(t *testing.T) {
	keepDefaultLogger(t)

	cfg := config.NewLoggerForTest("info", "json", "stderr", "warn")
	gt.NoError(t, cfg.AttachSlack(&recordingPoster{}, ""))
	gt.Value(t, cfg.AttachSlack(&recordingPoster{}, "C0LOGS")).NotNil()
}
