package logging

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
)

// logdyTee mirrors each console line, pipeline and live-view events included, into the Logdy browser.
type logdyTee struct {
	ui logdy.Logdy
}

func (t logdyTee) Write(p []byte) (int, error) {
	t.ui.LogString(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// StartLogdy serves the Logdy log browser beside the worker API. It returns the writer main
// tees the global logger into and the browser URL.
func StartLogdy(cfg *config.Config) (io.Writer, string, error) {
	if cfg.LogdyPort == cfg.Port {
		return nil, "", fmt.Errorf("logdy port %d is already used by the API", cfg.LogdyPort)
	}
	port := strconv.Itoa(cfg.LogdyPort)

	ui := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   cfg.LogdyHost,
		ServerPort: port,
	}, nil)

	url := "http://" + net.JoinHostPort(cfg.LogdyHost, port)
	log.Info().Str("url", url).Str("worker_id", cfg.WorkerID).Msg("Logdy log browser started")
	return logdyTee{ui: ui}, url, nil
}
