package alarm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Transcoder rewrites a finished recording in place into a browser-playable file.
type Transcoder interface {
	Transcode(ctx context.Context, path string) error
}

// FFmpeg re-encodes to H.264/AAC with the moov atom at the front.
type FFmpeg struct {
	Binary string
}

// BrowserPath is where the re-encoded copy is written before it replaces the original.
func BrowserPath(path string) string {
	return strings.TrimSuffix(path, ".mp4") + "_browser.mp4"
}

// Args returns the ffmpeg arguments for input and output.
func (f FFmpeg) Args(input, output string) []string {
	return []string{
		"-i", input,
		"-movflags", "faststart",
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-loglevel", "warning",
		output,
	}
}

func (f FFmpeg) Transcode(ctx context.Context, path string) error {
	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	output := BrowserPath(path)

	cmd := exec.CommandContext(ctx, binary, f.Args(path, output)...)
	// Interrupt first so ffmpeg can finalize, then kill after the grace period
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		os.Remove(output)
		return fmt.Errorf("ffmpeg transcode of %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove original %s: %w", path, err)
	}
	if err := os.Rename(output, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	log.Info().Str("path", path).Dur("took", time.Since(start)).Msg("Recording transcoded")
	return nil
}
