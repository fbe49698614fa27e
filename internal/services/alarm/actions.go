package alarm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"linewatch-worker-go/internal/models"
)

// WebhookPayload is the JSON body posted by the webhook action.
type WebhookPayload struct {
	CameraID  int64  `json:"camera_id"`
	Event     string `json:"event"`
	Trigger   string `json:"trigger"`
	Timestamp string `json:"timestamp"`
}

// ActionRunner executes a configured alarm action.
type ActionRunner interface {
	Run(ctx context.Context, action models.AlarmAction, payload WebhookPayload) error
}

// Executor runs webhook and shell actions.
type Executor struct {
	client *http.Client
	shell  string
}

func NewExecutor(client *http.Client) *Executor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{client: client, shell: "sh"}
}

func (e *Executor) Run(ctx context.Context, action models.AlarmAction, payload WebhookPayload) error {
	if err := action.Validate(); err != nil {
		return err
	}

	switch action.Action {
	case models.ActionWebhook:
		return e.webhook(ctx, action, payload)
	case models.ActionScript:
		return e.script(ctx, action.Command)
	}
	return nil
}

func (e *Executor) webhook(ctx context.Context, action models.AlarmAction, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if action.Auth != nil {
		req.SetBasicAuth(action.Auth.User, action.Auth.Pass)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook to %s: %w", action.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", action.URL, resp.StatusCode)
	}
	return nil
}

func (e *Executor) script(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("script %q failed: %w: %s", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
