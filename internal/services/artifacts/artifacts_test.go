package artifacts

import (
	"context"
	"testing"

	"linewatch-worker-go/internal/config"
)

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	u, err := New(context.Background(), config.MinioConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := u.(Noop); !ok {
		t.Fatalf("uploader = %T", u)
	}
	if err := u.Upload(context.Background(), "/tmp/x.jpg", "screenshots/x.jpg"); err != nil {
		t.Errorf("noop upload: %v", err)
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a/front_alarm_20240102_030405.jpg": "image/jpeg",
		"a/front_alarm_20240102_030405.mp4": "video/mp4",
		"a/notes.txt":                       "application/octet-stream",
	}
	for path, want := range cases {
		if got := ContentType(path); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", path, got, want)
		}
	}
}
