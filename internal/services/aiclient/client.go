package aiclient

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"linewatch-worker-go/internal/models"
)

// TrackMethod is the unary RPC served by the AI service.
const TrackMethod = "/linewatch.ai.Tracker/Track"

var ErrNotConnected = errors.New("AI client not connected")

// TrackRequest is one frame sent for tracked inference.
type TrackRequest struct {
	JPEG       []byte
	CameraID   int64
	Model      string
	Confidence float64
	IoU        float64
}

// Client manages the gRPC connection to the tracking service with retry backoff.
type Client struct {
	mu       sync.RWMutex
	conn     *grpc.ClientConn
	endpoint string
	dialOpts []grpc.DialOption
	timeout  time.Duration

	lastFailTime     time.Time
	consecutiveFails int
	maxRetryBackoff  time.Duration
}

// New creates a client. Extra dial options are appended to the transport credentials.
func New(timeout time.Duration, dialOpts ...grpc.DialOption) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		dialOpts:        dialOpts,
		timeout:         timeout,
		maxRetryBackoff: 30 * time.Second,
	}
}

// Connect establishes a connection to endpoint, replacing any previous one.
func (c *Client) Connect(endpoint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.endpoint == endpoint {
		return nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	target, creds, err := parseGRPCEndpoint(endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse AI endpoint %s: %w", endpoint, err)
	}

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, c.dialOpts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to AI service at %s: %w", target, err)
	}

	c.conn = conn
	c.endpoint = endpoint
	c.consecutiveFails = 0

	log.Info().
		Str("original_endpoint", endpoint).
		Str("normalized_endpoint", target).
		Bool("use_tls", creds.Info().SecurityProtocol == "tls").
		Msg("AI gRPC connection initialized")
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.endpoint = ""
	return err
}

// State returns the connectivity state, Shutdown when not connected.
func (c *Client) State() connectivity.State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil {
		return connectivity.Shutdown
	}
	return c.conn.GetState()
}

// EnsureConnected reconnects when the connection is missing or failed, honoring backoff.
func (c *Client) EnsureConnected(endpoint string) error {
	if !c.shouldRetry() {
		return fmt.Errorf("in backoff period after consecutive failures")
	}

	c.mu.RLock()
	needsConnection := c.conn == nil || c.endpoint != endpoint
	if !needsConnection {
		state := c.conn.GetState()
		needsConnection = state == connectivity.TransientFailure || state == connectivity.Shutdown
	}
	c.mu.RUnlock()

	if needsConnection {
		c.mu.Lock()
		if c.conn != nil && c.endpoint == endpoint {
			c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()

		if err := c.Connect(endpoint); err != nil {
			c.recordFailure()
			return fmt.Errorf("failed to ensure connection: %w", err)
		}
	}
	return nil
}

// HealthCheck asks the standard gRPC health service whether the tracker is serving.
func (c *Client) HealthCheck(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check: service is %s", resp.GetStatus())
	}
	return nil
}

// Track sends one JPEG frame and returns detections carrying the service's persistent ids.
func (c *Client) Track(ctx context.Context, req TrackRequest) ([]models.Detection, error) {
	conn := c.current()
	if conn == nil {
		return nil, ErrNotConnected
	}

	in, err := structpb.NewStruct(map[string]any{
		"image":     base64.StdEncoding.EncodeToString(req.JPEG),
		"camera_id": req.CameraID,
		"model":     req.Model,
		"conf":      req.Confidence,
		"iou":       req.IoU,
		"persist":   true,
	})
	if err != nil {
		return nil, fmt.Errorf("build track request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := &structpb.Struct{}
	if err := conn.Invoke(ctx, TrackMethod, in, out); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	c.mu.Lock()
	c.consecutiveFails = 0
	c.mu.Unlock()

	return DecodeDetections(out)
}

// DecodeDetections converts the service response into detections.
func DecodeDetections(resp *structpb.Struct) ([]models.Detection, error) {
	list := resp.GetFields()["detections"].GetListValue()
	if list == nil {
		return nil, nil
	}

	dets := make([]models.Detection, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		if fields == nil {
			return nil, fmt.Errorf("detection %d is not an object", i)
		}

		box := fields["box"].GetListValue().GetValues()
		if len(box) != 4 {
			return nil, fmt.Errorf("detection %d: box has %d values, want 4", i, len(box))
		}

		d := models.Detection{
			Kind:       models.KindTracked,
			Class:      fields["class"].GetStringValue(),
			Confidence: fields["confidence"].GetNumberValue(),
			Box: image.Rect(
				int(box[0].GetNumberValue()), int(box[1].GetNumberValue()),
				int(box[2].GetNumberValue()), int(box[3].GetNumberValue()),
			),
		}
		if id, ok := fields["track_id"]; ok {
			if _, isNull := id.GetKind().(*structpb.Value_NullValue); !isNull {
				d.TrackID = int(id.GetNumberValue())
				d.HasTrackID = true
			}
		}
		dets = append(dets, d)
	}
	return dets, nil
}

func (c *Client) current() *grpc.ClientConn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Client) shouldRetry() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.consecutiveFails == 0 {
		return true
	}

	// 1s, 2s, 4s, 8s, 16s, 30s (max)
	backoff := time.Duration(1<<uint(c.consecutiveFails-1)) * time.Second
	if backoff > c.maxRetryBackoff {
		backoff = c.maxRetryBackoff
	}
	return time.Since(c.lastFailTime) >= backoff
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFails++
	c.lastFailTime = time.Now()

	if c.consecutiveFails <= 5 {
		log.Warn().Int("consecutive_fails", c.consecutiveFails).Msg("AI connection failure recorded")
	}
}

// parseGRPCEndpoint normalizes endpoint into host:port and picks TLS by scheme or well-known port.
func parseGRPCEndpoint(endpoint string) (string, credentials.TransportCredentials, error) {
	if strings.HasPrefix(endpoint, "passthrough:///") {
		return endpoint, insecure.NewCredentials(), nil
	}

	if !strings.Contains(endpoint, "://") {
		switch {
		case strings.Contains(endpoint, ".") && !strings.Contains(endpoint, ":"):
			endpoint = "https://" + endpoint + ":443"
		case strings.Contains(endpoint, ":"):
			parts := strings.Split(endpoint, ":")
			scheme := "http://"
			if len(parts) == 2 {
				if port, err := strconv.Atoi(parts[1]); err == nil && (port == 443 || port == 8443 || port == 9443) {
					scheme = "https://"
				}
			}
			endpoint = scheme + endpoint
		default:
			endpoint = "https://" + endpoint + ":443"
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}

	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = u.Hostname() + ":443"
		case "http":
			host = u.Hostname() + ":80"
		default:
			return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
		}
	}

	var creds credentials.TransportCredentials
	switch u.Scheme {
	case "https":
		creds = credentials.NewTLS(&tls.Config{ServerName: u.Hostname()})
	case "http":
		creds = insecure.NewCredentials()
	default:
		return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	return host, creds, nil
}
