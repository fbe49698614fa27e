package mjpeg

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const boundary = "frame"

// Publisher keeps the latest JPEG per camera and streams it as multipart MJPEG.
type Publisher struct {
	jpegMutex  sync.RWMutex
	latestJPEG map[int64][]byte

	notifyMutex sync.Mutex
	streamers   map[int64]map[chan struct{}]struct{}

	placeholder func(cameraID int64) []byte
	keepalive   time.Duration
}

// NewPublisher creates a publisher. placeholder renders the first frame for cameras that have none yet.
func NewPublisher(placeholder func(cameraID int64) []byte) *Publisher {
	return &Publisher{
		latestJPEG:  make(map[int64][]byte),
		streamers:   make(map[int64]map[chan struct{}]struct{}),
		placeholder: placeholder,
		keepalive:   2 * time.Second,
	}
}

// Publish stores jpeg as the camera's latest frame and wakes its streamers.
func (p *Publisher) Publish(cameraID int64, jpeg []byte) {
	p.jpegMutex.Lock()
	p.latestJPEG[cameraID] = jpeg
	p.jpegMutex.Unlock()

	p.notifyMutex.Lock()
	for ch := range p.streamers[cameraID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	p.notifyMutex.Unlock()
}

// HasStreamers reports whether any HTTP client is watching cameraID.
func (p *Publisher) HasStreamers(cameraID int64) bool {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	return len(p.streamers[cameraID]) > 0
}

// Forget drops the cached frame of a stopped camera.
func (p *Publisher) Forget(cameraID int64) {
	p.jpegMutex.Lock()
	delete(p.latestJPEG, cameraID)
	p.jpegMutex.Unlock()
}

func (p *Publisher) latest(cameraID int64) []byte {
	p.jpegMutex.RLock()
	defer p.jpegMutex.RUnlock()
	return p.latestJPEG[cameraID]
}

func (p *Publisher) subscribe(cameraID int64) chan struct{} {
	ch := make(chan struct{}, 5)
	p.notifyMutex.Lock()
	if p.streamers[cameraID] == nil {
		p.streamers[cameraID] = make(map[chan struct{}]struct{})
	}
	p.streamers[cameraID][ch] = struct{}{}
	p.notifyMutex.Unlock()
	return ch
}

func (p *Publisher) unsubscribe(cameraID int64, ch chan struct{}) {
	p.notifyMutex.Lock()
	delete(p.streamers[cameraID], ch)
	if len(p.streamers[cameraID]) == 0 {
		delete(p.streamers, cameraID)
	}
	p.notifyMutex.Unlock()
}

// ServeCamera streams cameraID until the client goes away.
func (p *Publisher) ServeCamera(w http.ResponseWriter, r *http.Request, cameraID int64) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	notify := p.subscribe(cameraID)
	defer p.unsubscribe(cameraID, notify)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	first := p.latest(cameraID)
	if len(first) == 0 && p.placeholder != nil {
		first = p.placeholder(cameraID)
	}
	if len(first) > 0 && !writePart(first) {
		return
	}

	keepaliveTicker := time.NewTicker(p.keepalive)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int64("camera_id", cameraID).Msg("MJPEG client disconnected")
			return
		case <-notify:
		case <-keepaliveTicker.C:
		}
		if buf := p.latest(cameraID); len(buf) > 0 {
			if !writePart(buf) {
				return
			}
		}
	}
}
