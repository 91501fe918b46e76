package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// CaptureFunc produces a single still image, typically by driving the
// platform capture UI.
type CaptureFunc func(ctx context.Context) (image.Image, error)

// SnapshotDevice is the native-path device: opening it performs a one-shot
// capture and the stream yields exactly one frame before ending. The
// platform UI owns facing selection, so the facing argument is advisory.
type SnapshotDevice struct {
	Capture CaptureFunc
}

func (d *SnapshotDevice) Native() bool { return true }

func (d *SnapshotDevice) Open(ctx context.Context, _ Facing) (Stream, error) {
	img, err := d.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	ch := make(chan Frame, 1)
	ch <- Frame{Image: img, At: time.Now()}
	close(ch)
	return &snapshotStream{frames: ch, track: &memTrack{}}, nil
}

type snapshotStream struct {
	frames chan Frame
	track  *memTrack
	once   sync.Once
}

func (s *snapshotStream) Frames() <-chan Frame { return s.frames }
func (s *snapshotStream) Track() Track         { return s.track }

func (s *snapshotStream) Close() error {
	s.once.Do(func() { s.track.Stop() })
	return nil
}

// FrameSource supplies frames for the continuous (web-path) device.
type FrameSource func(ctx context.Context) (image.Image, error)

// StreamDevice is the web-path device: it samples a frame source at a fixed
// rate until the stream is closed. Sources are registered per facing;
// requesting an unregistered facing fails with ErrNoCamera, which lets the
// scan engine fall back from rear to front.
type StreamDevice struct {
	Sources map[Facing]FrameSource
	// FPS is the sampling rate; zero means 10, matching the original web
	// decoder configuration.
	FPS int
	// Zoom advertises an optical zoom capability, nil for none.
	Zoom *ZoomRange
}

func (d *StreamDevice) Native() bool { return false }

func (d *StreamDevice) Open(ctx context.Context, facing Facing) (Stream, error) {
	src, ok := d.Sources[facing]
	if !ok || src == nil {
		return nil, ErrNoCamera
	}
	fps := d.FPS
	if fps <= 0 {
		fps = 10
	}

	ctx, cancel := context.WithCancel(ctx)
	st := &liveStream{
		frames: make(chan Frame),
		track:  &memTrack{caps: Capabilities{Zoom: d.Zoom}},
		cancel: cancel,
	}

	go func() {
		defer close(st.frames)
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			img, err := src(ctx)
			if err != nil {
				continue // a dropped frame is not fatal; keep sampling
			}
			select {
			case st.frames <- Frame{Image: img, At: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return st, nil
}

type liveStream struct {
	frames chan Frame
	track  *memTrack
	cancel context.CancelFunc
	once   sync.Once
}

func (s *liveStream) Frames() <-chan Frame { return s.frames }
func (s *liveStream) Track() Track         { return s.track }

func (s *liveStream) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.track.Stop()
	})
	return nil
}

// memTrack is the track implementation shared by both devices.
type memTrack struct {
	caps Capabilities

	mu      sync.Mutex
	level   float64
	stopped bool
}

func (t *memTrack) Capabilities() Capabilities { return t.caps }

func (t *memTrack) ApplyZoom(level float64) error {
	if t.caps.Zoom == nil {
		return fmt.Errorf("track has no zoom capability")
	}
	if level < t.caps.Zoom.Min || level > t.caps.Zoom.Max {
		return fmt.Errorf("zoom %.1f outside hardware range [%.1f, %.1f]",
			level, t.caps.Zoom.Min, t.caps.Zoom.Max)
	}
	t.mu.Lock()
	t.level = level
	t.mu.Unlock()
	return nil
}

func (t *memTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// FileSource reads and decodes a still image from disk on every sample. It
// backs `ecopoints scan --image` and local development.
func FileSource(path string) FrameSource {
	return func(ctx context.Context) (image.Image, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		return img, err
	}
}

// CommandCapture shells out to an external capture program which must write
// a still image to the path given as its final argument.
func CommandCapture(name string, args ...string) CaptureFunc {
	return func(ctx context.Context) (image.Image, error) {
		out := filepath.Join(os.TempDir(), fmt.Sprintf("ecopoints-capture-%d.png", time.Now().UnixNano()))
		defer os.Remove(out)

		cmd := exec.CommandContext(ctx, name, append(args, out)...)
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("capture command: %w", err)
		}
		f, err := os.Open(out)
		if err != nil {
			return nil, fmt.Errorf("capture output: %w", err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		return img, err
	}
}

// Detect picks the device implementation for this run: a configured capture
// command selects the native one-shot path, otherwise the continuous path
// reading the given image file.
func Detect(captureCommand, imagePath string) (Device, error) {
	if captureCommand != "" {
		return &SnapshotDevice{Capture: CommandCapture(captureCommand)}, nil
	}
	if imagePath == "" {
		return nil, ErrNoCamera
	}
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCamera, err)
	}
	return &StreamDevice{
		Sources: map[Facing]FrameSource{FacingBack: FileSource(imagePath)},
	}, nil
}
