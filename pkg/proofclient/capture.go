package proofclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// MaxProofSize is the largest accepted proof image (5 MiB).
const MaxProofSize = 5 * 1024 * 1024

var (
	ErrNotAnImage    = errors.New("selected file is not an image")
	ErrImageTooLarge = errors.New("selected image exceeds 5 MiB")
)

// ProofFile is one user-chosen image.
type ProofFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Capture validates and previews a single proof image selection. It holds at
// most one file; each accepted selection replaces the previous one.
type Capture struct {
	mu           sync.Mutex
	file         *ProofFile
	preview      string
	previewReady chan struct{}
}

func NewCapture() *Capture {
	return &Capture{}
}

// Select validates a file and, on acceptance, replaces the current selection
// and starts building the preview in the background. A rejected selection
// returns the explicit reason and leaves the current selection untouched.
func (c *Capture) Select(file ProofFile) error {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return fmt.Errorf("%w: %s", ErrNotAnImage, file.ContentType)
	}
	if len(file.Data) > MaxProofSize {
		return fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(file.Data))
	}

	c.mu.Lock()
	selected := file
	c.file = &selected
	c.preview = ""
	ready := make(chan struct{})
	c.previewReady = ready
	c.mu.Unlock()

	go func() {
		encoded := fmt.Sprintf("data:%s;base64,%s",
			selected.ContentType, base64.StdEncoding.EncodeToString(selected.Data))
		c.mu.Lock()
		if c.previewReady == ready {
			c.preview = encoded
		}
		c.mu.Unlock()
		close(ready)
	}()

	return nil
}

// Preview blocks until the preview of the current selection is ready and
// returns it as a self-contained data URL.
func (c *Capture) Preview(ctx context.Context) (string, error) {
	c.mu.Lock()
	ready := c.previewReady
	c.mu.Unlock()
	if ready == nil {
		return "", errors.New("no file selected")
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview, nil
}

// Current returns the accepted selection, if any.
func (c *Capture) Current() *ProofFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// Clear discards the selection and any preview.
func (c *Capture) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file = nil
	c.preview = ""
	c.previewReady = nil
}
