package ui

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/qeesung/image2ascii/convert"
)

// TerminalCapabilities represents which graphics protocols the terminal supports.
type TerminalCapabilities struct {
	SupportsKitty  bool
	SupportsSixel  bool
	SupportsITerm2 bool
}

// DetectTerminalCapabilities detects which graphics protocols the terminal supports.
func DetectTerminalCapabilities() TerminalCapabilities {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	return TerminalCapabilities{
		SupportsKitty:  strings.Contains(term, "kitty") || os.Getenv("KITTY_WINDOW_ID") != "",
		SupportsSixel:  detectSixelSupport(),
		SupportsITerm2: termProgram == "iTerm.app",
	}
}

// detectSixelSupport looks for common Sixel-capable terminals.
func detectSixelSupport() bool {
	term := os.Getenv("TERM")

	if strings.Contains(term, "xterm") && os.Getenv("XTERM_VERSION") != "" {
		return true
	}
	if strings.Contains(term, "mlterm") || strings.Contains(term, "foot") {
		return true
	}
	return os.Getenv("WEZTERM_EXECUTABLE") != ""
}

// previewWidth and previewHeight size the ASCII preview in cells.
const (
	previewWidth  = 48
	previewHeight = 16
)

// imagePreviewMsg carries a rendered preview for url.
type imagePreviewMsg struct {
	url   string
	ascii string
	err   error
}

// ImagePreviewer downloads restaurant and specialty photos on demand and
// keeps their ASCII renderings in an LRU cache keyed by URL.
type ImagePreviewer struct {
	caps   TerminalCapabilities
	client *http.Client
	cache  *lru.Cache[string, string]
}

// NewImagePreviewer creates a previewer holding up to size renderings.
func NewImagePreviewer(caps TerminalCapabilities, size int) *ImagePreviewer {
	cache, err := lru.New[string, string](max(size, 1))
	if err != nil {
		panic(err)
	}
	return &ImagePreviewer{
		caps:   caps,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  cache,
	}
}

// Cached returns a rendering fetched earlier.
func (p *ImagePreviewer) Cached(url string) (string, bool) {
	if p == nil || url == "" {
		return "", false
	}
	return p.cache.Get(url)
}

// Store adds a rendering to the cache.
func (p *ImagePreviewer) Store(url, ascii string) {
	if p != nil && url != "" {
		p.cache.Add(url, ascii)
	}
}

// PreviewCmd fetches url unless it is cached.
func (p *ImagePreviewer) PreviewCmd(url string) tea.Cmd {
	if p == nil || url == "" {
		return nil
	}
	if ascii, ok := p.Cached(url); ok {
		return func() tea.Msg { return imagePreviewMsg{url: url, ascii: ascii} }
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		img, err := p.fetch(ctx, url)
		if err != nil {
			return imagePreviewMsg{url: url, err: fmt.Errorf("failed to load image: %w", err)}
		}
		return imagePreviewMsg{url: url, ascii: RenderImage(img, p.caps, previewWidth, previewHeight)}
	}
}

func (p *ImagePreviewer) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image request returned %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	return img, err
}

// RenderImage renders an image using the best available terminal graphics
// protocol, falling back to ASCII art.
func RenderImage(img image.Image, caps TerminalCapabilities, targetWidth, targetHeight int) string {
	// TODO: emit Kitty and iTerm2 inline images when caps allows it.
	return convertToASCII(img, targetWidth, targetHeight)
}

// convertToASCII converts an image to colored ASCII art.
func convertToASCII(img image.Image, targetWidth, targetHeight int) string {
	converter := convert.NewImageConverter()

	opts := convert.DefaultOptions
	opts.FixedWidth = targetWidth
	opts.FixedHeight = targetHeight
	opts.Colored = true
	opts.Ratio = 0.5

	return converter.Image2ASCIIString(img, &opts)
}
