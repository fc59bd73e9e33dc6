package app

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

const defaultMessageWidth = 60

// markdownRenderers holds one glamour renderer per wrap width; building one
// parses the whole style sheet.
type markdownRenderers struct {
	mu      sync.Mutex
	byWidth map[int]*glamour.TermRenderer
}

var messageRenderers = &markdownRenderers{byWidth: map[int]*glamour.TermRenderer{}}

func (c *markdownRenderers) get(width int) (*glamour.TermRenderer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r := c.byWidth[width]; r != nil {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(pillMarkdownStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	c.byWidth[width] = r
	return r, nil
}

// renderMarkdown renders a pill message body. Text glamour cannot handle is
// shown as wrapped plain text.
func renderMarkdown(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = defaultMessageWidth
	}
	rendered := input
	if r, err := messageRenderers.get(width); err == nil {
		if out, err := r.Render(input); err == nil {
			rendered = out
		}
	}
	return strings.TrimRight(xansi.Hardwrap(strings.TrimRight(rendered, "\n"), width, true), "\n")
}

// pillMarkdownStyle is the dark style without document margins; the pill
// frame pads the text itself.
func pillMarkdownStyle() glamouransi.StyleConfig {
	style := styles.DarkStyleConfig
	noMargin := uint(0)
	style.Document.Margin = &noMargin
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	return style
}
