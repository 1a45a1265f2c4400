package tui

import (
	"io"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Clipboard receives share text.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard uses the OS clipboard and falls back to an OSC 52 escape
// sequence on out, which most terminals honour over SSH.
type SystemClipboard struct {
	Out io.Writer
}

func (c SystemClipboard) Copy(text string) error {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(text); err == nil {
			return nil
		}
	}
	_, err := osc52.New(text).WriteTo(c.Out)
	return err
}
