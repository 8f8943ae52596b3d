package controller

import (
	"fmt"
	"net/url"

	"github.com/japaniel/jambu/pkg/config"
	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
)

// Palette returns the special characters offered below text inputs.
func (c *Controller) Palette() []string {
	return append([]string(nil), c.opts.Palette...)
}

// Focus gives the text input of f focus and shows its palette.
func (c *Controller) Focus(f query.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFieldLocked(f, page.TextInput); err != nil {
		return err
	}
	c.focusLocked(f)
	return nil
}

func (c *Controller) focusLocked(f query.Field) {
	c.focused = f
	c.hides.Cancel(string(f))
	if !c.palette[f] {
		c.palette[f] = true
		c.emitLocked(Event{Kind: EventPalette})
	}
}

// Blur takes focus away from the text input of f. Its palette is hidden
// after the hide delay unless f regains focus first, so a click on the
// palette still lands. With the blur-or-enter trigger, blurring commits
// the input's value.
func (c *Controller) Blur(f query.Field) (*url.URL, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFieldLocked(f, page.TextInput); err != nil {
		return nil, err
	}
	if c.focused == f {
		c.focused = ""
	}
	c.hides.Do(string(f), func() { c.hidePalette(f) })
	if c.opts.CommitTrigger == config.CommitBlurOrEnter && c.states[f] == Editing {
		return c.commitLocked(f), nil
	}
	return nil, nil
}

func (c *Controller) hidePalette(f query.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.focused == f || !c.palette[f] {
		return
	}
	c.palette[f] = false
	c.emitLocked(Event{Kind: EventPalette})
}

// PickChar appends ch from the palette to the text input of f, refocuses
// the input and commits the new value immediately.
func (c *Controller) PickChar(f query.Field, ch string) (*url.URL, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFieldLocked(f, page.TextInput); err != nil {
		return nil, err
	}
	if !c.inPalette(ch) {
		return nil, fmt.Errorf("%q is not in the palette", ch)
	}
	c.doc.SetValue(f, c.doc.Value(f)+ch)
	c.focusLocked(f)
	c.commits.Cancel(string(f))
	return c.commitLocked(f), nil
}

func (c *Controller) inPalette(ch string) bool {
	for _, p := range c.opts.Palette {
		if p == ch {
			return true
		}
	}
	return false
}

// PaletteVisible reports whether the palette of f is shown.
func (c *Controller) PaletteVisible(f query.Field) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.palette[f]
}

// Focused returns the field whose input has focus, or "".
func (c *Controller) Focused() query.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}
