package builtin

import (
	"context"

	"github.com/mattjoyce/mosaic/internal/widget"
)

// Text renders fixed content from options. Useful for labels, banners
// and smoke tests.
type Text struct {
	widget.Base

	content string
}

// NewText builds a text widget. Options: content (string).
func NewText(wctx widget.Context) (any, error) {
	return &Text{
		Base:    widget.Base{Ctx: wctx},
		content: optString(wctx.Options, "content", ""),
	}, nil
}

func (t *Text) Render(ctx context.Context) (string, error) {
	return t.content, nil
}
