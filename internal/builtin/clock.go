package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/mattjoyce/mosaic/internal/widget"
)

// Clock renders the current time, optionally with the date below it.
type Clock struct {
	widget.Base

	format   string
	dateFmt  string
	showDate bool
	zone     *time.Location

	now func() time.Time // injectable for tests
}

// NewClock builds a clock widget. Options: format and date_format (Go
// time layouts), show_date (bool), zone (IANA name, default local).
func NewClock(wctx widget.Context) (any, error) {
	c := &Clock{
		Base:     widget.Base{Ctx: wctx},
		format:   optString(wctx.Options, "format", "15:04:05"),
		dateFmt:  optString(wctx.Options, "date_format", "Mon Jan 2 2006"),
		showDate: optBool(wctx.Options, "show_date", false),
		zone:     time.Local,
		now:      time.Now,
	}

	if name := optString(wctx.Options, "zone", ""); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid zone %q: %w", name, err)
		}
		c.zone = loc
	}

	return c, nil
}

func (c *Clock) Render(ctx context.Context) (string, error) {
	t := c.now().In(c.zone)
	if c.showDate {
		return t.Format(c.format) + "\n" + t.Format(c.dateFmt), nil
	}
	return t.Format(c.format), nil
}
