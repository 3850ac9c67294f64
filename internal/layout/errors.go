package layout

import "fmt"

// LayoutError reports an invalid or unresolvable widget position.
type LayoutError struct {
	Widget string
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout: widget %s: %s", e.Widget, e.Reason)
}
