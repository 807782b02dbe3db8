// Package clip copies text to the system clipboard.
package clip

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// System writes to the operating system clipboard.
type System struct{}

// WriteText copies text to the clipboard. It fails when no clipboard utility is available.
func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}
