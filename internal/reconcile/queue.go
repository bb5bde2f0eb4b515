package reconcile

import (
	"fmt"

	"github.com/muurk/deckplane/internal/keys"
	"github.com/muurk/deckplane/internal/page"
)

// action is one retryable, idempotent unit of device-facing work. Actions
// are queued by the controller and drained by the tick; a failed action
// is re-enqueued verbatim, giving at-least-once delivery.
//
// execute is called without the controller lock held (gateway writes are
// blocking I/O); implementations read DesiredState through the snapshot
// helpers so a stale queue entry observes the current desired value.
type action interface {
	describe() string
	execute(c *Controller) error
}

// switchProfileAction asks the device to change to a captured profile
// name. The name is captured deliberately: profile history is a stack,
// not a last-write-wins register.
type switchProfileAction struct {
	profile string
}

func (a switchProfileAction) describe() string {
	return fmt.Sprintf("switch-profile(%s)", a.profile)
}

func (a switchProfileAction) execute(c *Controller) error {
	c.noteSwitchAttempt()
	return c.gw.SwitchProfile(a.profile)
}

// materializePageAction pushes the whole desired grid to the device. It
// captures nothing: the desired page is read when the action finally
// executes, so entries queued against a since-replaced page are harmless.
type materializePageAction struct{}

func (materializePageAction) describe() string {
	return "materialize-page"
}

func (materializePageAction) execute(c *Controller) error {
	p := c.snapshotDesiredPage()

	for row := 0; row < page.Rows; row++ {
		for col := 0; col < page.Cols; col++ {
			var binding *keys.Definition
			if p != nil {
				binding = p.Binding(page.Position{Row: row, Col: col})
			}
			if binding == nil {
				if err := c.gw.ClearKey(row, col); err != nil {
					return err
				}
				continue
			}
			if err := c.pushKey(row, col, binding.Title, binding.IconSpec); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshKeyAction pushes a single cell of the desired grid, used by the
// visuals-update path. Like materializePageAction it reads the current
// desired page at execution time.
type refreshKeyAction struct {
	pos page.Position
}

func (a refreshKeyAction) describe() string {
	return fmt.Sprintf("refresh-key(%d,%d)", a.pos.Row, a.pos.Col)
}

func (a refreshKeyAction) execute(c *Controller) error {
	p := c.snapshotDesiredPage()
	if p == nil {
		return nil
	}

	binding := p.Binding(a.pos)
	if binding == nil {
		return c.gw.ClearKey(a.pos.Row, a.pos.Col)
	}
	return c.pushKey(a.pos.Row, a.pos.Col, binding.Title, binding.IconSpec)
}
