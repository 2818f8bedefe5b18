// Package effector injects cursor, click, scroll and key events into the
// desktop and decouples that work from the frame loop.
package effector

// Effector performs physical input actions. Implementations may block.
type Effector interface {
	MoveCursor(x, y int) error
	Click() error
	Scroll(delta int) error
	DispatchKey(key string) error
}

// Point is an absolute screen position in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ActionKind identifies a discrete action.
type ActionKind string

const (
	ActionClick  ActionKind = "click"
	ActionScroll ActionKind = "scroll"
	ActionKey    ActionKind = "key"
)

// Action is a discrete input action.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Delta int        `json:"delta,omitempty"` // scroll amount, positive is up
	Key   string     `json:"key,omitempty"`
}

// Command is the work produced by one frame: an optional cursor move followed
// by discrete actions in order.
type Command struct {
	Move    *Point
	Actions []Action
}

// Empty reports whether the command has nothing to do.
func (c Command) Empty() bool {
	return c.Move == nil && len(c.Actions) == 0
}

// Click returns a click action.
func Click() Action { return Action{Kind: ActionClick} }

// Scroll returns a scroll action.
func Scroll(delta int) Action { return Action{Kind: ActionScroll, Delta: delta} }

// Key returns a key action.
func Key(key string) Action { return Action{Kind: ActionKey, Key: key} }

// apply performs a on e.
func apply(e Effector, a Action) error {
	switch a.Kind {
	case ActionClick:
		return e.Click()
	case ActionScroll:
		return e.Scroll(a.Delta)
	case ActionKey:
		return e.DispatchKey(a.Key)
	default:
		return ErrUnknownAction
	}
}
