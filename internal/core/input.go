package core

// Action represents a semantic input, abstracted from physical key presses
// and mouse events.
type Action int

const (
	ActionNone       Action = iota
	ActionStart             // Pointer press, Enter - begin a run
	ActionJump              // Any other key - flap
	ActionScreenshot        // Ctrl+S - dump the screen buffer to a file
	ActionQuit              // Ctrl+C, Esc - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionStart:
		return "Start"
	case ActionJump:
		return "Jump"
	case ActionScreenshot:
		return "Screenshot"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
