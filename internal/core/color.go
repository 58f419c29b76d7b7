package core

// Color is the drawing role of a screen cell. The platform decides the
// actual terminal color for each role.
type Color uint8

const (
	ColorDefault Color = iota
	ColorPipe          // Pipe body
	ColorPipeCap       // Pipe lip facing the gap
	ColorBird          // Bird body and beak
	ColorGround        // Floor line
	ColorHUD           // Current score
	ColorBest          // Best score
	ColorFrame         // Idle prompt border
	ColorPrompt        // Idle prompt call to action
)
