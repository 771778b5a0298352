package render

import "github.com/go-vgo/robotgo"

// ScreenSize returns the size of the main display, used as the canvas size
// when none is configured and when the window goes fullscreen.
func ScreenSize() (width, height int) {
	return robotgo.GetScreenSize()
}
