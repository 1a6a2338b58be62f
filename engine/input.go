package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-plot/engine/window"
)

// gesture is the input accumulated between two ticks.
type gesture struct {
	// x, y is where the gesture started, in top-left origin pixels.
	x, y int

	orbitX, orbitY float32
	panX, panY     float32
	zoom           float32

	resized       bool
	width, height int
}

func (g gesture) hasGesture() bool {
	return g.orbitX != 0 || g.orbitY != 0 || g.panX != 0 || g.panY != 0 || g.zoom != 0
}

// input collects window callbacks. Callbacks run on the window goroutine and only touch
// this state; the tick loop takes it and applies it under the registry lock.
type input struct {
	mu sync.Mutex

	pressed  bool
	button   window.MouseButton
	lastX    int32
	lastY    int32
	pending  gesture
	dirty    bool
	surfaceW int
	surfaceH int
}

// button starts a drag on press and ends it on release. Left drags orbit; right and middle drags pan.
func (in *input) button(b window.MouseButton, pressed bool, x, y int32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if pressed {
		if in.pressed {
			return
		}
		in.pressed, in.button = true, b
		in.lastX, in.lastY = x, y
		if !in.pending.hasGesture() {
			in.pending.x, in.pending.y = int(x), int(y)
		}
		return
	}
	if b == in.button {
		in.pressed = false
	}
}

func (in *input) move(x, y int32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.pressed {
		return
	}
	dx, dy := float32(x-in.lastX), float32(y-in.lastY)
	in.lastX, in.lastY = x, y
	if in.button == window.MouseButtonLeft {
		in.pending.orbitX += dx
		in.pending.orbitY += dy
	} else {
		in.pending.panX += dx
		in.pending.panY += dy
	}
	in.dirty = true
}

func (in *input) scroll(x, y int32, delta float32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.pending.hasGesture() && !in.pressed {
		in.pending.x, in.pending.y = int(x), int(y)
	}
	in.pending.zoom += delta
	in.dirty = true
}

func (in *input) resize(width, height int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.surfaceW, in.surfaceH = width, height
	in.pending.resized = true
	in.dirty = true
}

// take returns the pending gesture and resets it. The drag anchor moves to the cursor so
// a continuing drag keeps hitting the scene it started in.
func (in *input) take() (gesture, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.dirty {
		return gesture{}, false
	}
	g := in.pending
	g.width, g.height = in.surfaceW, in.surfaceH
	in.pending = gesture{x: g.x, y: g.y}
	in.dirty = false
	return g, true
}
