package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		name  string
		i     int
		delta int
		n     int
		want  int
	}{
		{"forward", 0, 1, 5, 1},
		{"forward wraps", 4, 1, 5, 0},
		{"backward", 2, -1, 5, 1},
		{"backward wraps", 0, -1, 5, 4},
		{"large negative delta", 1, -7, 5, 4},
		{"large positive delta", 3, 12, 5, 0},
		{"single item", 0, 1, 1, 0},
		{"empty ring", 0, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapIndex(tt.i, tt.delta, tt.n))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(3, 0, 10))
	assert.Equal(t, 0, Clamp(-2, 0, 10))
	assert.Equal(t, 10, Clamp(99, 0, 10))
	assert.Equal(t, 2, Clamp(5, 2, 1)) // inverted bounds collapse to lo
}

func TestMoveFocusClampsAtEdges(t *testing.T) {
	assert.Equal(t, 0, MoveFocus(0, -1, 5))
	assert.Equal(t, 4, MoveFocus(4, 1, 5))
	assert.Equal(t, 2, MoveFocus(0, 2, 5))
	assert.Equal(t, 0, MoveFocus(3, -1, 0))
}

func TestGridColumns(t *testing.T) {
	assert.Equal(t, 4, GridColumns(100, 25))
	assert.Equal(t, 1, GridColumns(10, 25))
	assert.Equal(t, 1, GridColumns(80, 0))
}

func TestScrollOffset(t *testing.T) {
	// Focus above the window scrolls up to it.
	assert.Equal(t, 2, ScrollOffset(5, 2, 20, 10))
	// Focus below the window scrolls down just enough.
	assert.Equal(t, 6, ScrollOffset(0, 15, 20, 10))
	// Focus inside the window leaves the offset alone.
	assert.Equal(t, 3, ScrollOffset(3, 7, 20, 10))
	// Offset never exceeds rows-height.
	assert.Equal(t, 10, ScrollOffset(15, 19, 20, 10))
	// Everything fits.
	assert.Equal(t, 0, ScrollOffset(4, 1, 5, 10))
}
