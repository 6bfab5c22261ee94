package sprite

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAnchor indicates an anchor code outside 0-8.
var ErrInvalidAnchor = errors.New("anchor must be an integer from 0 to 8")

// Anchor selects a costume's rotation center on a 3x3 grid. Zero is the
// center; 1-8 walk clockwise from the top-left corner.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorTopLeft
	AnchorTopMiddle
	AnchorTopRight
	AnchorMiddleRight
	AnchorBottomRight
	AnchorBottomMiddle
	AnchorBottomLeft
	AnchorMiddleLeft
)

var anchorNames = [...]string{
	"center",
	"top-left",
	"top-middle",
	"top-right",
	"middle-right",
	"bottom-right",
	"bottom-middle",
	"bottom-left",
	"middle-left",
}

// Valid reports whether a is one of the nine grid positions.
func (a Anchor) Valid() bool {
	return a >= AnchorCenter && a <= AnchorMiddleLeft
}

func (a Anchor) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// ParseAnchor accepts a grid number ("0".."8") or a position name
// ("top-left", "center", ...).
func ParseAnchor(value string) (Anchor, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(trimmed); err == nil {
		a := Anchor(n)
		if !a.Valid() {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidAnchor, n)
		}
		return a, nil
	}
	for i, name := range anchorNames {
		if name == trimmed {
			return Anchor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: got %q", ErrInvalidAnchor, value)
}

// RotationCenter returns the rotation center for a width x height frame.
// Midpoints use floor division.
func (a Anchor) RotationCenter(width, height int) (x, y int, err error) {
	switch a {
	case AnchorTopLeft, AnchorBottomLeft, AnchorMiddleLeft:
		x = 0
	case AnchorCenter, AnchorTopMiddle, AnchorBottomMiddle:
		x = width / 2
	case AnchorTopRight, AnchorMiddleRight, AnchorBottomRight:
		x = width
	default:
		return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidAnchor, int(a))
	}
	switch a {
	case AnchorTopLeft, AnchorTopMiddle, AnchorTopRight:
		y = 0
	case AnchorCenter, AnchorMiddleRight, AnchorMiddleLeft:
		y = height / 2
	case AnchorBottomRight, AnchorBottomMiddle, AnchorBottomLeft:
		y = height
	}
	return x, y, nil
}
