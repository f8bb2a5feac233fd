package modulation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownChannel  = errors.New("modulation: unknown channel")
	ErrUnknownStrategy = errors.New("modulation: unknown strategy")
)

// Channel identifies one independently routable modulation output.
type Channel uint8

const (
	Main Channel = iota
	AxisX
	AxisY
	TopLeft
	TopRight
	BottomLeft
	BottomRight

	NumChannels = int(BottomRight) + 1
)

var channelNames = [NumChannels]string{
	Main:        "main",
	AxisX:       "x",
	AxisY:       "y",
	TopLeft:     "top_left",
	TopRight:    "top_right",
	BottomLeft:  "bottom_left",
	BottomRight: "bottom_right",
}

func (c Channel) String() string {
	if c.Valid() {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

func (c Channel) Valid() bool {
	return int(c) < NumChannels
}

// ParseChannel accepts the snake_case names used in config files as well as
// the CamelCase corner names.
func ParseChannel(s string) (Channel, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch key {
	case "topleft":
		key = "top_left"
	case "topright":
		key = "top_right"
	case "bottomleft":
		key = "bottom_left"
	case "bottomright":
		key = "bottom_right"
	case "", "single":
		key = "main"
	}
	for i, name := range channelNames {
		if name == key {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// Kind selects the derivation strategy.
type Kind uint8

const (
	SingleAxis Kind = iota
	PositionOffset
	QuadCorner
)

func (k Kind) String() string {
	switch k {
	case SingleAxis:
		return "single"
	case PositionOffset:
		return "xy"
	case QuadCorner:
		return "quad"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single_axis", "singleaxis":
		return SingleAxis, nil
	case "xy", "position", "position_offset", "positionoffset":
		return PositionOffset, nil
	case "quad", "quad_corner", "quadcorner", "corners":
		return QuadCorner, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}
