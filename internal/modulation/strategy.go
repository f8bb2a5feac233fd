package modulation

import (
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/trajectory"
)

// Values holds one cycle's derived outputs. It is a fixed-size value so the
// engine can reuse a single instance without allocating.
type Values struct {
	v          [NumChannels]float64
	set        [NumChannels]bool
	readout    float64
	hasReadout bool
}

func (v *Values) Reset() {
	*v = Values{}
}

func (v *Values) Set(ch Channel, value float64) {
	if !ch.Valid() {
		return
	}
	v.v[ch] = value
	v.set[ch] = true
}

// Get returns the value derived for ch this cycle, if any.
func (v *Values) Get(ch Channel) (float64, bool) {
	if !ch.Valid() {
		return 0, false
	}
	return v.v[ch], v.set[ch]
}

// SetReadout stores the display-only modulation value sent as telemetry.
func (v *Values) SetReadout(value float64) {
	v.readout = value
	v.hasReadout = true
}

func (v *Values) Readout() (float64, bool) {
	return v.readout, v.hasReadout
}

// Strategy maps a trajectory sample onto modulation channels.
type Strategy interface {
	Kind() Kind
	// Channels lists the channels Derive fills. The first entry is the
	// default channel for routing directives that name none.
	Channels() []Channel
	Derive(p trajectory.Point, in params.Inputs, out *Values)
}

// New returns the strategy for kind. Canvas is only used by QuadCorner.
func New(kind Kind, canvas Canvas) (Strategy, error) {
	switch kind {
	case SingleAxis:
		return singleAxis{}, nil
	case PositionOffset:
		return positionOffset{}, nil
	case QuadCorner:
		return quadCorner{canvas: canvas.orDefault()}, nil
	}
	return nil, ErrUnknownStrategy
}

var (
	singleChannels   = []Channel{Main}
	positionChannels = []Channel{AxisX, AxisY}
	quadChannels     = []Channel{TopLeft, TopRight, BottomLeft, BottomRight}
)

type singleAxis struct{}

func (singleAxis) Kind() Kind          { return SingleAxis }
func (singleAxis) Channels() []Channel { return singleChannels }

func (singleAxis) Derive(p trajectory.Point, in params.Inputs, out *Values) {
	mod := in.AmpX * p.X
	out.Set(Main, in.CenterValue+mod)
	out.SetReadout(mod)
}

// positionOffset routes the externally driven pad position. The trajectory
// only feeds the readout.
type positionOffset struct{}

func (positionOffset) Kind() Kind          { return PositionOffset }
func (positionOffset) Channels() []Channel { return positionChannels }

func (positionOffset) Derive(p trajectory.Point, in params.Inputs, out *Values) {
	out.Set(AxisX, in.PositionX)
	out.Set(AxisY, in.PositionY)
	out.SetReadout(in.AmpX*p.X + in.AmpY*p.Y)
}

type quadCorner struct {
	canvas Canvas
}

func (quadCorner) Kind() Kind          { return QuadCorner }
func (quadCorner) Channels() []Channel { return quadChannels }

func (q quadCorner) Derive(p trajectory.Point, in params.Inputs, out *Values) {
	normX, normY := q.canvas.Normalize(p, in.AmpX, in.AmpY)
	w := CornerWeights(normX, normY)
	out.Set(TopLeft, w.TopLeft)
	out.Set(TopRight, w.TopRight)
	out.Set(BottomLeft, w.BottomLeft)
	out.Set(BottomRight, w.BottomRight)
}

// Weights are the four corner blend amounts. They sum to 2: each axis
// spreads its full [0,1] range over two opposite corners.
type Weights struct {
	TopLeft, TopRight, BottomLeft, BottomRight float64
}

func (w Weights) Sum() float64 {
	return w.TopLeft + w.TopRight + w.BottomLeft + w.BottomRight
}

func CornerWeights(normX, normY float64) Weights {
	return Weights{
		TopLeft:     ((1 - normX) + (1 - normY)) / 2,
		TopRight:    (normX + (1 - normY)) / 2,
		BottomLeft:  ((1 - normX) + normY) / 2,
		BottomRight: (normX + normY) / 2,
	}
}
