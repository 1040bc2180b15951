package models

import (
	"fmt"
	"time"
)

var SupportedPlaybackSpeeds = []float64{1, 2, 5, 10, 30, 60, 120, 300, 600}

type ClockReading struct {
	RealNow time.Time     `json:"real_now"`
	MockNow time.Time     `json:"mock_now"`
	Offset  time.Duration `json:"offset"`
	Speed   float64       `json:"speed"`
}

// VirtualClock maps wall time onto mock time:
//
//	mock_now = mockAnchor + (real_now - realAnchor) * speed
//
// The anchors move on every speed change so mock time never jumps.
type VirtualClock struct {
	hours           *MarketHours
	supportedSpeeds []float64
	now             func() time.Time

	realAnchor  time.Time
	mockAnchor  time.Time
	windowStart time.Time
	speed       float64
	initialized bool
}

func NewVirtualClock(hours *MarketHours, supportedSpeeds []float64, nowFn func() time.Time) *VirtualClock {
	if nowFn == nil {
		nowFn = time.Now
	}

	if len(supportedSpeeds) == 0 {
		supportedSpeeds = SupportedPlaybackSpeeds
	}

	return &VirtualClock{
		hours:           hours,
		supportedSpeeds: supportedSpeeds,
		now:             nowFn,
	}
}

func (c *VirtualClock) IsSupportedSpeed(speed float64) bool {
	for _, s := range c.supportedSpeeds {
		if s == speed {
			return true
		}
	}

	return false
}

func (c *VirtualClock) SupportedSpeeds() []float64 {
	return append([]float64(nil), c.supportedSpeeds...)
}

// Initialize anchors mock time at the session open lookbackDays before
// anchorRealTime, rolled back past weekends.
func (c *VirtualClock) Initialize(anchorRealTime time.Time, lookbackDays int, speed float64) error {
	if !c.IsSupportedSpeed(speed) {
		return fmt.Errorf("Initialize: %w: %v", ErrUnsupportedPlaybackSpeed, speed)
	}

	start := anchorRealTime.In(c.hours.Location).AddDate(0, 0, -lookbackDays)
	for !c.hours.IsTradingDay(start) {
		start = start.AddDate(0, 0, -1)
	}

	c.windowStart = c.hours.SessionOpen(start)
	c.mockAnchor = c.windowStart
	c.realAnchor = anchorRealTime
	c.speed = speed
	c.initialized = true

	return nil
}

func (c *VirtualClock) IsInitialized() bool {
	return c != nil && c.initialized
}

func (c *VirtualClock) mustBeInitialized() {
	if !c.IsInitialized() {
		panic("VirtualClock: used before Initialize")
	}
}

func (c *VirtualClock) mockTimeAt(realNow time.Time) time.Time {
	elapsed := realNow.Sub(c.realAnchor)
	return c.mockAnchor.Add(time.Duration(float64(elapsed) * c.speed))
}

func (c *VirtualClock) CurrentMockTime() time.Time {
	c.mustBeInitialized()
	return c.mockTimeAt(c.now())
}

// SetSpeed re-anchors the clock at the current mock time before applying the
// new multiplier.
func (c *VirtualClock) SetSpeed(speed float64) error {
	c.mustBeInitialized()

	if !c.IsSupportedSpeed(speed) {
		return fmt.Errorf("SetSpeed: %w: %v (supported: %v)", ErrUnsupportedPlaybackSpeed, speed, c.supportedSpeeds)
	}

	realNow := c.now()
	c.mockAnchor = c.mockTimeAt(realNow)
	c.realAnchor = realNow
	c.speed = speed

	return nil
}

func (c *VirtualClock) Now() ClockReading {
	c.mustBeInitialized()

	realNow := c.now()
	mockNow := c.mockTimeAt(realNow)

	return ClockReading{
		RealNow: realNow,
		MockNow: mockNow,
		Offset:  mockNow.Sub(realNow),
		Speed:   c.speed,
	}
}

func (c *VirtualClock) Speed() float64 {
	return c.speed
}

func (c *VirtualClock) WindowStart() time.Time {
	c.mustBeInitialized()
	return c.windowStart
}

func (c *VirtualClock) Hours() *MarketHours {
	return c.hours
}
