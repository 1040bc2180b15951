package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

// 2024-01-08 is a Monday; January avoids the DST switch.
func nyTime(t *testing.T, day, hour, minute int) time.Time {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	return time.Date(2024, time.January, day, hour, minute, 0, 0, loc)
}

type fakeWallClock struct {
	now time.Time
}

func (c *fakeWallClock) Now() time.Time {
	return c.now
}

func (c *fakeWallClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newFakeWallClock(now time.Time) *fakeWallClock {
	return &fakeWallClock{now: now}
}

func placeAndCommit(t *testing.T, lifecycle *models.OrderLifecycle, req models.OrderRequest, at time.Time) *models.Order {
	placed := lifecycle.PlaceOrder(req, at)
	require.False(t, placed.IsRejected(), placed.Message)

	committed := lifecycle.CommitOrder(placed.Order.ID, at)
	require.False(t, committed.IsRejected(), committed.Message)

	return committed.Order
}
