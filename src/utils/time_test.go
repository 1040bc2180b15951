package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetMinMaxTime(t *testing.T) {
	a := time.Date(2024, time.January, 8, 9, 30, 0, 0, time.UTC)
	b := a.Add(time.Minute)

	assert.Equal(t, a, GetMinTime(a, b))
	assert.Equal(t, a, GetMinTime(b, a))
	assert.Equal(t, b, GetMaxTime(a, b))
	assert.Equal(t, b, GetMaxTime(b, a))
	assert.Equal(t, a, GetMaxTime(a, a))
}
