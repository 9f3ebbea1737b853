package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidClockTime(t *testing.T) {
	// 排期解析只认 HH:MM:SS，坏值不能落库
	assert.True(t, validClockTime("19:30:00"))
	assert.True(t, validClockTime("00:00:00"))
	assert.True(t, validClockTime(""), "empty means disabled")

	assert.False(t, validClockTime("19:30"))
	assert.False(t, validClockTime("7pm"))
	assert.False(t, validClockTime("25:00:00"))
	assert.False(t, validClockTime("19:30:00:00"))
}
