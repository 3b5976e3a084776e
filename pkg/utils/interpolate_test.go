package utils

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// TestLerp 测试线性插值
func TestLerp(t *testing.T) {
	tests := []struct {
		name     string
		a, b, t  float32
		expected float32
	}{
		{"起点", 2, 10, 0, 2},
		{"中点", 2, 10, 0.5, 6},
		{"终点", 2, 10, 1, 10},
		{"递减", 10, 0, 0.25, 7.5},
		{"相同值", 3, 3, 0.7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Lerp(tt.a, tt.b, tt.t), 1e-6)
		})
	}
}

// TestLerpVec4 测试颜色插值
func TestLerpVec4(t *testing.T) {
	start := mgl32.Vec4{1, 0, 0, 1}
	end := mgl32.Vec4{0, 0, 1, 0}

	assert.Equal(t, start, LerpVec4(start, end, 0))
	assert.Equal(t, end, LerpVec4(start, end, 1))
	assert.True(t, LerpVec4(start, end, 0.5).ApproxEqual(mgl32.Vec4{0.5, 0, 0.5, 0.5}))
}
