package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 24},
		{"ABC", 36},
		{"123", 27},
		{"a b", 21},
		{"a-b", 22},
		{"中文", 36},
		{"ＡＢ", 36},
		{"é", 12},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateWidth(tt.in))
		})
	}
}

func TestEstimateWidthFavoursWideScripts(t *testing.T) {
	assert.Greater(t, EstimateWidth("标题标题"), EstimateWidth("abcd"))
}
