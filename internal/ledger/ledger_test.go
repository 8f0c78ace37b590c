package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name         string
		inputLength  int
		outputLength int
		expected     int
	}{
		{
			name:         "reference case",
			inputLength:  100,
			outputLength: 400,
			expected:     23, // ceil(25*0.1 + 100*0.2)
		},
		{
			name:         "short generation",
			inputLength:  40,
			outputLength: 200,
			expected:     11, // ceil(10*0.1 + 50*0.2)
		},
		{
			name:         "empty input and output",
			inputLength:  0,
			outputLength: 0,
			expected:     0,
		},
		{
			name:         "single character each side",
			inputLength:  1,
			outputLength: 1,
			expected:     1, // ceil(1*0.1 + 1*0.2) = ceil(0.3)
		},
		{
			name:         "rounding happens per side before pricing",
			inputLength:  5,
			outputLength: 5,
			expected:     1, // ceil(5/4)=2 each, ceil(0.2+0.4)=1
		},
		{
			name:         "output weighs double",
			inputLength:  0,
			outputLength: 4000,
			expected:     200,
		},
		{
			name:         "input only",
			inputLength:  4000,
			outputLength: 0,
			expected:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateCost(tt.inputLength, tt.outputLength))
		})
	}
}
