package pipeline

import "testing"

func TestNextBatchSize(t *testing.T) {
	cases := []struct {
		bufferLen, configured, want int
	}{
		{10, 5, 5},
		{3, 5, 3},
		{3, 0, 3},
		{3, -1, 3},
		{0, 5, 0},
	}
	for _, tc := range cases {
		if got := nextBatchSize(tc.bufferLen, tc.configured); got != tc.want {
			t.Errorf("nextBatchSize(%d, %d) = %d, want %d", tc.bufferLen, tc.configured, got, tc.want)
		}
	}
}
