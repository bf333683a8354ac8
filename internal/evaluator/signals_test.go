package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name    string
		answers []string
		want    Signals
	}{
		{
			name:    "positive only",
			answers: []string{"Great", "Felt proud at work"},
			want:    Signals{Positive: true},
		},
		{
			name:    "negative only",
			answers: []string{"Awful", "Felt hopeless"},
			want:    Signals{Negative: true},
		},
		{
			name:    "crisis implies negative",
			answers: []string{"I want to end my life"},
			want:    Signals{Crisis: true, Negative: true},
		},
		{
			name:    "sleep and social",
			answers: []string{"sleep was 6 hours", "talked with a colleague"},
			want:    Signals{Sleep: true, Social: true},
		},
		{
			name:    "coping",
			answers: []string{"meditation"},
			want:    Signals{Coping: true},
		},
		{
			name:    "nothing",
			answers: []string{"", "", ""},
			want:    Signals{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.answers))
		})
	}
}
