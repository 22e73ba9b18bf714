package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberText_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want NumberText
	}{
		{`{"duration":60}`, "60"},
		{`{"duration":"90"}`, "90"},
		{`{"duration":"abc"}`, "abc"},
		{`{"duration":null}`, ""},
		{`{}`, ""},
		{`{"duration":true}`, "true"},
		{`{"duration":[1]}`, "[1]"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var req BookingRequest
			require.NoError(t, json.Unmarshal([]byte(tc.in), &req))
			assert.Equal(t, tc.want, req.Duration)
		})
	}
}
