package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestJoinTextRuns(t *testing.T) {
	tests := []struct {
		name string
		runs []pdf.Text
		want string
	}{
		{
			name: "empty page",
			runs: nil,
			want: "",
		},
		{
			name: "same line concatenated without separator",
			runs: []pdf.Text{
				{S: "Hello", Y: 100},
				{S: "World", Y: 100},
			},
			want: "HelloWorld",
		},
		{
			name: "different y inserts newline",
			runs: []pdf.Text{
				{S: "Hello", Y: 100},
				{S: "World", Y: 90},
			},
			want: "Hello\nWorld",
		},
		{
			name: "any difference counts, even sub-point",
			runs: []pdf.Text{
				{S: "a", Y: 100},
				{S: "b", Y: 100.01},
				{S: "c", Y: 100.01},
			},
			want: "a\nbc",
		},
		{
			name: "alternating lines",
			runs: []pdf.Text{
				{S: "one", Y: 700},
				{S: " two", Y: 700},
				{S: "three", Y: 680},
				{S: "four", Y: 660},
			},
			want: "one two\nthree\nfour",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := joinTextRuns(tt.runs)
			if got != tt.want {
				t.Errorf("joinTextRuns() = %q, want %q", got, tt.want)
			}
		})
	}
}
