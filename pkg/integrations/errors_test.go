package integrations

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStatusErrorBody(t *testing.T) {
	prefix := "list integrations: expected status 200, got 500"

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no body", body: "", want: prefix},
		{name: "short body", body: "boom", want: prefix + ": boom"},
		{
			name: "body at limit",
			body: strings.Repeat("a", maxErrorBody),
			want: prefix + ": " + strings.Repeat("a", maxErrorBody),
		},
		{
			name: "ascii body truncated",
			body: strings.Repeat("a", maxErrorBody) + "tail",
			want: prefix + ": " + strings.Repeat("a", maxErrorBody) + "...",
		},
		{
			name: "two byte rune across limit",
			body: strings.Repeat("a", maxErrorBody-1) + "é" + "tail",
			want: prefix + ": " + strings.Repeat("a", maxErrorBody-1) + "...",
		},
		{
			name: "four byte rune across limit",
			body: strings.Repeat("a", maxErrorBody-2) + "😀" + "tail",
			want: prefix + ": " + strings.Repeat("a", maxErrorBody-2) + "...",
		},
		{
			name: "rune ending at limit",
			body: strings.Repeat("a", maxErrorBody-2) + "é" + "tail",
			want: prefix + ": " + strings.Repeat("a", maxErrorBody-2) + "é...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &StatusError{Op: "list integrations", Expected: 200, Actual: 500, Body: tt.body}
			got := err.Error()
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
