package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/book-expert/xtts-service/internal/engine"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"asterisks and breaks and quotes", "*hi*\n\"there\"", "hi'there'"},
		{"plain text untouched", "hello world", "hello world"},
		{"carriage returns stripped", "one\r\ntwo", "onetwo"},
		{"quoted span rewritten", `she said "hello" twice`, "she said 'hello' twice"},
		{"padded quotes trimmed", `" hello "`, "'hello'"},
		{"multiple spans rewritten", `"a" and "b"`, "'a' and 'b'"},
		{"empty input", "", ""},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, engine.CleanText(testCase.input))
		})
	}
}
