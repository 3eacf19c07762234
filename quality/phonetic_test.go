package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaphone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"smith", "SM0"},
		{"smyth", "SM0"},
		{"Smith", "SM0"},
		{"knight", "NT"},
		{"night", "NT"},
		{"phone", "FN"},
		{"acme corp", "AKM KRP"},
		{"123", "123"},
		{"suite 400", "ST 400"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			code, err := Metaphone(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, code)
		})
	}
}

func TestMetaphoneRejectsUnsupportedCharacters(t *testing.T) {
	for _, input := range []string{"café", "acme, inc", "o'neil", "ромашка"} {
		_, err := Metaphone(input)
		assert.Error(t, err, input)
	}
}

func TestPhoneticScoreKeepsDigitsAndEveryWord(t *testing.T) {
	fm := NewFuzzyMatcher()

	code, err := Metaphone("acme corporation")
	require.NoError(t, err)
	assert.Equal(t, "AKM KRPRXN", code)

	// номера домов различаются только цифрами
	assert.Equal(t, 92, fm.phoneticScore("suite 400", "suite 500"))
	// коды не обрезаются до первых букв строки
	assert.Less(t, fm.phoneticScore("acme corporation", "acme corp"), 100)
	assert.Equal(t, 100, fm.phoneticScore("acme corporation", "acme corporation"))
}
