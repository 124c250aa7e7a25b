package types

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	e31, _ := new(big.Int).SetString("1"+strings.Repeat("0", 31), 10)
	maxWord := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 8*WordLength), big.NewInt(1))

	tests := []struct {
		name   string
		value  []byte
		exp    *big.Int
		expErr bool
	}{
		{name: "decimal", value: []byte("12345"), exp: big.NewInt(12345)},
		{name: "word", value: EncodeWord(big.NewInt(77)), exp: big.NewInt(77)},
		{name: "32 digit decimal", value: []byte("1" + strings.Repeat("0", 31)), exp: e31},
		{name: "max decimal", value: []byte(maxWord.String()), exp: maxWord},
		{name: "max word", value: EncodeWord(maxWord), exp: maxWord},
		{name: "decimal wider than a word", value: []byte("1" + strings.Repeat("0", 80)), expErr: true},
		{name: "decimal one past max", value: []byte(new(big.Int).Add(maxWord, big.NewInt(1)).String()), expErr: true},
		{name: "short binary", value: []byte{0x00, 0x01}, expErr: true},
		{name: "empty", value: nil, expErr: true},
		{name: "negative", value: []byte("-1"), expErr: true},
		{name: "fraction", value: []byte("1.5"), expErr: true},
		{name: "text", value: []byte("1,000,000.00"), expErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := ParseNumeric(tc.value)
			if tc.expErr {
				require.ErrorIs(t, err, ErrInvalidSubmission)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 0, tc.exp.Cmp(n), "got %s", n)
		})
	}
}

func TestEncodeWord(t *testing.T) {
	word := EncodeWord(big.NewInt(256))
	require.Len(t, word, WordLength)
	require.Equal(t, byte(1), word[WordLength-2])
	require.Equal(t, byte(0), word[WordLength-1])
}
