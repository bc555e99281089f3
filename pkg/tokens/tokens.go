package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter measures text in model tokens.
type Counter interface {
	Count(text string) int
}

const encoding = "cl100k_base"

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding(encoding)
	})
	return tk, tkErr
}

// Tiktoken counts with the cl100k_base encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Approx assumes four bytes per token, rounding up.
type Approx struct{}

func (Approx) Count(text string) int {
	if text == "" {
		return 0
	}
	n := len(text)/4 + 1
	if runes := utf8.RuneCountInString(text); runes < len(text) && runes > n {
		// scripts with multi-byte runes tokenize closer to one rune per token
		return runes
	}
	return n
}

// New returns a tiktoken counter, or Approx when the encoding cannot be loaded
// (tiktoken fetches its BPE ranks on first use).
func New() (Counter, error) {
	enc, err := getTokenizer()
	if err != nil {
		return Approx{}, err
	}
	return &Tiktoken{enc: enc}, nil
}
