package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens with an OpenAI BPE encoding. It satisfies
// tokenizer.Counter.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer resolves name as a model first and as an encoding
// name second ("cl100k_base", "o200k_base").
func NewTiktokenTokenizer(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		// try by name
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// CountTokens returns the number of tokens text encodes to.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// Truncate cuts text to at most max tokens.
func (t *Tokenizer) Truncate(text string, max int) string {
	ids := t.Encode(text)
	if max <= 0 || len(ids) <= max {
		return text
	}
	return t.enc.Decode(ids[:max])
}
