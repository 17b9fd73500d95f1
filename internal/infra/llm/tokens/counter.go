package tokens

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Counter estimates prompt sizes with the model's BPE encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter loads the encoding for model. When the encoding cannot be loaded (offline, unknown
// model) it returns a nil *Counter, which falls back to a length heuristic.
func NewCounter(model string, logger *slog.Logger) *Counter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		logger.Warn("token encoding unavailable, using heuristic", "model", model, "error", err)
		return nil
	}
	return &Counter{enc: enc}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}
