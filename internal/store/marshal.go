package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ttverify/internal/latency"
	"github.com/roach88/ttverify/internal/model"
)

// marshalTokens converts a cell's tokens to canonical JSON TEXT, e.g.
// ["release","executing"].
func marshalTokens(tokens []latency.Token) (string, error) {
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = tok.String()
	}
	data, err := model.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal tokens: %w", err)
	}
	return string(data), nil
}

// unmarshalTokens parses canonical JSON TEXT back to tokens.
func unmarshalTokens(data string) ([]latency.Token, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	tokens := make([]latency.Token, len(names))
	for i, name := range names {
		tok, err := latency.ParseToken(name)
		if err != nil {
			return nil, fmt.Errorf("unmarshal tokens: %w", err)
		}
		tokens[i] = tok
	}
	return tokens, nil
}
