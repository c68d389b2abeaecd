// Package feedback defines the qualitative observations emitted per frame.
package feedback

import "strings"

// Polarity tells whether an observation praises or corrects the movement.
type Polarity string

// Polarities.
const (
	Positive Polarity = "positive"
	Warning  Polarity = "warning"
)

const (
	positiveMark = "✓"
	warningMark  = "⚠"
)

// Token is one observation. Two tokens with the same message are the same
// feedback event for counting and ranking purposes.
type Token struct {
	Polarity Polarity `json:"polarity"`
	Message  string   `json:"message"`
}

// Good builds a positive token.
func Good(msg string) Token { return Token{Polarity: Positive, Message: msg} }

// Warn builds a warning token.
func Warn(msg string) Token { return Token{Polarity: Warning, Message: msg} }

// String renders the token with its polarity mark, e.g. "✓ Good knee tracking".
func (t Token) String() string {
	mark := positiveMark
	if t.Polarity == Warning {
		mark = warningMark
	}
	return mark + " " + t.Message
}

// Parse is the inverse of String.
func Parse(s string) (Token, bool) {
	switch {
	case strings.HasPrefix(s, positiveMark+" "):
		return Good(strings.TrimPrefix(s, positiveMark+" ")), true
	case strings.HasPrefix(s, warningMark+" "):
		return Warn(strings.TrimPrefix(s, warningMark+" ")), true
	}
	return Token{}, false
}

// Frame is the feedback emitted for a single video frame.
type Frame struct {
	Index  int     `json:"frame_index"`
	Tokens []Token `json:"tokens"`
}

// Stream is the ordered per-frame feedback of a session.
type Stream []Frame

// Tokens flattens the stream in frame order.
func (s Stream) Tokens() []Token {
	n := 0
	for _, f := range s {
		n += len(f.Tokens)
	}
	out := make([]Token, 0, n)
	for _, f := range s {
		out = append(out, f.Tokens...)
	}
	return out
}

// Unique drops repeated tokens, keeping polarity and message intact.
// Callers must not rely on the order of the result; it currently follows
// first occurrence but is not part of the contract.
func Unique(tokens []Token) []Token {
	seen := make(map[Token]struct{}, len(tokens))
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
