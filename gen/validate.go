package gen

import (
	"errors"
	"regexp"
	"strings"
)

// Validator checks a complete code response before it is accepted.
type Validator interface {
	Validate(code string) error
}

// StructuralValidator applies cheap structural checks: the response must
// contain a component declaration, a default export and balanced brackets.
// It is not a parser; it exists to catch truncated or conversational
// responses before they reach the client.
type StructuralValidator struct{}

var componentRe = regexp.MustCompile(`(\bfunction\b|\bconst\b)\s+\w+`)

func (StructuralValidator) Validate(code string) error {
	if strings.TrimSpace(code) == "" {
		return errors.New("empty code response")
	}
	if !componentRe.MatchString(code) {
		return errors.New("invalid component structure")
	}
	if !strings.Contains(code, "export default") {
		return errors.New("missing export default statement")
	}

	pairs := map[rune]rune{'(': ')', '{': '}', '[': ']'}
	var stack []rune
	for _, c := range code {
		switch c {
		case '(', '{', '[':
			stack = append(stack, c)
		case ')', '}', ']':
			if len(stack) == 0 || pairs[stack[len(stack)-1]] != c {
				return errors.New("mismatched brackets or parentheses")
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return errors.New("unclosed brackets or parentheses")
	}
	return nil
}
