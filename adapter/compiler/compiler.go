// Package compiler contains the [domain.CodeCompiler] implementations. The
// deny compiler is the default everywhere; the JavaScript compiler must be
// chosen explicitly.
package compiler

import (
	"net/url"
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// Deny implements [domain.CodeCompiler] by refusing every source.
type Deny struct{}

// NewDeny returns a [domain.CodeCompiler] that never compiles anything.
func NewDeny() domain.CodeCompiler {
	return Deny{}
}

// Compile implements [domain.CodeCompiler]. It always returns
// [domain.ErrCodeExecutionDisabled].
func (Deny) Compile(string) (any, error) {
	return nil, domain.ErrCodeExecutionDisabled
}

// JavaScript implements [domain.CodeCompiler] for stores that evaluate
// JavaScript themselves. The source is only checked and tagged as
// [domain.JavaScript]; nothing is run in this process.
type JavaScript struct {
	unescape bool
}

// NewJavaScript returns a [domain.CodeCompiler] producing
// [domain.JavaScript] values.
func NewJavaScript(options ...Option) domain.CodeCompiler {
	j := &JavaScript{}
	for _, option := range options {
		option(j)
	}
	return j
}

// Compile implements [domain.CodeCompiler].
func (j *JavaScript) Compile(source string) (any, error) {
	if j.unescape {
		decoded, err := url.PathUnescape(source)
		if err != nil {
			return nil, ErrInvalidSource{Source: source, Reason: err.Error()}
		}
		source = decoded
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrInvalidSource{Reason: "source is empty"}
	}
	if !balanced(source) {
		return nil, ErrInvalidSource{Source: source, Reason: "unbalanced brackets"}
	}
	return domain.JavaScript(source), nil
}

// balanced reports whether the brackets of src outside of string literals
// and comments pair up.
func balanced(src string) bool {
	var stack []byte
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return false
				}
				i += end + 3
			}
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opening[c] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return quote == 0 && len(stack) == 0
}

var opening = map[byte]byte{')': '(', ']': '[', '}': '{'}
