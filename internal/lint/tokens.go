package lint

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// token is a significant lexer token with its 1-based position.
type token struct {
	tt   js.TokenType
	text string
	line int
	col  int
}

// tokenize lexes src and drops whitespace and comments.
func tokenize(src []byte) ([]token, error) {
	l := js.NewLexer(parse.NewInputBytes(src))
	line, col := 1, 1
	var toks []token
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return toks, fmt.Errorf("%d:%d: %w", line, col, err)
			}
			return toks, nil
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && regexpAllowed(toks) {
			tt, data = l.RegExp()
		}
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		default:
			toks = append(toks, token{tt: tt, text: string(data), line: line, col: col})
		}
		if n := bytes.Count(data, []byte("\n")); n > 0 {
			line += n
			col = len(data) - bytes.LastIndexByte(data, '\n')
		} else {
			col += len(data)
		}
	}
}

// regexpAllowed reports whether a slash at this point starts a regular expression.
func regexpAllowed(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	switch prev := toks[len(toks)-1].tt; prev {
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken:
		return false
	case js.ReturnToken, js.TypeofToken, js.CaseToken, js.DeleteToken, js.VoidToken,
		js.InToken, js.InstanceofToken, js.NewToken, js.DoToken, js.ElseToken,
		js.ThrowToken, js.YieldToken, js.AwaitToken:
		return true
	default:
		return js.IsPunctuator(prev) || js.IsOperator(prev)
	}
}
