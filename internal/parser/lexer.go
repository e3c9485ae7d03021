package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// lexer разбивает исходник FLOW на лексемы.
//
// Пустые строки схлопываются: подряд идущие переводы строк дают
// один TokenNewline. Ошибки лексики (незакрытая строка, недопустимый
// символ) собираются, а разбор продолжается со следующего символа.
type lexer struct {
	src  []rune
	pos  int
	line int
	col  int

	tokens []Token
	errs   []Error
}

// scan разбивает source на лексемы.
func scan(source string) ([]Token, []Error) {
	l := &lexer{
		src:  []rune(source),
		line: 1,
		col:  1,
	}
	l.run()
	return l.tokens, l.errs
}

// run — основной цикл лексера.
func (l *lexer) run() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch {
		case ch == '\n':
			l.emitNewline()
			l.advance()

		case ch == '\r' || ch == ' ' || ch == '\t':
			l.advance()

		case ch == '"':
			l.scanString()

		case isIdentStart(ch):
			l.scanIdent()

		case unicode.IsDigit(ch) || (ch == '-' && l.peekDigit()):
			l.scanNumber()

		default:
			l.scanSymbol()
		}
	}

	// Завершающий newline, если исходник не закончился переводом строки
	l.emitNewline()
	l.emit(Token{Kind: TokenEOF, Line: l.line, Col: l.col})
}

// advance сдвигает позицию на один символ.
func (l *lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// peekDigit проверяет, что за текущим символом идёт цифра.
func (l *lexer) peekDigit() bool {
	return l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1])
}

// emit добавляет лексему.
func (l *lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
}

// emitNewline добавляет TokenNewline, схлопывая повторы.
func (l *lexer) emitNewline() {
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Kind == TokenNewline {
		return
	}
	if len(l.tokens) == 0 {
		// Ведущие пустые строки не порождают лексем
		return
	}
	l.emit(Token{Kind: TokenNewline, Line: l.line, Col: l.col})
}

// errorf записывает ошибку лексики.
func (l *lexer) errorf(line, col int, format string, args ...any) {
	l.errs = append(l.errs, Error{
		Line: line,
		Col:  col,
		Msg:  fmt.Sprintf(format, args...),
		Err:  ErrMalformedStep,
	})
}

// scanString разбирает строковый литерал в двойных кавычках.
// Поддерживаются экранирования \" и \\.
func (l *lexer) scanString() {
	startLine, startCol := l.line, l.col
	l.advance() // открывающая кавычка

	var b strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\n' {
			break
		}
		if ch == '"' {
			l.advance()
			l.emit(Token{Kind: TokenString, Text: b.String(), Line: startLine, Col: startCol})
			return
		}
		if ch == '\\' && l.pos+1 < len(l.src) {
			next := l.src[l.pos+1]
			if next == '"' || next == '\\' {
				b.WriteRune(next)
				l.advance()
				l.advance()
				continue
			}
		}
		b.WriteRune(ch)
		l.advance()
	}

	l.errorf(startLine, startCol, "unterminated string literal")
}

// scanIdent разбирает идентификатор.
func (l *lexer) scanIdent() {
	startLine, startCol := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.advance()
	}
	l.emit(Token{
		Kind: TokenIdent,
		Text: string(l.src[start:l.pos]),
		Line: startLine,
		Col:  startCol,
	})
}

// scanNumber разбирает числовой литерал (целый или с точкой).
func (l *lexer) scanNumber() {
	startLine, startCol := l.line, l.col
	start := l.pos
	if l.src[l.pos] == '-' {
		l.advance()
	}
	for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
		l.advance()
	}
	// Дробная часть: точка принадлежит числу только если за ней цифра,
	// иначе это разделитель пути (a.b)
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && unicode.IsDigit(l.src[l.pos+1]) {
		l.advance()
		for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
			l.advance()
		}
	}
	l.emit(Token{
		Kind: TokenNumber,
		Text: string(l.src[start:l.pos]),
		Line: startLine,
		Col:  startCol,
	})
}

// scanSymbol разбирает односимвольные и двухсимвольные лексемы.
func (l *lexer) scanSymbol() {
	line, col := l.line, l.col
	ch := l.src[l.pos]

	two := ""
	if l.pos+1 < len(l.src) {
		two = string(ch) + string(l.src[l.pos+1])
	}

	switch two {
	case "==", "!=", ">=", "<=":
		l.advance()
		l.advance()
		l.emit(Token{Kind: TokenCmp, Text: two, Line: line, Col: col})
		return
	}

	switch ch {
	case '=':
		l.emit(Token{Kind: TokenAssign, Text: "=", Line: line, Col: col})
	case '>', '<':
		l.emit(Token{Kind: TokenCmp, Text: string(ch), Line: line, Col: col})
	case '{':
		l.emit(Token{Kind: TokenLBrace, Text: "{", Line: line, Col: col})
	case '}':
		l.emit(Token{Kind: TokenRBrace, Text: "}", Line: line, Col: col})
	case '(':
		l.emit(Token{Kind: TokenLParen, Text: "(", Line: line, Col: col})
	case ')':
		l.emit(Token{Kind: TokenRParen, Text: ")", Line: line, Col: col})
	case ':':
		l.emit(Token{Kind: TokenColon, Text: ":", Line: line, Col: col})
	case ',':
		l.emit(Token{Kind: TokenComma, Text: ",", Line: line, Col: col})
	case '.':
		l.emit(Token{Kind: TokenDot, Text: ".", Line: line, Col: col})
	case '*':
		l.emit(Token{Kind: TokenStar, Text: "*", Line: line, Col: col})
	default:
		l.errorf(line, col, "unexpected character %q", string(ch))
	}
	l.advance()
}

// isIdentStart проверяет, может ли символ начинать идентификатор.
func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

// isIdentPart проверяет, может ли символ продолжать идентификатор.
func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}
