package parser

import "fmt"

// TokenKind — вид лексемы.
type TokenKind int

// Виды лексем языка FLOW.
const (
	// TokenEOF — конец исходника.
	TokenEOF TokenKind = iota

	// TokenNewline — конец строки (грамматика FLOW строчно-ориентированная).
	TokenNewline

	// TokenIdent — идентификатор или ключевое слово.
	TokenIdent

	// TokenString — строковый литерал в двойных кавычках.
	TokenString

	// TokenNumber — числовой литерал.
	TokenNumber

	// TokenAssign — одиночный '='.
	TokenAssign

	// TokenCmp — оператор сравнения: == != > < >= <=.
	TokenCmp

	// TokenLBrace — '{'.
	TokenLBrace

	// TokenRBrace — '}'.
	TokenRBrace

	// TokenLParen — '('.
	TokenLParen

	// TokenRParen — ')'.
	TokenRParen

	// TokenColon — ':'.
	TokenColon

	// TokenComma — ','.
	TokenComma

	// TokenDot — '.'.
	TokenDot

	// TokenStar — '*'.
	TokenStar
)

// String возвращает человекочитаемое имя вида лексемы.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "newline"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenAssign:
		return "'='"
	case TokenCmp:
		return "comparison"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenColon:
		return "':'"
	case TokenComma:
		return "','"
	case TokenDot:
		return "'.'"
	case TokenStar:
		return "'*'"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Token — лексема с позицией в исходнике.
type Token struct {
	// Kind — вид лексемы.
	Kind TokenKind

	// Text — текст лексемы.
	// Для TokenString — содержимое без кавычек,
	// для TokenCmp — сам оператор ("==", ">=", ...).
	Text string

	// Line — строка (с 1).
	Line int

	// Col — колонка (с 1).
	Col int
}
