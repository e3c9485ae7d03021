package parser

import (
	"fmt"
	"strconv"
)

// Options — параметры разбора.
type Options struct {
	// Strict — строгий режим: неизвестный вид входа считается ошибкой,
	// а не предупреждением. Грамматика операторов строгая всегда.
	Strict bool
}

// Result — результат разбора.
//
// При OK=true Doc заполнен, Errors пуст. При OK=false Doc всегда nil,
// Errors непуст. Warnings возможны в обоих случаях.
type Result struct {
	// OK — разбор прошёл без ошибок.
	OK bool

	// Doc — AST документа (nil при OK=false).
	Doc *Document

	// Warnings — некритичные замечания.
	Warnings []string

	// Errors — ошибки разбора.
	Errors []Error
}

// Известные виды входов. Прочие виды допустимы,
// но в нестрогом режиме порождают предупреждение.
var knownInputKinds = map[string]bool{
	"file":  true,
	"text":  true,
	"table": true,
}

// Parse разбирает исходник FLOW в AST.
//
// Разбор чистый: одинаковый source всегда даёт одинаковый Result.
func Parse(source string, opts Options) Result {
	tokens, lexErrs := scan(source)

	p := &parser{
		tokens: tokens,
		opts:   opts,
		errs:   lexErrs,
		names:  make(map[string]bool),
	}

	doc := p.parseDocument()

	res := Result{
		OK:       len(p.errs) == 0,
		Warnings: p.warnings,
		Errors:   p.errs,
	}
	if res.OK {
		res.Doc = doc
	}
	return res
}

// parser — рекурсивный спуск по лексемам.
type parser struct {
	tokens []Token
	pos    int
	opts   Options

	errs     []Error
	warnings []string

	// names — уже объявленные имена (входы и шаги, общее пространство).
	names map[string]bool
}

// --- Навигация по лексемам ---

// cur возвращает текущую лексему.
func (p *parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance сдвигается на следующую лексему.
func (p *parser) advance() Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// atKeyword проверяет, что текущая лексема — идентификатор word.
func (p *parser) atKeyword(word string) bool {
	tok := p.cur()
	return tok.Kind == TokenIdent && tok.Text == word
}

// expect потребляет лексему вида kind или записывает ошибку.
func (p *parser) expect(kind TokenKind, context string) (Token, bool) {
	tok := p.cur()
	if tok.Kind != kind {
		p.errorf(tok, ErrMalformedStep, "%s: expected %s, got %s", context, kind, p.describe(tok))
		return tok, false
	}
	return p.advance(), true
}

// expectKeyword потребляет идентификатор word или записывает ошибку.
func (p *parser) expectKeyword(word, context string) bool {
	if !p.atKeyword(word) {
		p.errorf(p.cur(), ErrMalformedStep, "%s: expected %q, got %s", context, word, p.describe(p.cur()))
		return false
	}
	p.advance()
	return true
}

// expectNewline потребляет конец строки.
func (p *parser) expectNewline(context string) bool {
	tok := p.cur()
	if tok.Kind == TokenEOF {
		return true
	}
	if tok.Kind != TokenNewline {
		p.errorf(tok, ErrMalformedStep, "%s: unexpected %s at end of line", context, p.describe(tok))
		return false
	}
	p.advance()
	return true
}

// skipNewlines пропускает переводы строк.
func (p *parser) skipNewlines() {
	for p.cur().Kind == TokenNewline {
		p.advance()
	}
}

// describe возвращает описание лексемы для сообщений об ошибках.
func (p *parser) describe(tok Token) string {
	switch tok.Kind {
	case TokenIdent, TokenCmp, TokenNumber:
		return fmt.Sprintf("%q", tok.Text)
	case TokenString:
		return fmt.Sprintf("string %q", tok.Text)
	default:
		return tok.Kind.String()
	}
}

// errorf записывает ошибку разбора.
func (p *parser) errorf(tok Token, base error, format string, args ...any) {
	p.errs = append(p.errs, Error{
		Line: tok.Line,
		Col:  tok.Col,
		Msg:  fmt.Sprintf(format, args...),
		Err:  base,
	})
}

// warnf записывает предупреждение.
func (p *parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// sync пропускает лексемы до начала следующего шага или END FLOW.
// Используется для восстановления после ошибки в теле шага.
func (p *parser) sync() {
	for {
		tok := p.cur()
		if tok.Kind == TokenEOF {
			return
		}
		if tok.Kind == TokenIdent && (tok.Text == "STEP" || tok.Text == "END") {
			return
		}
		p.advance()
	}
}

// --- Грамматика ---

// parseDocument разбирает документ целиком.
func (p *parser) parseDocument() *Document {
	doc := &Document{}

	// Заголовок: FLOW "<имя>"
	if !p.atKeyword("FLOW") {
		p.errorf(p.cur(), ErrNoHeader, `document must start with FLOW "<name>"`)
		return doc
	}
	p.advance()
	nameTok, ok := p.expect(TokenString, "FLOW header")
	if !ok {
		return doc
	}
	doc.Name = nameTok.Text
	p.expectNewline("FLOW header")
	p.skipNewlines()

	terminated := false

	for !terminated {
		tok := p.cur()
		switch {
		case tok.Kind == TokenEOF:
			p.errorf(tok, ErrNoTerminator, "document is not terminated with END FLOW")
			return doc

		case p.atKeyword("INPUTS"):
			p.parseInputs(doc)

		case p.atKeyword("STEP"):
			p.parseStep(doc)

		case p.atKeyword("END"):
			p.advance()
			if p.expectKeyword("FLOW", "END FLOW") {
				terminated = true
			} else {
				p.sync()
			}

		default:
			p.errorf(tok, ErrMalformedStep, "expected STEP or END FLOW, got %s", p.describe(tok))
			p.advance()
			p.sync()
		}
		p.skipNewlines()
	}

	// После END FLOW допустимы только пустые строки
	if tok := p.cur(); tok.Kind != TokenEOF {
		p.errorf(tok, ErrMalformedStep, "unexpected content after END FLOW")
	}

	return doc
}

// parseInputs разбирает блок INPUTS ... END INPUTS.
func (p *parser) parseInputs(doc *Document) {
	p.advance() // INPUTS
	p.expectNewline("INPUTS")
	p.skipNewlines()

	for {
		tok := p.cur()
		if tok.Kind == TokenEOF {
			p.errorf(tok, ErrNoTerminator, "INPUTS block is not terminated with END INPUTS")
			return
		}
		if p.atKeyword("END") {
			p.advance()
			p.expectKeyword("INPUTS", "END INPUTS")
			p.expectNewline("END INPUTS")
			return
		}

		p.parseInputDecl(doc)
		p.skipNewlines()
	}
}

// parseInputDecl разбирает одну строку объявления входа: <kind> <name> [optional].
func (p *parser) parseInputDecl(doc *Document) {
	kindTok, ok := p.expect(TokenIdent, "input declaration")
	if !ok {
		p.advanceLine()
		return
	}
	nameTok, ok := p.expect(TokenIdent, "input declaration")
	if !ok {
		p.advanceLine()
		return
	}

	optional := false
	if p.atKeyword("optional") {
		p.advance()
		optional = true
	}
	p.expectNewline("input declaration")

	if !knownInputKinds[kindTok.Text] {
		if p.opts.Strict {
			p.errorf(kindTok, ErrMalformedStep, "unknown input kind %q", kindTok.Text)
			return
		}
		p.warnf("input %s: unknown kind %q", nameTok.Text, kindTok.Text)
	}

	if !p.declareName(nameTok) {
		return
	}

	doc.Inputs = append(doc.Inputs, InputDecl{
		Name:     nameTok.Text,
		Kind:     kindTok.Text,
		Optional: optional,
		Span:     Span{StartLine: kindTok.Line, EndLine: kindTok.Line},
	})
}

// declareName регистрирует имя в общем пространстве входов и шагов.
func (p *parser) declareName(tok Token) bool {
	if p.names[tok.Text] {
		p.errorf(tok, ErrDuplicateName, "name %q is already declared", tok.Text)
		return false
	}
	p.names[tok.Text] = true
	return true
}

// parseStep разбирает шаг: STEP <name> = <operator ...>.
func (p *parser) parseStep(doc *Document) {
	stepTok := p.advance() // STEP

	nameTok, ok := p.expect(TokenIdent, "STEP")
	if !ok {
		p.sync()
		return
	}
	if _, ok := p.expect(TokenAssign, "STEP"); !ok {
		p.sync()
		return
	}

	// Оператор может стоять на той же строке или на следующей
	if p.cur().Kind == TokenNewline {
		p.advance()
	}

	op, endLine, ok := p.parseOperator()
	if !ok {
		p.sync()
		return
	}

	if !p.declareName(nameTok) {
		return
	}

	doc.Steps = append(doc.Steps, Step{
		Name: nameTok.Text,
		Op:   op,
		Span: Span{StartLine: stepTok.Line, EndLine: endLine},
	})
}

// parseOperator разбирает строку оператора и его модификаторы.
// Возвращает операцию и номер последней занятой строки.
func (p *parser) parseOperator() (Op, int, bool) {
	tok := p.cur()
	if tok.Kind != TokenIdent {
		p.errorf(tok, ErrMalformedStep, "expected operator keyword, got %s", p.describe(tok))
		return nil, 0, false
	}

	switch tok.Text {
	case "LOAD":
		return p.parseLoadCSV()
	case "FILTER":
		return p.parseFilter()
	case "GROUP":
		return p.parseGroup()
	case "SORT":
		return p.parseSort()
	case "OUTPUT":
		return p.parseOutput()
	case "OUTPUT_TEXT":
		return p.parseOutputText()
	case "APX_EXEC":
		return p.parseApxExec()
	case "BUILD":
		return p.parseBuildVpkg()
	case "DEPLOY":
		return p.parseDeployService()
	default:
		p.errorf(tok, ErrUnknownOperator, "unknown operator %q", tok.Text)
		return nil, 0, false
	}
}

// parseLoadCSV — LOAD CSV FROM <input>.
func (p *parser) parseLoadCSV() (Op, int, bool) {
	p.advance() // LOAD
	if !p.expectKeyword("CSV", "LOAD") {
		return nil, 0, false
	}
	if !p.expectKeyword("FROM", "LOAD CSV") {
		return nil, 0, false
	}
	input, ok := p.expect(TokenIdent, "LOAD CSV FROM")
	if !ok {
		return nil, 0, false
	}
	if !p.expectNewline("LOAD CSV") {
		return nil, 0, false
	}
	return LoadCSV{Input: input.Text}, input.Line, true
}

// parseFilter — FILTER <ref> WHERE <field> <op> <literal>.
func (p *parser) parseFilter() (Op, int, bool) {
	p.advance() // FILTER
	ref, ok := p.expect(TokenIdent, "FILTER")
	if !ok {
		return nil, 0, false
	}
	if !p.expectKeyword("WHERE", "FILTER") {
		return nil, 0, false
	}
	field, ok := p.expect(TokenIdent, "FILTER WHERE")
	if !ok {
		return nil, 0, false
	}
	cmpTok, ok := p.expect(TokenCmp, "FILTER WHERE")
	if !ok {
		return nil, 0, false
	}
	lit, ok := p.parseLiteral("FILTER WHERE")
	if !ok {
		return nil, 0, false
	}
	if !p.expectNewline("FILTER") {
		return nil, 0, false
	}
	return Filter{
		Ref:     ref.Text,
		Field:   field.Text,
		Cmp:     CmpOp(cmpTok.Text),
		Literal: lit,
	}, cmpTok.Line, true
}

// parseGroup — GROUP <ref> BY <field> плюс строки AGG.
func (p *parser) parseGroup() (Op, int, bool) {
	groupTok := p.advance() // GROUP
	ref, ok := p.expect(TokenIdent, "GROUP")
	if !ok {
		return nil, 0, false
	}
	if !p.expectKeyword("BY", "GROUP") {
		return nil, 0, false
	}
	by, ok := p.expect(TokenIdent, "GROUP BY")
	if !ok {
		return nil, 0, false
	}
	if !p.expectNewline("GROUP") {
		return nil, 0, false
	}

	var aggs []Agg
	endLine := by.Line
	for p.atKeyword("AGG") {
		agg, line, ok := p.parseAgg()
		if !ok {
			return nil, 0, false
		}
		aggs = append(aggs, agg)
		endLine = line
	}

	if len(aggs) == 0 {
		p.errorf(groupTok, ErrMalformedStep, "GROUP requires at least one AGG line")
		return nil, 0, false
	}

	return Group{Ref: ref.Text, By: by.Text, Aggs: aggs}, endLine, true
}

// parseAgg — AGG <fn>(<field>|*) AS <alias>.
func (p *parser) parseAgg() (Agg, int, bool) {
	p.advance() // AGG
	fnTok, ok := p.expect(TokenIdent, "AGG")
	if !ok {
		return Agg{}, 0, false
	}

	fn := AggFn(fnTok.Text)
	switch fn {
	case AggSum, AggCount, AggAvg, AggMin, AggMax:
	default:
		p.errorf(fnTok, ErrMalformedStep, "unknown aggregation function %q", fnTok.Text)
		return Agg{}, 0, false
	}

	if _, ok := p.expect(TokenLParen, "AGG"); !ok {
		return Agg{}, 0, false
	}

	field := ""
	switch p.cur().Kind {
	case TokenStar:
		p.advance()
		field = "*"
	case TokenIdent:
		field = p.advance().Text
	default:
		p.errorf(p.cur(), ErrMalformedStep, "AGG: expected field name or '*', got %s", p.describe(p.cur()))
		return Agg{}, 0, false
	}

	if fn == AggCount && field != "*" {
		p.errorf(fnTok, ErrMalformedStep, "count supports only count(*)")
		return Agg{}, 0, false
	}
	if fn != AggCount && field == "*" {
		p.errorf(fnTok, ErrMalformedStep, "%s(*) is not supported", fn)
		return Agg{}, 0, false
	}

	if _, ok := p.expect(TokenRParen, "AGG"); !ok {
		return Agg{}, 0, false
	}
	if !p.expectKeyword("AS", "AGG") {
		return Agg{}, 0, false
	}
	alias, ok := p.expect(TokenIdent, "AGG AS")
	if !ok {
		return Agg{}, 0, false
	}
	if !p.expectNewline("AGG") {
		return Agg{}, 0, false
	}

	return Agg{Fn: fn, Field: field, Alias: alias.Text}, alias.Line, true
}

// parseSort — SORT <ref> BY <field> [ASC|DESC], опционально TAKE <n>.
func (p *parser) parseSort() (Op, int, bool) {
	p.advance() // SORT
	ref, ok := p.expect(TokenIdent, "SORT")
	if !ok {
		return nil, 0, false
	}
	if !p.expectKeyword("BY", "SORT") {
		return nil, 0, false
	}
	field, ok := p.expect(TokenIdent, "SORT BY")
	if !ok {
		return nil, 0, false
	}

	desc := false
	switch {
	case p.atKeyword("ASC"):
		p.advance()
	case p.atKeyword("DESC"):
		p.advance()
		desc = true
	}
	if !p.expectNewline("SORT") {
		return nil, 0, false
	}

	sort := Sort{Ref: ref.Text, Field: field.Text, Desc: desc}
	endLine := field.Line

	if p.atKeyword("TAKE") {
		p.advance()
		nTok, ok := p.expect(TokenNumber, "TAKE")
		if !ok {
			return nil, 0, false
		}
		n, err := strconv.Atoi(nTok.Text)
		if err != nil || n < 0 {
			p.errorf(nTok, ErrMalformedStep, "TAKE requires a non-negative integer, got %q", nTok.Text)
			return nil, 0, false
		}
		if !p.expectNewline("TAKE") {
			return nil, 0, false
		}
		sort.Take = n
		sort.HasTake = true
		endLine = nTok.Line
	}

	return sort, endLine, true
}

// parseOutput — OUTPUT <ref> AS "<name>".
func (p *parser) parseOutput() (Op, int, bool) {
	p.advance() // OUTPUT
	ref, ok := p.expect(TokenIdent, "OUTPUT")
	if !ok {
		return nil, 0, false
	}
	if !p.expectKeyword("AS", "OUTPUT") {
		return nil, 0, false
	}
	name, ok := p.expect(TokenString, "OUTPUT AS")
	if !ok {
		return nil, 0, false
	}
	if name.Text == "" {
		p.errorf(name, ErrMalformedStep, "OUTPUT name must not be empty")
		return nil, 0, false
	}
	if !p.expectNewline("OUTPUT") {
		return nil, 0, false
	}
	return Output{Ref: ref.Text, Name: name.Text}, name.Line, true
}

// parseOutputText — OUTPUT_TEXT <dotted-path>.
func (p *parser) parseOutputText() (Op, int, bool) {
	p.advance() // OUTPUT_TEXT
	path, line, ok := p.parsePath("OUTPUT_TEXT")
	if !ok {
		return nil, 0, false
	}
	if !p.expectNewline("OUTPUT_TEXT") {
		return nil, 0, false
	}
	return OutputText{Path: path}, line, true
}

// parsePath разбирает точечный путь: ident(.ident)*.
func (p *parser) parsePath(context string) ([]string, int, bool) {
	first, ok := p.expect(TokenIdent, context)
	if !ok {
		return nil, 0, false
	}
	path := []string{first.Text}
	line := first.Line
	for p.cur().Kind == TokenDot {
		p.advance()
		seg, ok := p.expect(TokenIdent, context)
		if !ok {
			return nil, 0, false
		}
		path = append(path, seg.Text)
		line = seg.Line
	}
	return path, line, true
}

// parseApxExec — APX_EXEC "<target>" WITH <object-literal>.
func (p *parser) parseApxExec() (Op, int, bool) {
	p.advance() // APX_EXEC
	target, ok := p.expect(TokenString, "APX_EXEC")
	if !ok {
		return nil, 0, false
	}
	if !p.expectKeyword("WITH", "APX_EXEC") {
		return nil, 0, false
	}
	payload, line, ok := p.parseObjectLit()
	if !ok {
		return nil, 0, false
	}
	if !p.expectNewline("APX_EXEC") {
		return nil, 0, false
	}
	return ApxExec{Target: target.Text, Payload: payload}, line, true
}

// parseObjectLit разбирает объектный литерал {key: value, ...}.
// Переводы строк внутри фигурных скобок игнорируются.
func (p *parser) parseObjectLit() (*ObjectLit, int, bool) {
	open, ok := p.expect(TokenLBrace, "object literal")
	if !ok {
		return nil, 0, false
	}
	p.skipNewlines()

	lit := &ObjectLit{}
	line := open.Line
	seen := make(map[string]bool)

	for {
		if p.cur().Kind == TokenRBrace {
			line = p.advance().Line
			return lit, line, true
		}

		// Ключ: идентификатор или строка
		var key Token
		switch p.cur().Kind {
		case TokenIdent, TokenString:
			key = p.advance()
		default:
			p.errorf(p.cur(), ErrMalformedStep, "object literal: expected key, got %s", p.describe(p.cur()))
			return nil, 0, false
		}
		if seen[key.Text] {
			p.errorf(key, ErrMalformedStep, "object literal: duplicate key %q", key.Text)
			return nil, 0, false
		}
		seen[key.Text] = true

		if _, ok := p.expect(TokenColon, "object literal"); !ok {
			return nil, 0, false
		}
		p.skipNewlines()

		value, ok := p.parsePayloadValue()
		if !ok {
			return nil, 0, false
		}
		lit.Entries = append(lit.Entries, ObjectEntry{Key: key.Text, Value: value})
		p.skipNewlines()

		switch p.cur().Kind {
		case TokenComma:
			p.advance()
			p.skipNewlines()
		case TokenRBrace:
			// Закрытие на следующей итерации
		default:
			p.errorf(p.cur(), ErrMalformedStep, "object literal: expected ',' or '}', got %s", p.describe(p.cur()))
			return nil, 0, false
		}
	}
}

// parsePayloadValue разбирает значение внутри объектного литерала:
// литерал, ссылку (идентификатор или точечный путь) или вложенный объект.
func (p *parser) parsePayloadValue() (PayloadValue, bool) {
	tok := p.cur()
	switch tok.Kind {
	case TokenLBrace:
		nested, _, ok := p.parseObjectLit()
		if !ok {
			return nil, false
		}
		return nested, true

	case TokenString:
		p.advance()
		return Literal{Kind: LiteralString, Str: tok.Text}, true

	case TokenNumber:
		p.advance()
		num, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errorf(tok, ErrMalformedStep, "invalid number %q", tok.Text)
			return nil, false
		}
		return Literal{Kind: LiteralNumber, Num: num}, true

	case TokenIdent:
		if tok.Text == "true" || tok.Text == "false" {
			p.advance()
			return Literal{Kind: LiteralBool, Bool: tok.Text == "true"}, true
		}
		path, _, ok := p.parsePath("object literal")
		if !ok {
			return nil, false
		}
		return Ref{Path: path}, true

	default:
		p.errorf(tok, ErrMalformedStep, "object literal: expected value, got %s", p.describe(tok))
		return nil, false
	}
}

// parseLiteral разбирает литерал FILTER: строку в кавычках или число.
func (p *parser) parseLiteral(context string) (Literal, bool) {
	tok := p.cur()
	switch tok.Kind {
	case TokenString:
		p.advance()
		return Literal{Kind: LiteralString, Str: tok.Text}, true

	case TokenNumber:
		p.advance()
		num, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errorf(tok, ErrMalformedStep, "%s: invalid number %q", context, tok.Text)
			return Literal{}, false
		}
		return Literal{Kind: LiteralNumber, Num: num}, true

	case TokenIdent:
		if tok.Text == "true" || tok.Text == "false" {
			p.advance()
			return Literal{Kind: LiteralBool, Bool: tok.Text == "true"}, true
		}
	}

	p.errorf(tok, ErrMalformedStep, "%s: expected quoted string or number, got %s", context, p.describe(tok))
	return Literal{}, false
}

// parseBuildVpkg — BUILD VPKG <ref>.
func (p *parser) parseBuildVpkg() (Op, int, bool) {
	p.advance() // BUILD
	if !p.expectKeyword("VPKG", "BUILD") {
		return nil, 0, false
	}
	ref, ok := p.expect(TokenIdent, "BUILD VPKG")
	if !ok {
		return nil, 0, false
	}
	if !p.expectNewline("BUILD VPKG") {
		return nil, 0, false
	}
	return BuildVpkg{Ref: ref.Text}, ref.Line, true
}

// parseDeployService — DEPLOY SERVICE <ref> "<serviceName>".
func (p *parser) parseDeployService() (Op, int, bool) {
	p.advance() // DEPLOY
	if !p.expectKeyword("SERVICE", "DEPLOY") {
		return nil, 0, false
	}
	ref, ok := p.expect(TokenIdent, "DEPLOY SERVICE")
	if !ok {
		return nil, 0, false
	}
	name, ok := p.expect(TokenString, "DEPLOY SERVICE")
	if !ok {
		return nil, 0, false
	}
	if name.Text == "" {
		p.errorf(name, ErrMalformedStep, "DEPLOY SERVICE name must not be empty")
		return nil, 0, false
	}
	if !p.expectNewline("DEPLOY SERVICE") {
		return nil, 0, false
	}
	return DeployService{Ref: ref.Text, ServiceName: name.Text}, name.Line, true
}

// advanceLine пропускает лексемы до конца текущей строки включительно.
func (p *parser) advanceLine() {
	for {
		tok := p.cur()
		if tok.Kind == TokenEOF {
			return
		}
		p.advance()
		if tok.Kind == TokenNewline {
			return
		}
	}
}
