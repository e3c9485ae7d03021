package parser

// Document — разобранный документ FLOW.
type Document struct {
	// Name — имя из заголовка FLOW "...".
	Name string

	// Inputs — объявленные входы в порядке объявления.
	Inputs []InputDecl

	// Steps — шаги в порядке объявления.
	Steps []Step
}

// InputDecl — объявление входа в блоке INPUTS.
type InputDecl struct {
	// Name — уникальное имя входа.
	Name string

	// Kind — вид входа: "file", "text", "table", ...
	Kind string

	// Optional — вход может отсутствовать при запуске.
	Optional bool

	// Span — позиция объявления в исходнике.
	Span Span
}

// Step — один шаг документа.
//
// Имена шагов делят пространство имён со входами: имя шага уникально
// среди всех входов и шагов документа.
type Step struct {
	// Name — уникальное имя шага.
	Name string

	// Op — операция шага (закрытое объединение вариантов).
	Op Op

	// Span — позиция шага в исходнике.
	Span Span
}

// Span — диапазон строк исходника.
type Span struct {
	// StartLine — первая строка (с 1).
	StartLine int

	// EndLine — последняя строка (включительно).
	EndLine int
}

// Op — операция шага.
//
// Закрытое объединение: добавление нового оператора — это новый
// вариант здесь плюс ветки в planner и engine, проверяемые компилятором.
type Op interface {
	// Keyword возвращает каноническое имя оператора ("LOAD_CSV", "FILTER", ...).
	Keyword() string

	isOp()
}

// CmpOp — оператор сравнения в FILTER.
type CmpOp string

// Операторы сравнения.
const (
	CmpEq CmpOp = "=="
	CmpNe CmpOp = "!="
	CmpGt CmpOp = ">"
	CmpLt CmpOp = "<"
	CmpGe CmpOp = ">="
	CmpLe CmpOp = "<="
)

// AggFn — функция агрегации в GROUP.
type AggFn string

// Функции агрегации.
const (
	AggSum   AggFn = "sum"
	AggCount AggFn = "count"
	AggAvg   AggFn = "avg"
	AggMin   AggFn = "min"
	AggMax   AggFn = "max"
)

// Agg — одна агрегация: AGG sum(amount) AS total_amount.
type Agg struct {
	// Fn — функция агрегации.
	Fn AggFn

	// Field — поле-аргумент; "*" для count(*).
	Field string

	// Alias — имя колонки результата.
	Alias string
}

// LoadCSV — LOAD CSV FROM <input>.
type LoadCSV struct {
	// Input — имя входа с сырым CSV.
	Input string
}

// Filter — FILTER <ref> WHERE <field> <op> <literal>.
type Filter struct {
	// Ref — имя фильтруемой таблицы.
	Ref string

	// Field — имя поля.
	Field string

	// Cmp — оператор сравнения.
	Cmp CmpOp

	// Literal — литерал правой части.
	Literal Literal
}

// Group — GROUP <ref> BY <field> с одной или более строками AGG.
type Group struct {
	// Ref — имя группируемой таблицы.
	Ref string

	// By — поле группировки.
	By string

	// Aggs — агрегации (минимум одна).
	Aggs []Agg
}

// Sort — SORT <ref> BY <field> [ASC|DESC], опционально TAKE <n>.
type Sort struct {
	// Ref — имя сортируемой таблицы.
	Ref string

	// Field — поле сортировки.
	Field string

	// Desc — сортировать по убыванию.
	Desc bool

	// Take — ограничение числа строк после сортировки (0 без HasTake).
	Take int

	// HasTake — присутствовала ли строка TAKE.
	HasTake bool
}

// Output — OUTPUT <ref> AS "<name>".
type Output struct {
	// Ref — имя шага, значение которого публикуется.
	Ref string

	// Name — имя результата для вызывающего.
	Name string
}

// OutputText — OUTPUT_TEXT <dotted-path>.
type OutputText struct {
	// Path — сегменты пути; первый сегмент — имя шага или входа.
	Path []string
}

// ApxExec — APX_EXEC "<target>" WITH <object-literal>.
type ApxExec struct {
	// Target — имя операции внешнего исполнителя.
	Target string

	// Payload — литерал полезной нагрузки.
	Payload *ObjectLit
}

// BuildVpkg — BUILD VPKG <ref>.
type BuildVpkg struct {
	// Ref — имя шага-манифеста.
	Ref string
}

// DeployService — DEPLOY SERVICE <ref> "<serviceName>".
type DeployService struct {
	// Ref — имя шага с артефактом.
	Ref string

	// ServiceName — имя разворачиваемого сервиса.
	ServiceName string
}

func (LoadCSV) isOp()       {}
func (Filter) isOp()        {}
func (Group) isOp()         {}
func (Sort) isOp()          {}
func (Output) isOp()        {}
func (OutputText) isOp()    {}
func (ApxExec) isOp()       {}
func (BuildVpkg) isOp()     {}
func (DeployService) isOp() {}

// Keyword возвращает каноническое имя оператора.
func (LoadCSV) Keyword() string { return "LOAD_CSV" }

// Keyword возвращает каноническое имя оператора.
func (Filter) Keyword() string { return "FILTER" }

// Keyword возвращает каноническое имя оператора.
func (Group) Keyword() string { return "GROUP" }

// Keyword возвращает каноническое имя оператора.
func (Sort) Keyword() string { return "SORT" }

// Keyword возвращает каноническое имя оператора.
func (Output) Keyword() string { return "OUTPUT" }

// Keyword возвращает каноническое имя оператора.
func (OutputText) Keyword() string { return "OUTPUT_TEXT" }

// Keyword возвращает каноническое имя оператора.
func (ApxExec) Keyword() string { return "APX_EXEC" }

// Keyword возвращает каноническое имя оператора.
func (BuildVpkg) Keyword() string { return "BUILD_VPKG" }

// Keyword возвращает каноническое имя оператора.
func (DeployService) Keyword() string { return "DEPLOY_SERVICE" }

// Literal — литерал: строка в кавычках, число или булево.
type Literal struct {
	// Kind — вид литерала.
	Kind LiteralKind

	// Str — значение для LiteralString.
	Str string

	// Num — значение для LiteralNumber.
	Num float64

	// Bool — значение для LiteralBool.
	Bool bool
}

// LiteralKind — вид литерала.
type LiteralKind int

// Виды литералов.
const (
	// LiteralString — строка в двойных кавычках.
	LiteralString LiteralKind = iota

	// LiteralNumber — число.
	LiteralNumber

	// LiteralBool — true или false.
	LiteralBool
)

// PayloadValue — значение внутри объектного литерала APX_EXEC:
// литерал, ссылка на ранее объявленное имя или вложенный объект.
type PayloadValue interface{ isPayloadValue() }

// Ref — ссылка на вход или шаг, возможно с точечным путём вглубь.
type Ref struct {
	// Path — сегменты; Path[0] — имя входа или шага.
	Path []string
}

// ObjectLit — объектный литерал {key: value, ...} с сохранением порядка.
type ObjectLit struct {
	// Entries — пары ключ/значение в порядке записи.
	Entries []ObjectEntry
}

// ObjectEntry — пара ключ/значение объектного литерала.
type ObjectEntry struct {
	// Key — ключ.
	Key string

	// Value — значение.
	Value PayloadValue
}

func (Literal) isPayloadValue()    {}
func (Ref) isPayloadValue()        {}
func (*ObjectLit) isPayloadValue() {}
