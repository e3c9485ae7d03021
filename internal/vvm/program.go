package vvm

import "fmt"

// Opcode — код операции.
type Opcode string

// Поддерживаемые опкоды.
const (
	// OpLoadConst — dst := значение-константа.
	OpLoadConst Opcode = "LOAD_CONST"

	// OpAdd — dst := a + b.
	OpAdd Opcode = "ADD"

	// OpCmpLT — dst := (a < b) как булево.
	OpCmpLT Opcode = "CMPLT"

	// OpJif — переход на метку, если регистр истинен.
	OpJif Opcode = "JIF"

	// OpJmp — безусловный переход на метку.
	OpJmp Opcode = "JMP"

	// OpHalt — остановка выполнения.
	OpHalt Opcode = "HALT"
)

// Instruction — одна инструкция программы.
type Instruction struct {
	// Label — необязательная метка инструкции.
	Label string `json:"label,omitempty"`

	// Op — код операции.
	Op Opcode `json:"op"`

	// Dst — регистр-назначение (LOAD_CONST, ADD, CMPLT).
	Dst string `json:"dst,omitempty"`

	// A, B — регистры-операнды (ADD, CMPLT); A — регистр условия JIF.
	A string `json:"a,omitempty"`
	B string `json:"b,omitempty"`

	// Value — непосредственное значение LOAD_CONST.
	Value Value `json:"value,omitempty"`

	// Target — метка перехода (JIF, JMP).
	Target string `json:"target,omitempty"`
}

// Program — загруженная программа с разрешёнными метками.
type Program struct {
	instrs []Instruction
	labels map[string]int
}

// Load проверяет инструкции и разрешает метки одним статическим
// проходом. Любая неразрешённая или повторная метка, неизвестный
// опкод или недостающий аргумент — ошибка загрузки: до выполнения
// такие программы не доходят.
func Load(instrs []Instruction) (*Program, error) {
	labels := make(map[string]int)
	for i, in := range instrs {
		if in.Label == "" {
			continue
		}
		if _, dup := labels[in.Label]; dup {
			return nil, &LoadError{Index: i, Err: fmt.Errorf("%w: %q", ErrDuplicateLabel, in.Label)}
		}
		labels[in.Label] = i
	}

	for i, in := range instrs {
		if err := validate(in, labels); err != nil {
			return nil, &LoadError{Index: i, Err: err}
		}
	}

	return &Program{instrs: instrs, labels: labels}, nil
}

// validate проверяет одну инструкцию против таблицы меток.
func validate(in Instruction, labels map[string]int) error {
	switch in.Op {
	case OpLoadConst:
		if in.Dst == "" {
			return fmt.Errorf("%w: LOAD_CONST requires a destination register", ErrInvalidInstruction)
		}
	case OpAdd, OpCmpLT:
		if in.Dst == "" || in.A == "" || in.B == "" {
			return fmt.Errorf("%w: %s requires three registers", ErrInvalidInstruction, in.Op)
		}
	case OpJif:
		if in.A == "" {
			return fmt.Errorf("%w: JIF requires a condition register", ErrInvalidInstruction)
		}
		if _, ok := labels[in.Target]; !ok {
			return fmt.Errorf("%w: %q", ErrUnresolvedLabel, in.Target)
		}
	case OpJmp:
		if _, ok := labels[in.Target]; !ok {
			return fmt.Errorf("%w: %q", ErrUnresolvedLabel, in.Target)
		}
	case OpHalt:
		// Аргументов нет
	default:
		return fmt.Errorf("%w: unknown opcode %q", ErrInvalidInstruction, in.Op)
	}
	return nil
}

// Len возвращает число инструкций программы.
func (p *Program) Len() int {
	return len(p.instrs)
}
