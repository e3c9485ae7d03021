package vvm

// VM — машина с регистрами, счётчиком команд и флагом остановки.
//
// Экземпляр владеет своим файлом регистров и счётчиком на один
// запуск; состояние между запусками не переживает. Независимые
// экземпляры можно выполнять параллельно: общего состояния нет.
type VM struct {
	// MaxSteps — лимит шагов выполнения; 0 — без лимита.
	// Защита вызывающего сервиса от бесконечных циклов.
	MaxSteps int

	prog   *Program
	regs   map[string]Value
	pc     int
	halted bool
}

// New создаёт машину со свежим файлом регистров для программы prog.
func New(prog *Program) *VM {
	return &VM{
		prog: prog,
		regs: make(map[string]Value),
	}
}

// Register возвращает значение регистра. Несозданный регистр — ноль.
func (m *VM) Register(name string) Value {
	return m.regs[name]
}

// Registers возвращает копию файла регистров.
func (m *VM) Registers() map[string]Value {
	out := make(map[string]Value, len(m.regs))
	for name, v := range m.regs {
		out[name] = v
	}
	return out
}

// Halted сообщает, остановлена ли машина.
func (m *VM) Halted() bool {
	return m.halted
}

// Run выполняет программу до остановки: HALT или выход счётчика
// команд за последнюю инструкцию (неявная остановка).
//
// Цикл строго последовательный: прочитать инструкцию по pc, применить,
// и если инструкция сама не установила pc (взятый JIF, JMP) —
// продвинуть pc на единицу.
func (m *VM) Run() error {
	steps := 0
	for !m.halted && m.pc >= 0 && m.pc < len(m.prog.instrs) {
		if m.MaxSteps > 0 && steps >= m.MaxSteps {
			return &RuntimeError{PC: m.pc, Err: ErrStepLimit}
		}
		steps++

		in := m.prog.instrs[m.pc]
		jumped := false

		switch in.Op {
		case OpLoadConst:
			m.regs[in.Dst] = in.Value

		case OpAdd:
			v, err := m.regs[in.A].add(m.regs[in.B])
			if err != nil {
				return &RuntimeError{PC: m.pc, Err: err}
			}
			m.regs[in.Dst] = v

		case OpCmpLT:
			less, err := m.regs[in.A].less(m.regs[in.B])
			if err != nil {
				return &RuntimeError{PC: m.pc, Err: err}
			}
			m.regs[in.Dst] = BoolValue(less)

		case OpJif:
			if m.regs[in.A].Truthy() {
				m.pc = m.prog.labels[in.Target]
				jumped = true
			}

		case OpJmp:
			m.pc = m.prog.labels[in.Target]
			jumped = true

		case OpHalt:
			m.halted = true
		}

		if !jumped {
			m.pc++
		}
	}
	m.halted = true
	return nil
}
