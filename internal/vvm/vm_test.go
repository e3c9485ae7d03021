package vvm

import (
	"errors"
	"reflect"
	"testing"
)

func TestRun_AddProgram(t *testing.T) {
	prog, err := Load([]Instruction{
		{Op: OpLoadConst, Dst: "r1", Value: IntValue(2)},
		{Op: OpLoadConst, Dst: "r2", Value: IntValue(3)},
		{Op: OpAdd, Dst: "r0", A: "r1", B: "r2"},
		{Op: OpHalt},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if got := m.Register("r0"); got != IntValue(5) {
		t.Errorf("expected r0 == 5, got %v", got)
	}
	if !m.Halted() {
		t.Error("machine must be halted")
	}
}

func TestRun_LoopAccumulates(t *testing.T) {
	// r1 идёт от 0 до 4, r0 накапливает сумму: 0+1+2+3+4 == 10
	prog, err := Load([]Instruction{
		{Op: OpLoadConst, Dst: "r0", Value: IntValue(0)},
		{Op: OpLoadConst, Dst: "r1", Value: IntValue(0)},
		{Op: OpLoadConst, Dst: "r5", Value: IntValue(5)},
		{Op: OpLoadConst, Dst: "one", Value: IntValue(1)},
		{Label: "loop", Op: OpCmpLT, Dst: "cond", A: "r1", B: "r5"},
		{Op: OpJif, A: "cond", Target: "body"},
		{Op: OpJmp, Target: "done"},
		{Label: "body", Op: OpAdd, Dst: "r0", A: "r0", B: "r1"},
		{Op: OpAdd, Dst: "r1", A: "r1", B: "one"},
		{Op: OpJmp, Target: "loop"},
		{Label: "done", Op: OpHalt},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := m.Register("r0"); got != IntValue(10) {
		t.Errorf("expected r0 == 10, got %v", got)
	}
	if got := m.Register("r1"); got != IntValue(5) {
		t.Errorf("expected r1 == 5, got %v", got)
	}
}

func TestLoad_UnresolvedLabel(t *testing.T) {
	cases := []struct {
		name   string
		instrs []Instruction
	}{
		{"JMP на отсутствующую метку", []Instruction{
			{Op: OpJmp, Target: "nowhere"},
			{Op: OpHalt},
		}},
		{"JIF на отсутствующую метку", []Instruction{
			{Op: OpLoadConst, Dst: "r0", Value: IntValue(1)},
			{Op: OpJif, A: "r0", Target: "nowhere"},
			{Op: OpHalt},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.instrs)
			if err == nil {
				t.Fatal("expected load error")
			}
			if !errors.Is(err, ErrUnresolvedLabel) {
				t.Errorf("expected ErrUnresolvedLabel, got %v", err)
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Errorf("expected *LoadError, got %T", err)
			}
		})
	}
}

func TestLoad_DuplicateLabel(t *testing.T) {
	_, err := Load([]Instruction{
		{Label: "x", Op: OpHalt},
		{Label: "x", Op: OpHalt},
	})
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("expected ErrDuplicateLabel, got %v", err)
	}
}

func TestLoad_UnknownOpcode(t *testing.T) {
	_, err := Load([]Instruction{{Op: "FROB"}})
	if !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestRun_ImplicitHalt(t *testing.T) {
	// Без HALT: pc уходит за последнюю инструкцию
	prog, err := Load([]Instruction{
		{Op: OpLoadConst, Dst: "r0", Value: IntValue(7)},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !m.Halted() {
		t.Error("machine must halt implicitly")
	}
	if got := m.Register("r0"); got != IntValue(7) {
		t.Errorf("expected r0 == 7, got %v", got)
	}
}

func TestRun_LazyRegistersDefaultZero(t *testing.T) {
	prog, err := Load([]Instruction{
		{Op: OpAdd, Dst: "r0", A: "never_written", B: "also_never"},
		{Op: OpHalt},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := m.Register("r0"); got != IntValue(0) {
		t.Errorf("expected r0 == 0, got %v", got)
	}
	// Чтение не создаёт регистров: записан только r0
	if regs := m.Registers(); len(regs) != 1 {
		t.Errorf("expected 1 register, got %v", regs)
	}
}

func TestRun_BooleanArithmeticFails(t *testing.T) {
	prog, err := Load([]Instruction{
		{Op: OpLoadConst, Dst: "flag", Value: BoolValue(true)},
		{Op: OpLoadConst, Dst: "r1", Value: IntValue(1)},
		{Op: OpAdd, Dst: "r0", A: "flag", B: "r1"},
		{Op: OpHalt},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	err = m.Run()
	if err == nil {
		t.Fatal("expected runtime error")
	}
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rtErr.PC != 2 {
		t.Errorf("expected pc=2, got %d", rtErr.PC)
	}
}

func TestRun_MixedArithmetic(t *testing.T) {
	prog, err := Load([]Instruction{
		{Op: OpLoadConst, Dst: "r1", Value: IntValue(2)},
		{Op: OpLoadConst, Dst: "r2", Value: FloatValue(0.5)},
		{Op: OpAdd, Dst: "r0", A: "r1", B: "r2"},
		{Op: OpCmpLT, Dst: "cond", A: "r1", B: "r2"},
		{Op: OpHalt},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := m.Register("r0"); got != FloatValue(2.5) {
		t.Errorf("expected r0 == 2.5, got %v", got)
	}
	if got := m.Register("cond"); got != BoolValue(false) {
		t.Errorf("expected cond == false, got %v", got)
	}
}

func TestRun_StepLimit(t *testing.T) {
	prog, err := Load([]Instruction{
		{Label: "loop", Op: OpJmp, Target: "loop"},
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	m := New(prog)
	m.MaxSteps = 100
	if err := m.Run(); !errors.Is(err, ErrStepLimit) {
		t.Errorf("expected ErrStepLimit, got %v", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	instrs := []Instruction{
		{Op: OpLoadConst, Dst: "r0", Value: IntValue(0)},
		{Op: OpLoadConst, Dst: "r1", Value: IntValue(0)},
		{Op: OpLoadConst, Dst: "limit", Value: IntValue(5)},
		{Op: OpLoadConst, Dst: "one", Value: IntValue(1)},
		{Label: "loop", Op: OpCmpLT, Dst: "cond", A: "r1", B: "limit"},
		{Op: OpJif, A: "cond", Target: "body"},
		{Op: OpJmp, Target: "done"},
		{Label: "body", Op: OpAdd, Dst: "r0", A: "r0", B: "r1"},
		{Op: OpAdd, Dst: "r1", A: "r1", B: "one"},
		{Op: OpJmp, Target: "loop"},
		{Label: "done", Op: OpHalt},
	}

	var first map[string]Value
	for i := 0; i < 5; i++ {
		prog, err := Load(instrs)
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		m := New(prog)
		if err := m.Run(); err != nil {
			t.Fatalf("unexpected run error: %v", err)
		}
		regs := m.Registers()
		if first == nil {
			first = regs
			continue
		}
		if !reflect.DeepEqual(first, regs) {
			t.Fatalf("run %d diverged: %v != %v", i, regs, first)
		}
	}
}
