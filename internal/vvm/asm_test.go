package vvm

import (
	"errors"
	"strings"
	"testing"
)

func TestAssemble_LoopProgram(t *testing.T) {
	src := `
; сумма 0..4 в r0
        LOAD_CONST r0 0
        LOAD_CONST r1 0
        LOAD_CONST limit 5
        LOAD_CONST one 1
loop:   CMPLT cond r1 limit
        JIF cond body
        JMP done
body:   ADD r0 r0 r1
        ADD r1 r1 one
        JMP loop
done:   HALT
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.Len() != 11 {
		t.Errorf("expected 11 instructions, got %d", prog.Len())
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := m.Register("r0"); got != IntValue(10) {
		t.Errorf("expected r0 == 10, got %v", got)
	}
}

func TestAssemble_Immediates(t *testing.T) {
	prog, err := Assemble(`
        LOAD_CONST i 42
        LOAD_CONST f 2.5
        LOAD_CONST b true
        HALT
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := New(prog)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := m.Register("i"); got != IntValue(42) {
		t.Errorf("unexpected i: %v", got)
	}
	if got := m.Register("f"); got != FloatValue(2.5) {
		t.Errorf("unexpected f: %v", got)
	}
	if got := m.Register("b"); got != BoolValue(true) {
		t.Errorf("unexpected b: %v", got)
	}
}

func TestAssemble_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"неизвестный опкод", "FROB r0 r1\nHALT", ErrInvalidInstruction},
		{"не хватает аргументов", "ADD r0 r1\nHALT", ErrInvalidInstruction},
		{"плохая константа", "LOAD_CONST r0 banana\nHALT", ErrInvalidInstruction},
		{"метка без инструкции", "loop:\nHALT", ErrInvalidInstruction},
		{"переход на отсутствующую метку", "JMP nowhere\nHALT", ErrUnresolvedLabel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Assemble(tc.src)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAssemble_ErrorNamesLine(t *testing.T) {
	_, err := Assemble("HALT\nFROB\nHALT")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error must name the source line: %v", err)
	}
}
