package vvm

import (
	"fmt"
	"strconv"
	"strings"
)

// Assemble переводит текстовую запись программы в загруженную Program.
//
// Формат строки: необязательная метка с двоеточием, опкод, аргументы
// через пробелы. Пустые строки и комментарии от ';' игнорируются:
//
//	        LOAD_CONST r1 0
//	loop:   CMPLT r2 r1 r5
//	        JIF r2 body
//	        JMP done
//	body:   ADD r0 r0 r1
//	        JMP loop
//	done:   HALT
func Assemble(source string) (*Program, error) {
	var instrs []Instruction

	for lineNo, line := range strings.Split(source, "\n") {
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		label := ""
		if i := strings.IndexByte(line, ':'); i >= 0 {
			label = strings.TrimSpace(line[:i])
			line = strings.TrimSpace(line[i+1:])
			if label == "" || strings.ContainsAny(label, " \t") {
				return nil, asmErrorf(lineNo, "malformed label %q", label)
			}
			if line == "" {
				return nil, asmErrorf(lineNo, "label %q has no instruction", label)
			}
		}

		fields := strings.Fields(line)
		in, err := parseInstruction(lineNo, fields)
		if err != nil {
			return nil, err
		}
		in.Label = label
		instrs = append(instrs, in)
	}

	return Load(instrs)
}

// parseInstruction собирает инструкцию из полей строки.
func parseInstruction(lineNo int, fields []string) (Instruction, error) {
	op := Opcode(fields[0])
	args := fields[1:]

	switch op {
	case OpLoadConst:
		if len(args) != 2 {
			return Instruction{}, asmErrorf(lineNo, "LOAD_CONST expects <dst> <value>")
		}
		v, err := parseImmediate(args[1])
		if err != nil {
			return Instruction{}, asmErrorf(lineNo, "bad immediate %q", args[1])
		}
		return Instruction{Op: op, Dst: args[0], Value: v}, nil

	case OpAdd, OpCmpLT:
		if len(args) != 3 {
			return Instruction{}, asmErrorf(lineNo, "%s expects <dst> <a> <b>", op)
		}
		return Instruction{Op: op, Dst: args[0], A: args[1], B: args[2]}, nil

	case OpJif:
		if len(args) != 2 {
			return Instruction{}, asmErrorf(lineNo, "JIF expects <cond> <label>")
		}
		return Instruction{Op: op, A: args[0], Target: args[1]}, nil

	case OpJmp:
		if len(args) != 1 {
			return Instruction{}, asmErrorf(lineNo, "JMP expects <label>")
		}
		return Instruction{Op: op, Target: args[0]}, nil

	case OpHalt:
		if len(args) != 0 {
			return Instruction{}, asmErrorf(lineNo, "HALT takes no arguments")
		}
		return Instruction{Op: op}, nil

	default:
		return Instruction{}, asmErrorf(lineNo, "unknown opcode %q", fields[0])
	}
}

// parseImmediate разбирает непосредственное значение LOAD_CONST:
// целое, вещественное или булево.
func parseImmediate(s string) (Value, error) {
	if s == "true" || s == "false" {
		return BoolValue(s == "true"), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("not a number or boolean")
}

func asmErrorf(lineNo int, format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", lineNo+1, ErrInvalidInstruction, fmt.Sprintf(format, args...))
}
