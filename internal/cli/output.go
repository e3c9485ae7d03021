package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output печатает результаты команд: данные в stdout, сообщения в stderr.
// Режим --json заменяет табличный вывод на JSON с отступами,
// пригодный для конвейеров с jq.
type Output struct {
	json bool
	out  io.Writer
	msg  io.Writer
}

// NewOutput создаёт Output в табличном или JSON-режиме.
func NewOutput(jsonMode bool) *Output {
	return &Output{json: jsonMode, out: os.Stdout, msg: os.Stderr}
}

// Print выводит либо таблицу headers/rows, либо jsonData — по режиму.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.json {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table печатает выровненную таблицу с разделителем под шапкой.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	sep := make([]string, 0, len(headers))
	for _, h := range headers {
		sep = append(sep, strings.Repeat("-", len(h)))
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

// JSON печатает v с двухпробельным отступом.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success сообщает об успехе операции.
func (o *Output) Success(format string, args ...any) {
	fmt.Fprintf(o.msg, format+"\n", args...)
}

// Warning печатает предупреждение.
func (o *Output) Warning(format string, args ...any) {
	fmt.Fprintf(o.msg, "Warning: "+format+"\n", args...)
}

// Error печатает сообщение об ошибке.
func (o *Output) Error(format string, args ...any) {
	fmt.Fprintf(o.msg, "Error: "+format+"\n", args...)
}
