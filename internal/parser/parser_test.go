package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const validFlow = `FLOW "Monthly Revenue"
INPUTS
  file sales_csv
  text region optional
END INPUTS

STEP raw = LOAD CSV FROM sales_csv
STEP paid = FILTER raw WHERE status == "paid"
STEP by_customer = GROUP paid BY customer
  AGG sum(amount) AS total_amount
  AGG count(*) AS orders
STEP top = SORT by_customer BY total_amount DESC
  TAKE 2
STEP report = OUTPUT top AS "revenue_report"
END FLOW
`

func TestParse_ValidDocument(t *testing.T) {
	res := Parse(validFlow, Options{})
	if !res.OK {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Doc == nil {
		t.Fatal("expected non-nil Doc")
	}

	// Проверяем заголовок и входы
	if res.Doc.Name != "Monthly Revenue" {
		t.Errorf("expected name %q, got %q", "Monthly Revenue", res.Doc.Name)
	}
	if len(res.Doc.Inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(res.Doc.Inputs))
	}
	if in := res.Doc.Inputs[0]; in.Name != "sales_csv" || in.Kind != "file" || in.Optional {
		t.Errorf("unexpected first input: %+v", in)
	}
	if in := res.Doc.Inputs[1]; in.Name != "region" || in.Kind != "text" || !in.Optional {
		t.Errorf("unexpected second input: %+v", in)
	}

	// Проверяем шаги в порядке объявления
	if len(res.Doc.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(res.Doc.Steps))
	}
	wantNames := []string{"raw", "paid", "by_customer", "top", "report"}
	for i, want := range wantNames {
		if res.Doc.Steps[i].Name != want {
			t.Errorf("step %d: expected name %q, got %q", i, want, res.Doc.Steps[i].Name)
		}
	}
}

func TestParse_Operators(t *testing.T) {
	res := Parse(validFlow, Options{})
	if !res.OK {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	steps := res.Doc.Steps

	load, ok := steps[0].Op.(LoadCSV)
	if !ok || load.Input != "sales_csv" {
		t.Errorf("unexpected LOAD operation: %+v", steps[0].Op)
	}

	filter, ok := steps[1].Op.(Filter)
	if !ok {
		t.Fatalf("expected Filter, got %T", steps[1].Op)
	}
	if filter.Ref != "raw" || filter.Field != "status" || filter.Cmp != CmpEq {
		t.Errorf("unexpected filter: %+v", filter)
	}
	if filter.Literal.Kind != LiteralString || filter.Literal.Str != "paid" {
		t.Errorf("unexpected filter literal: %+v", filter.Literal)
	}

	group, ok := steps[2].Op.(Group)
	if !ok {
		t.Fatalf("expected Group, got %T", steps[2].Op)
	}
	wantAggs := []Agg{
		{Fn: AggSum, Field: "amount", Alias: "total_amount"},
		{Fn: AggCount, Field: "*", Alias: "orders"},
	}
	if group.Ref != "paid" || group.By != "customer" || !reflect.DeepEqual(group.Aggs, wantAggs) {
		t.Errorf("unexpected group: %+v", group)
	}

	sort, ok := steps[3].Op.(Sort)
	if !ok {
		t.Fatalf("expected Sort, got %T", steps[3].Op)
	}
	if sort.Ref != "by_customer" || sort.Field != "total_amount" || !sort.Desc {
		t.Errorf("unexpected sort: %+v", sort)
	}
	if !sort.HasTake || sort.Take != 2 {
		t.Errorf("expected TAKE 2, got %+v", sort)
	}

	out, ok := steps[4].Op.(Output)
	if !ok || out.Ref != "top" || out.Name != "revenue_report" {
		t.Errorf("unexpected output: %+v", steps[4].Op)
	}
}

func TestParse_ApxExecPayload(t *testing.T) {
	src := `FLOW "Deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing", replicas: 3, nested: {debug: true}, from: manifest_input.meta}
STEP pkg = BUILD VPKG manifest
STEP live = DEPLOY SERVICE pkg "billing-v2"
STEP note = OUTPUT_TEXT manifest.status.message
END FLOW
`
	res := Parse(src, Options{})
	if !res.OK {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	apx, ok := res.Doc.Steps[0].Op.(ApxExec)
	if !ok {
		t.Fatalf("expected ApxExec, got %T", res.Doc.Steps[0].Op)
	}
	if apx.Target != "pkg.manifest" {
		t.Errorf("expected target %q, got %q", "pkg.manifest", apx.Target)
	}
	if len(apx.Payload.Entries) != 4 {
		t.Fatalf("expected 4 payload entries, got %d", len(apx.Payload.Entries))
	}
	if apx.Payload.Entries[0].Key != "service" {
		t.Errorf("payload order is not preserved: %+v", apx.Payload.Entries)
	}
	if lit, ok := apx.Payload.Entries[1].Value.(Literal); !ok || lit.Kind != LiteralNumber || lit.Num != 3 {
		t.Errorf("unexpected replicas value: %+v", apx.Payload.Entries[1].Value)
	}
	nested, ok := apx.Payload.Entries[2].Value.(*ObjectLit)
	if !ok || len(nested.Entries) != 1 || nested.Entries[0].Key != "debug" {
		t.Errorf("unexpected nested object: %+v", apx.Payload.Entries[2].Value)
	}
	if ref, ok := apx.Payload.Entries[3].Value.(Ref); !ok || !reflect.DeepEqual(ref.Path, []string{"manifest_input", "meta"}) {
		t.Errorf("unexpected payload reference: %+v", apx.Payload.Entries[3].Value)
	}

	if bld, ok := res.Doc.Steps[1].Op.(BuildVpkg); !ok || bld.Ref != "manifest" {
		t.Errorf("unexpected BUILD VPKG: %+v", res.Doc.Steps[1].Op)
	}
	if dep, ok := res.Doc.Steps[2].Op.(DeployService); !ok || dep.Ref != "pkg" || dep.ServiceName != "billing-v2" {
		t.Errorf("unexpected DEPLOY SERVICE: %+v", res.Doc.Steps[2].Op)
	}
	if txt, ok := res.Doc.Steps[3].Op.(OutputText); !ok || !reflect.DeepEqual(txt.Path, []string{"manifest", "status", "message"}) {
		t.Errorf("unexpected OUTPUT_TEXT: %+v", res.Doc.Steps[3].Op)
	}
}

func TestParse_MissingHeader(t *testing.T) {
	res := Parse("STEP a = LOAD CSV FROM x\nEND FLOW\n", Options{})
	if res.OK {
		t.Fatal("expected parse failure")
	}
	if res.Doc != nil {
		t.Error("Doc must be nil on failure")
	}
	if len(res.Errors) == 0 || !errors.Is(&res.Errors[0], ErrNoHeader) {
		t.Errorf("expected ErrNoHeader, got %v", res.Errors)
	}
}

func TestParse_MissingTerminator(t *testing.T) {
	res := Parse("FLOW \"x\"\nSTEP a = LOAD CSV FROM src\n", Options{})
	if res.OK {
		t.Fatal("expected parse failure")
	}
	found := false
	for _, e := range res.Errors {
		if errors.Is(&e, ErrNoTerminator) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrNoTerminator, got %v", res.Errors)
	}
}

func TestParse_UnknownOperator(t *testing.T) {
	res := Parse("FLOW \"x\"\nSTEP a = FROBNICATE src\nEND FLOW\n", Options{})
	if res.OK {
		t.Fatal("expected parse failure")
	}
	found := false
	for _, e := range res.Errors {
		if errors.Is(&e, ErrUnknownOperator) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrUnknownOperator, got %v", res.Errors)
	}
}

func TestParse_MalformedStep(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"нет знака равенства", `STEP a LOAD CSV FROM src`},
		{"FILTER без литерала", `STEP a = FILTER src WHERE x ==`},
		{"GROUP без AGG", "STEP a = GROUP src BY x"},
		{"AGG sum(*)", "STEP a = GROUP src BY x\n  AGG sum(*) AS s"},
		{"TAKE не число", "STEP a = SORT src BY x\n  TAKE many"},
		{"OUTPUT без кавычек", `STEP a = OUTPUT src AS report`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "FLOW \"x\"\n" + tc.body + "\nEND FLOW\n"
			res := Parse(src, Options{})
			if res.OK {
				t.Fatal("expected parse failure")
			}
			found := false
			for _, e := range res.Errors {
				if errors.Is(&e, ErrMalformedStep) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected ErrMalformedStep, got %v", res.Errors)
			}
		})
	}
}

func TestParse_DuplicateNames(t *testing.T) {
	src := `FLOW "x"
INPUTS
  file data
END INPUTS
STEP data = LOAD CSV FROM data
END FLOW
`
	res := Parse(src, Options{})
	if res.OK {
		t.Fatal("expected parse failure: step shadows input name")
	}
	if len(res.Errors) != 1 || !errors.Is(&res.Errors[0], ErrDuplicateName) {
		t.Errorf("expected single ErrDuplicateName, got %v", res.Errors)
	}
}

func TestParse_ErrorRecovery(t *testing.T) {
	// После сломанного шага разбор продолжается со следующего STEP
	src := `FLOW "x"
STEP broken = FILTER src WHERE
STEP also_broken = FROBNICATE src
STEP fine = LOAD CSV FROM src
END FLOW
`
	res := Parse(src, Options{})
	if res.OK {
		t.Fatal("expected parse failure")
	}
	if len(res.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(res.Errors), res.Errors)
	}
	// Ошибки позиционированы по строкам исходника
	if len(res.Errors) > 0 && res.Errors[0].Line != 2 {
		t.Errorf("expected first error on line 2, got %d", res.Errors[0].Line)
	}
}

func TestParse_UnknownInputKind(t *testing.T) {
	src := "FLOW \"x\"\nINPUTS\n  blob data\nEND INPUTS\nSTEP a = LOAD CSV FROM data\nEND FLOW\n"

	// Нестрогий режим: предупреждение, разбор успешен
	res := Parse(src, Options{})
	if !res.OK {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "blob") {
		t.Errorf("expected warning about unknown kind, got %v", res.Warnings)
	}

	// Строгий режим: ошибка
	strict := Parse(src, Options{Strict: true})
	if strict.OK {
		t.Fatal("expected failure in strict mode")
	}
}

func TestParse_Deterministic(t *testing.T) {
	first := Parse(validFlow, Options{})
	for i := 0; i < 5; i++ {
		again := Parse(validFlow, Options{})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("parse is not deterministic on run %d", i)
		}
	}
}

func TestParse_Spans(t *testing.T) {
	res := Parse(validFlow, Options{})
	if !res.OK {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	// Многострочный GROUP покрывает строки своих AGG
	group := res.Doc.Steps[2]
	if group.Span.StartLine >= group.Span.EndLine {
		t.Errorf("expected multi-line span for GROUP, got %+v", group.Span)
	}
	// Однострочный шаг занимает одну строку
	load := res.Doc.Steps[0]
	if load.Span.StartLine != load.Span.EndLine {
		t.Errorf("expected single-line span for LOAD, got %+v", load.Span)
	}
}
