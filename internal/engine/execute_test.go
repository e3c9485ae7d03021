package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/voike/voike/internal/parser"
	"github.com/voike/voike/internal/planner"
)

const salesCSV = `customer,amount,status
C1,120,paid
C2,40,paid
C1,60,paid
C3,200,pending
C4,55,paid
`

// mustPlan разбирает и планирует исходник или проваливает тест.
func mustPlan(t *testing.T, src string) *planner.Graph {
	t.Helper()
	res := parser.Parse(src, parser.Options{})
	if !res.OK {
		t.Fatalf("parse failed: %v", res.Errors)
	}
	g, err := planner.Build(res.Doc)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	return g
}

func TestExecute_RevenuePipeline(t *testing.T) {
	plan := mustPlan(t, `FLOW "Monthly Revenue"
INPUTS
  file sales_csv
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
`)

	res, err := Execute(context.Background(), plan, map[string]string{"sales_csv": salesCSV}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Mode != ModeSync {
		t.Errorf("expected mode sync, got %s", res.Mode)
	}
	if res.Metrics.NodesExecuted != 5 {
		t.Errorf("expected 5 nodes executed, got %d", res.Metrics.NodesExecuted)
	}

	report, ok := res.Outputs["revenue_report"]
	if !ok {
		t.Fatalf("output revenue_report is missing, have %v", res.Outputs)
	}
	if report.Kind != ValueTable {
		t.Fatalf("expected table output, got kind %d", report.Kind)
	}

	// DESC по total_amount, TAKE 2: C1=180 (2 заказа), затем C4=55
	want := Table{
		{"customer": "C1", "total_amount": 180.0, "orders": 2.0},
		{"customer": "C4", "total_amount": 55.0, "orders": 1.0},
	}
	if !reflect.DeepEqual(report.Table, want) {
		t.Errorf("unexpected report:\n got %v\nwant %v", report.Table, want)
	}
}

func TestExecute_GroupFirstSeenOrder(t *testing.T) {
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file sales_csv
END INPUTS
STEP raw = LOAD CSV FROM sales_csv
STEP paid = FILTER raw WHERE status == "paid"
STEP by_customer = GROUP paid BY customer
  AGG sum(amount) AS total_amount
STEP report = OUTPUT by_customer AS "grouped"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{"sales_csv": salesCSV}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := res.Outputs["grouped"].Table
	want := Table{
		{"customer": "C1", "total_amount": 180.0},
		{"customer": "C2", "total_amount": 40.0},
		{"customer": "C4", "total_amount": 55.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected grouping:\n got %v\nwant %v", got, want)
	}
}

func TestExecute_FilterIdempotent(t *testing.T) {
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file sales_csv
END INPUTS
STEP raw = LOAD CSV FROM sales_csv
STEP once = FILTER raw WHERE status == "paid"
STEP twice = FILTER once WHERE status == "paid"
STEP a = OUTPUT once AS "once"
STEP b = OUTPUT twice AS "twice"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{"sales_csv": salesCSV}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.Outputs["once"], res.Outputs["twice"]) {
		t.Error("re-filtering with the same predicate must be a no-op")
	}
}

func TestExecute_LoadOutputRoundTrip(t *testing.T) {
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file data
END INPUTS
STEP raw = LOAD CSV FROM data
STEP out = OUTPUT raw AS "echo"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{"data": salesCSV}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	echo := res.Outputs["echo"].Table
	if len(echo) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(echo))
	}
	if echo[0]["customer"] != "C1" || echo[0]["amount"] != "120" || echo[0]["status"] != "paid" {
		t.Errorf("unexpected first row: %v", echo[0])
	}
	if echo[3]["status"] != "pending" {
		t.Errorf("row order is not preserved: %v", echo)
	}
}

func TestExecute_NumericFilter(t *testing.T) {
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file data
END INPUTS
STEP raw = LOAD CSV FROM data
STEP big = FILTER raw WHERE amount >= 100
STEP out = OUTPUT big AS "big"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{"data": salesCSV}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	big := res.Outputs["big"].Table
	if len(big) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(big), big)
	}
	if big[0]["customer"] != "C1" || big[1]["customer"] != "C3" {
		t.Errorf("unexpected rows: %v", big)
	}
}

func TestExecute_MissingInput(t *testing.T) {
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file data
END INPUTS
STEP raw = LOAD CSV FROM data
STEP out = OUTPUT raw AS "echo"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{}, Collaborators{})
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Error("no partial result must be returned")
	}
	if !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput, got %v", err)
	}

	// Ошибка называет шаг и оператор
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Step != "raw" || stepErr.Op != "LOAD_CSV" {
		t.Errorf("unexpected step error fields: %+v", stepErr)
	}
}

func TestExecute_ApxExecPayloadAndOutputText(t *testing.T) {
	plan := mustPlan(t, `FLOW "deploy"
INPUTS
  text env
END INPUTS
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing", target: env, replicas: 3}
STEP note = OUTPUT_TEXT manifest.status.message
END FLOW
`)

	calls := 0
	var gotTarget string
	var gotPayload map[string]any
	var observed []string

	collab := Collaborators{
		ExecuteAgentCall: func(_ context.Context, target string, payload map[string]any) (map[string]any, error) {
			calls++
			gotTarget = target
			gotPayload = payload
			return map[string]any{
				"status": map[string]any{"message": "manifest ready"},
			}, nil
		},
		ObserveText: func(text string, _ map[string]any) {
			observed = append(observed, text)
		},
	}

	res, err := Execute(context.Background(), plan, map[string]string{"env": "staging"}, collab)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Коллаборатор вызван ровно один раз с разрешённой нагрузкой
	if calls != 1 {
		t.Errorf("expected 1 collaborator call, got %d", calls)
	}
	if gotTarget != "pkg.manifest" {
		t.Errorf("unexpected target %q", gotTarget)
	}
	wantPayload := map[string]any{"service": "billing", "target": "staging", "replicas": 3.0}
	if !reflect.DeepEqual(gotPayload, wantPayload) {
		t.Errorf("unexpected payload:\n got %v\nwant %v", gotPayload, wantPayload)
	}

	// Результат коллаборатора достижим через OUTPUT_TEXT
	note, ok := res.Outputs["manifest.status.message"]
	if !ok || note.Scalar != "manifest ready" {
		t.Errorf("unexpected text output: %+v", res.Outputs)
	}
	if !reflect.DeepEqual(observed, []string{"manifest ready"}) {
		t.Errorf("unexpected observer calls: %v", observed)
	}
}

func TestExecute_BuildAndDeploy(t *testing.T) {
	plan := mustPlan(t, `FLOW "deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing"}
STEP pkg = BUILD VPKG manifest
STEP live = DEPLOY SERVICE pkg "billing-v2"
STEP endpoint = OUTPUT_TEXT live.endpoint
END FLOW
`)

	collab := Collaborators{
		ExecuteAgentCall: func(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
			return map[string]any{"service": "billing"}, nil
		},
		BuildPackage: func(_ context.Context, manifest any) (map[string]any, error) {
			m, ok := manifest.(map[string]any)
			if !ok || m["service"] != "billing" {
				return nil, fmt.Errorf("unexpected manifest: %v", manifest)
			}
			return map[string]any{"packageId": "vpkg-1"}, nil
		},
		DeployService: func(_ context.Context, artifact any, serviceName string) (map[string]any, error) {
			m, ok := artifact.(map[string]any)
			if !ok || m["packageId"] != "vpkg-1" {
				return nil, fmt.Errorf("unexpected artifact: %v", artifact)
			}
			return map[string]any{
				"serviceName": serviceName,
				"endpoint":    "https://billing-v2.svc.local",
			}, nil
		},
	}

	res, err := Execute(context.Background(), plan, nil, collab)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Outputs["live.endpoint"].Scalar; got != "https://billing-v2.svc.local" {
		t.Errorf("unexpected endpoint output: %v", got)
	}
}

func TestExecute_CollaboratorFailureIsFatal(t *testing.T) {
	plan := mustPlan(t, `FLOW "deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing"}
STEP note = OUTPUT_TEXT manifest.status
END FLOW
`)

	collab := Collaborators{
		ExecuteAgentCall: func(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
			return nil, errors.New("agent unavailable")
		},
	}

	res, err := Execute(context.Background(), plan, nil, collab)
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Error("failed run must not return partial outputs")
	}
	if !errors.Is(err, ErrCollaborator) {
		t.Errorf("expected ErrCollaborator, got %v", err)
	}
	if !strings.Contains(err.Error(), "step manifest") || !strings.Contains(err.Error(), "APX_EXEC") {
		t.Errorf("error must name step and operator: %v", err)
	}
}

func TestExecute_MissingCollaborator(t *testing.T) {
	plan := mustPlan(t, `FLOW "deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing"}
END FLOW
`)

	_, err := Execute(context.Background(), plan, nil, Collaborators{})
	if !errors.Is(err, ErrNoCollaborator) {
		t.Errorf("expected ErrNoCollaborator, got %v", err)
	}
}

func TestExecute_UnresolvedPathIsFatal(t *testing.T) {
	plan := mustPlan(t, `FLOW "deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing"}
STEP note = OUTPUT_TEXT manifest.no.such.field
END FLOW
`)

	collab := Collaborators{
		ExecuteAgentCall: func(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
			return map[string]any{"status": "ok"}, nil
		},
	}

	res, err := Execute(context.Background(), plan, nil, collab)
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Error("failed run must not return partial outputs")
	}
	if !errors.Is(err, ErrUnresolvedPath) {
		t.Errorf("expected ErrUnresolvedPath, got %v", err)
	}
}

func TestExecute_SortStable(t *testing.T) {
	csv := "name,rank\nb,1\na,1\nc,1\n"
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file data
END INPUTS
STEP raw = LOAD CSV FROM data
STEP sorted = SORT raw BY rank
STEP out = OUTPUT sorted AS "sorted"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{"data": csv}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Равные ключи сохраняют исходный порядок строк
	got := res.Outputs["sorted"].Table
	names := []string{}
	for _, row := range got {
		names = append(names, row["name"].(string))
	}
	if !reflect.DeepEqual(names, []string{"b", "a", "c"}) {
		t.Errorf("sort is not stable: %v", names)
	}
}

func TestExecute_OutputStepIsReferenceable(t *testing.T) {
	// Планировщик разрешает ссылку на любой более ранний шаг,
	// включая OUTPUT: такой шаг прозрачен для последующих.
	plan := mustPlan(t, `FLOW "x"
INPUTS
  file sales_csv
END INPUTS
STEP raw = LOAD CSV FROM sales_csv
STEP echoed = OUTPUT raw AS "echo"
STEP paid = FILTER echoed WHERE status == "paid"
STEP report = OUTPUT paid AS "paid_rows"
END FLOW
`)

	res, err := Execute(context.Background(), plan, map[string]string{"sales_csv": salesCSV}, Collaborators{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := res.Outputs["paid_rows"]
	if report.Kind != ValueTable || len(report.Table) != 4 {
		t.Fatalf("unexpected paid_rows: %+v", report)
	}

	// OUTPUT не меняет значение: "echo" и вход FILTER — одна таблица
	if !reflect.DeepEqual(res.Outputs["echo"].Table, mustRows(salesCSV)) {
		t.Errorf("echo output diverged from loaded table")
	}
}

// mustRows разбирает CSV так же, как LOAD CSV.
func mustRows(raw string) Table {
	rows, err := parseCSV(raw)
	if err != nil {
		panic(err)
	}
	return rows
}

func TestExecute_OutputTextStepIsReferenceable(t *testing.T) {
	plan := mustPlan(t, `FLOW "deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {service: "billing"}
STEP note = OUTPUT_TEXT manifest.status.message
STEP copy = OUTPUT note AS "note_copy"
END FLOW
`)

	collab := Collaborators{
		ExecuteAgentCall: func(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
			return map[string]any{
				"status": map[string]any{"message": "manifest ready"},
			}, nil
		},
	}

	res, err := Execute(context.Background(), plan, nil, collab)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Шаг OUTPUT_TEXT материализует разрешённый текст как скаляр
	copied, ok := res.Outputs["note_copy"]
	if !ok || copied.Kind != ValueScalar || copied.Scalar != "manifest ready" {
		t.Errorf("unexpected note_copy: %+v", copied)
	}
}
