package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/voike/voike/internal/engine"
)

const countFlow = `FLOW "Count Paid"
INPUTS
  file sales_csv
END INPUTS
STEP raw = LOAD CSV FROM sales_csv
STEP paid = FILTER raw WHERE status == "paid"
STEP out = OUTPUT paid AS "paid_rows"
END FLOW
`

func TestCompile_Valid(t *testing.T) {
	compiled, err := Compile(countFlow)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if compiled.Doc.Name != "Count Paid" {
		t.Errorf("name = %q", compiled.Doc.Name)
	}
	if len(compiled.Graph.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(compiled.Graph.Nodes))
	}
}

func TestCompile_ParseFailed(t *testing.T) {
	_, err := Compile("STEP x = LOAD CSV FROM y\n")
	var pf *ParseFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("err = %v, want *ParseFailedError", err)
	}
	if len(pf.Errors) == 0 {
		t.Fatal("expected parse errors")
	}
}

func TestCompile_PlanFailed(t *testing.T) {
	src := `FLOW "Bad"
STEP a = FILTER missing WHERE x == "1"
END FLOW
`
	_, err := Compile(src)
	if err == nil {
		t.Fatal("expected planner error")
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	inputs := map[string]string{
		"sales_csv": "customer,status\nC1,paid\nC2,pending\n",
	}

	res, err := Execute(context.Background(), countFlow, inputs, engine.Collaborators{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out, ok := res.Outputs["paid_rows"]
	if !ok {
		t.Fatal("missing output paid_rows")
	}
	if len(out.Table) != 1 || out.Table[0]["customer"] != "C1" {
		t.Errorf("table = %v", out.Table)
	}
	if res.Metrics.NodesExecuted != 3 {
		t.Errorf("nodes executed = %d, want 3", res.Metrics.NodesExecuted)
	}
}
