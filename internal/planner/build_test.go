package planner

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/voike/voike/internal/parser"
)

// mustParse разбирает исходник или проваливает тест.
func mustParse(t *testing.T, src string) *parser.Document {
	t.Helper()
	res := parser.Parse(src, parser.Options{})
	if !res.OK {
		t.Fatalf("parse failed: %v", res.Errors)
	}
	return res.Doc
}

const revenueFlow = `FLOW "Monthly Revenue"
INPUTS
  file sales_csv
END INPUTS
STEP raw = LOAD CSV FROM sales_csv
STEP paid = FILTER raw WHERE status == "paid"
STEP by_customer = GROUP paid BY customer
  AGG sum(amount) AS total_amount
STEP top = SORT by_customer BY total_amount DESC
  TAKE 2
STEP report = OUTPUT top AS "revenue_report"
END FLOW
`

func TestBuild_NodeAndEdgeCounts(t *testing.T) {
	g, err := Build(mustParse(t, revenueFlow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Узел на каждый шаг, ребро на каждую разрешённую зависимость
	if len(g.Nodes) != 5 {
		t.Errorf("expected 5 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 5 {
		t.Errorf("expected 5 edges, got %d", len(g.Edges))
	}

	// Идентификаторы и операторы
	raw := g.NodeByID("step:raw")
	if raw == nil {
		t.Fatal("node step:raw not found")
	}
	if raw.Op != "LOAD_CSV@1.0" {
		t.Errorf("expected op LOAD_CSV@1.0, got %s", raw.Op)
	}
	if !reflect.DeepEqual(raw.Inputs, []string{"sales_csv"}) {
		t.Errorf("unexpected inputs: %v", raw.Inputs)
	}
	if !reflect.DeepEqual(raw.Outputs, []string{"raw"}) {
		t.Errorf("unexpected outputs: %v", raw.Outputs)
	}

	// Вход — лист: ребро идёт от input:sales_csv
	if e := g.Edges[0]; e.From != "input:sales_csv" || e.To != "step:raw" || e.Via != "sales_csv" {
		t.Errorf("unexpected first edge: %+v", e)
	}
	if e := g.Edges[1]; e.From != "step:raw" || e.To != "step:paid" || e.Via != "raw" {
		t.Errorf("unexpected second edge: %+v", e)
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	src := `FLOW "x"
STEP a = LOAD CSV FROM missing_input
END FLOW
`
	g, err := Build(mustParse(t, src))
	if err == nil {
		t.Fatal("expected error")
	}
	if g != nil {
		t.Error("no partial graph must be returned")
	}
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}
	// Сообщение называет идентификатор и шаг
	if msg := err.Error(); !strings.Contains(msg, "unknown dependency: missing_input") || !strings.Contains(msg, "step a") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestBuild_ForwardReferenceFails(t *testing.T) {
	// Ссылка вперёд не разрешается: зависимости только назад
	src := `FLOW "x"
INPUTS
  file data
END INPUTS
STEP a = FILTER b WHERE x == 1
STEP b = LOAD CSV FROM data
END FLOW
`
	_, err := Build(mustParse(t, src))
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}

	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *DependencyError, got %T", err)
	}
	if depErr.Name != "b" || depErr.Step != "a" {
		t.Errorf("unexpected error fields: %+v", depErr)
	}
}

func TestBuild_PayloadReferences(t *testing.T) {
	src := `FLOW "deploy"
INPUTS
  text env
END INPUTS
STEP manifest = APX_EXEC "pkg.manifest" WITH {target: env, opts: {region: env, tag: "v1"}}
STEP pkg = BUILD VPKG manifest
END FLOW
`
	g, err := Build(mustParse(t, src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// env встречается в нагрузке дважды, но зависимость одна
	manifest := g.NodeByID("step:manifest")
	if !reflect.DeepEqual(manifest.Inputs, []string{"env"}) {
		t.Errorf("unexpected inputs: %v", manifest.Inputs)
	}
	if len(g.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(g.Edges))
	}
}

func TestBuild_UnknownPayloadReference(t *testing.T) {
	src := `FLOW "deploy"
STEP manifest = APX_EXEC "pkg.manifest" WITH {target: nowhere}
END FLOW
`
	_, err := Build(mustParse(t, src))
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}
}

func TestBuild_EmptyDocument(t *testing.T) {
	doc := &parser.Document{Name: "empty"}
	if _, err := Build(doc); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := Build(nil); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument for nil, got %v", err)
	}
}

func TestBuild_CostMonotonic(t *testing.T) {
	short := mustParse(t, `FLOW "x"
INPUTS
  file data
END INPUTS
STEP raw = LOAD CSV FROM data
END FLOW
`)
	long := mustParse(t, revenueFlow)

	gShort, err := Build(short)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gLong, err := Build(long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Конкретные значения не контрактны, монотонность — да
	if gShort.TotalCost() >= gLong.TotalCost() {
		t.Errorf("expected cost to grow with step count: %d >= %d", gShort.TotalCost(), gLong.TotalCost())
	}
	for _, n := range gLong.Nodes {
		if n.Meta.EstimatedCost < 1 {
			t.Errorf("node %s has non-positive cost %d", n.ID, n.Meta.EstimatedCost)
		}
	}
}

func TestTopoOrder_MatchesDeclarationOrder(t *testing.T) {
	g, err := Build(mustParse(t, revenueFlow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"step:raw", "step:paid", "step:by_customer", "step:top", "step:report"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected order %v, got %v", want, order)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	doc := mustParse(t, revenueFlow)
	first, err := Build(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Build(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("plan is not deterministic on run %d", i)
		}
	}
}
