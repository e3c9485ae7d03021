package planner

import (
	"github.com/voike/voike/internal/parser"
)

// Build строит граф плана из разобранного документа.
//
// Шаги обрабатываются в порядке объявления; каждая ссылка шага
// разрешается против множества уже объявленных имён (входы плюс
// предыдущие шаги). Первая неразрешённая ссылка прерывает построение:
// частичный граф не возвращается.
func Build(doc *parser.Document) (*Graph, error) {
	if doc == nil || len(doc.Steps) == 0 {
		return nil, ErrEmptyDocument
	}

	// declared: имя → идентификатор производителя ("input:x" или "step:x")
	declared := make(map[string]string, len(doc.Inputs)+len(doc.Steps))
	for _, in := range doc.Inputs {
		declared[in.Name] = "input:" + in.Name
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(doc.Steps)),
	}

	for _, step := range doc.Steps {
		deps := dependencies(step.Op)

		node := Node{
			ID:      "step:" + step.Name,
			Op:      step.Op.Keyword() + "@" + opVersion,
			Inputs:  make([]string, 0, len(deps)),
			Outputs: []string{step.Name},
			Meta: Meta{
				Config:        Config{Kind: step.Op.Keyword(), Args: step.Op},
				EstimatedCost: estimateCost(step.Op),
			},
		}

		for _, dep := range deps {
			from, ok := declared[dep]
			if !ok {
				return nil, &DependencyError{Name: dep, Step: step.Name}
			}
			node.Inputs = append(node.Inputs, dep)
			g.Edges = append(g.Edges, Edge{From: from, To: node.ID, Via: dep})
		}

		g.Nodes = append(g.Nodes, node)
		declared[step.Name] = node.ID
	}

	return g, nil
}

// dependencies возвращает имена, от которых зависит операция,
// в порядке обнаружения и без повторов.
func dependencies(op parser.Op) []string {
	var deps []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}

	switch o := op.(type) {
	case parser.LoadCSV:
		add(o.Input)
	case parser.Filter:
		add(o.Ref)
	case parser.Group:
		add(o.Ref)
	case parser.Sort:
		add(o.Ref)
	case parser.Output:
		add(o.Ref)
	case parser.OutputText:
		add(o.Path[0])
	case parser.ApxExec:
		collectPayloadRefs(o.Payload, add)
	case parser.BuildVpkg:
		add(o.Ref)
	case parser.DeployService:
		add(o.Ref)
	}
	return deps
}

// collectPayloadRefs обходит объектный литерал и собирает головные
// сегменты всех ссылок.
func collectPayloadRefs(lit *parser.ObjectLit, add func(string)) {
	if lit == nil {
		return
	}
	for _, entry := range lit.Entries {
		switch v := entry.Value.(type) {
		case parser.Ref:
			add(v.Path[0])
		case *parser.ObjectLit:
			collectPayloadRefs(v, add)
		}
	}
}

// estimateCost возвращает эвристическую стоимость операции.
// Значения подобраны так, чтобы суммарная стоимость плана росла
// с числом и сложностью шагов.
func estimateCost(op parser.Op) int {
	switch o := op.(type) {
	case parser.LoadCSV:
		return 5
	case parser.Filter:
		return 2
	case parser.Group:
		return 4 + len(o.Aggs)
	case parser.Sort:
		if o.HasTake {
			return 4
		}
		return 3
	case parser.Output, parser.OutputText:
		return 1
	case parser.ApxExec:
		return 8
	case parser.BuildVpkg:
		return 6
	case parser.DeployService:
		return 6
	default:
		return 1
	}
}

// TopoOrder возвращает идентификаторы узлов в топологическом порядке,
// с разрешением неоднозначностей по порядку объявления (алгоритм Кана).
//
// Для графа, построенного Build, результат совпадает с порядком
// объявления шагов: зависимости разрешаются только назад.
func (g *Graph) TopoOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		indegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		// Рёбра от входов не влияют на порядок узлов
		if _, ok := indegree[e.To]; ok {
			if _, producer := indegree[e.From]; producer {
				indegree[e.To]++
			}
		}
	}

	order := make([]string, 0, len(g.Nodes))
	done := make(map[string]bool, len(g.Nodes))

	for len(order) < len(g.Nodes) {
		progressed := false
		// Проход в порядке объявления даёт детерминированные ничьи
		for _, n := range g.Nodes {
			if done[n.ID] || indegree[n.ID] != 0 {
				continue
			}
			done[n.ID] = true
			order = append(order, n.ID)
			progressed = true
			for _, e := range g.Edges {
				if e.From == n.ID {
					indegree[e.To]--
				}
			}
		}
		if !progressed {
			return nil, ErrCycle
		}
	}

	return order, nil
}
