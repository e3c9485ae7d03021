// Package planner строит из AST документа FLOW граф плана выполнения.
//
// Узлы графа соответствуют шагам документа один к одному, рёбра —
// разрешённым зависимостям между ними. Входы документа узлами не
// становятся: они листья, от которых идут рёбра к потребляющим шагам.
package planner

import "github.com/voike/voike/internal/parser"

// opVersion — версия схемы операторов в идентификаторах узлов.
// Константа дизайна, пользователем не задаётся.
const opVersion = "1.0"

// Graph — ацикличный граф плана выполнения.
//
// Инварианты: |Nodes| == числу шагов документа; |Edges| == сумме
// разрешённых зависимостей; порядок Nodes совпадает с порядком
// объявления шагов.
type Graph struct {
	// Nodes — узлы в порядке объявления шагов.
	Nodes []Node `json:"nodes"`

	// Edges — рёбра, по одному на пару (производитель, потребитель).
	Edges []Edge `json:"edges"`
}

// Node — один узел плана, соответствующий шагу документа.
type Node struct {
	// ID — идентификатор узла: "step:" + имя шага.
	ID string `json:"id"`

	// Op — каноническое имя оператора с версией, например "FILTER@1.0".
	Op string `json:"op"`

	// Inputs — имена зависимостей в порядке обнаружения, без повторов.
	Inputs []string `json:"inputs"`

	// Outputs — имена, которые материализует узел. Обычно одно — имя шага.
	Outputs []string `json:"outputs"`

	// Meta — конфигурация оператора и оценка стоимости.
	Meta Meta `json:"meta"`
}

// Meta — метаданные узла плана.
type Meta struct {
	// Config — аргументы оператора с дискриминатором вида.
	Config Config `json:"config"`

	// EstimatedCost — детерминированная эвристика стоимости.
	// Гарантируется только монотонность: больше шагов — больше
	// суммарная стоимость; на конкретные значения полагаться нельзя.
	EstimatedCost int `json:"estimatedCost"`
}

// Config — конфигурация оператора узла.
//
// Kind повторяет каноническое имя оператора и служит дискриминатором
// при обходе плана; Args — разобранная операция шага.
type Config struct {
	// Kind — вид оператора: "LOAD_CSV", "FILTER", ...
	Kind string `json:"kind"`

	// Args — операция из AST.
	Args parser.Op `json:"args"`
}

// Edge — ребро зависимости.
type Edge struct {
	// From — идентификатор производителя: "step:<имя>" или "input:<имя>".
	From string `json:"from"`

	// To — идентификатор потребителя: всегда "step:<имя>".
	To string `json:"to"`

	// Via — имя зависимости, через которую связаны узлы.
	Via string `json:"via"`
}

// TotalCost возвращает суммарную оценку стоимости плана.
func (g *Graph) TotalCost() int {
	total := 0
	for _, n := range g.Nodes {
		total += n.Meta.EstimatedCost
	}
	return total
}

// NodeByID возвращает узел по идентификатору или nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}
