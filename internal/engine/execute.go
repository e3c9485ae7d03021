package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/voike/voike/internal/parser"
	"github.com/voike/voike/internal/planner"
)

// Mode — режим выполнения запуска.
type Mode string

// Режимы выполнения.
const (
	// ModeSync — блокирующее выполнение до завершения.
	ModeSync Mode = "sync"

	// ModeAsync — выполнение под внешним планировщиком заданий,
	// сохраняющим те же гарантии порядка. Ядро определяет только
	// синхронный контракт; асинхронность — тонкая обёртка воркера.
	ModeAsync Mode = "async"
)

// Metrics — метрики завершённого запуска.
type Metrics struct {
	// NodesExecuted — число выполненных узлов плана.
	NodesExecuted int `json:"nodesExecuted"`

	// ElapsedMs — длительность запуска в миллисекундах.
	ElapsedMs int64 `json:"elapsedMs"`
}

// Result — результат успешного запуска.
type Result struct {
	// Mode — режим, в котором шёл запуск.
	Mode Mode `json:"mode"`

	// Outputs — именованные выходы, зарегистрированные
	// терминальными операторами.
	Outputs map[string]Value `json:"outputs"`

	// Metrics — метрики запуска.
	Metrics Metrics `json:"metrics"`
}

// Execute выполняет план синхронно, до завершения.
//
// inputs — отображение имени объявленного входа в его сырое содержимое;
// ядро само не читает ни файлов, ни сети. Отсутствующий необязательный
// вход просто не материализуется: обращение к нему позже — фатальная
// ошибка запуска. Любая ошибка оператора или коллаборатора прерывает
// запуск целиком: Result тогда nil, ошибка — *StepError с именем шага
// и оператора.
func Execute(ctx context.Context, plan *planner.Graph, inputs map[string]string, collab Collaborators) (*Result, error) {
	started := time.Now()

	order, err := plan.TopoOrder()
	if err != nil {
		return nil, err
	}

	r := &runner{
		ctx:     ctx,
		inputs:  inputs,
		collab:  collab,
		ectx:    make(map[string]Value, len(inputs)+len(plan.Nodes)),
		outputs: make(map[string]Value),
	}
	for name, raw := range inputs {
		r.ectx[name] = NewScalar(raw)
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := plan.NodeByID(id)
		step := strings.TrimPrefix(id, "step:")
		if err := r.execNode(step, node); err != nil {
			return nil, &StepError{Step: step, Op: node.Meta.Config.Kind, Err: err}
		}
	}

	return &Result{
		Mode:    ModeSync,
		Outputs: r.outputs,
		Metrics: Metrics{
			NodesExecuted: len(order),
			ElapsedMs:     time.Since(started).Milliseconds(),
		},
	}, nil
}

// runner — состояние одного запуска. Между запусками не разделяется.
type runner struct {
	ctx    context.Context
	inputs map[string]string
	collab Collaborators

	// ectx — контекст выполнения: имя → материализованное значение.
	ectx map[string]Value

	// outputs — зарегистрированные именованные выходы.
	outputs map[string]Value
}

// execNode выполняет один узел плана. Разбор по вариантам операции
// исчерпывающий: новый оператор — новая ветвь.
func (r *runner) execNode(step string, node *planner.Node) error {
	switch op := node.Meta.Config.Args.(type) {
	case parser.LoadCSV:
		return r.execLoadCSV(step, op)
	case parser.Filter:
		return r.execFilter(step, op)
	case parser.Group:
		return r.execGroup(step, op)
	case parser.Sort:
		return r.execSort(step, op)
	case parser.Output:
		return r.execOutput(step, op)
	case parser.OutputText:
		return r.execOutputText(step, op)
	case parser.ApxExec:
		return r.execApxExec(step, op)
	case parser.BuildVpkg:
		return r.execBuildVpkg(step, op)
	case parser.DeployService:
		return r.execDeployService(step, op)
	default:
		return fmt.Errorf("unsupported operation %T", node.Meta.Config.Args)
	}
}

// lookup возвращает материализованное значение по имени.
func (r *runner) lookup(name string) (Value, error) {
	v, ok := r.ectx[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrNotMaterialized, name)
	}
	return v, nil
}

// table возвращает материализованную таблицу по имени.
func (r *runner) table(name string) (Table, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if v.Kind != ValueTable {
		return nil, fmt.Errorf("%w: %s is not a table", ErrTypeMismatch, name)
	}
	return v.Table, nil
}

func (r *runner) execLoadCSV(step string, op parser.LoadCSV) error {
	raw, ok := r.inputs[op.Input]
	if !ok || strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: %s", ErrMissingInput, op.Input)
	}
	table, err := parseCSV(raw)
	if err != nil {
		return err
	}
	r.ectx[step] = NewTable(table)
	return nil
}

func (r *runner) execFilter(step string, op parser.Filter) error {
	table, err := r.table(op.Ref)
	if err != nil {
		return err
	}

	filtered := make(Table, 0, len(table))
	for _, row := range table {
		keep, err := matchRow(row, op)
		if err != nil {
			return err
		}
		if keep {
			filtered = append(filtered, row)
		}
	}
	r.ectx[step] = NewTable(filtered)
	return nil
}

// matchRow проверяет строку против предиката FILTER. Тип сравнения
// задаёт литерал: строка в кавычках сравнивается как строка,
// число — как число.
func matchRow(row Row, op parser.Filter) (bool, error) {
	cell, ok := row[op.Field]
	if !ok {
		return false, fmt.Errorf("%w: row has no field %q", ErrTypeMismatch, op.Field)
	}

	switch op.Literal.Kind {
	case parser.LiteralString:
		return compareStrings(op.Cmp, stringify(cell), op.Literal.Str), nil

	case parser.LiteralNumber:
		n, ok := numeric(cell)
		if !ok {
			return false, fmt.Errorf("%w: field %q value %v is not numeric", ErrTypeMismatch, op.Field, cell)
		}
		return compareFloats(op.Cmp, n, op.Literal.Num), nil

	case parser.LiteralBool:
		if op.Cmp != parser.CmpEq && op.Cmp != parser.CmpNe {
			return false, fmt.Errorf("%w: boolean literal supports only == and !=", ErrTypeMismatch)
		}
		equal := stringify(cell) == stringify(op.Literal.Bool)
		if op.Cmp == parser.CmpNe {
			return !equal, nil
		}
		return equal, nil

	default:
		return false, fmt.Errorf("%w: unsupported literal kind", ErrTypeMismatch)
	}
}

func compareStrings(cmp parser.CmpOp, a, b string) bool {
	switch cmp {
	case parser.CmpEq:
		return a == b
	case parser.CmpNe:
		return a != b
	case parser.CmpGt:
		return a > b
	case parser.CmpLt:
		return a < b
	case parser.CmpGe:
		return a >= b
	default:
		return a <= b
	}
}

func compareFloats(cmp parser.CmpOp, a, b float64) bool {
	switch cmp {
	case parser.CmpEq:
		return a == b
	case parser.CmpNe:
		return a != b
	case parser.CmpGt:
		return a > b
	case parser.CmpLt:
		return a < b
	case parser.CmpGe:
		return a >= b
	default:
		return a <= b
	}
}

func (r *runner) execGroup(step string, op parser.Group) error {
	table, err := r.table(op.Ref)
	if err != nil {
		return err
	}

	// Группы в порядке первого появления ключа
	var order []string
	buckets := make(map[string]Table)
	keys := make(map[string]any)
	for _, row := range table {
		k := stringify(row[op.By])
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
			keys[k] = row[op.By]
		}
		buckets[k] = append(buckets[k], row)
	}

	out := make(Table, 0, len(order))
	for _, k := range order {
		row := Row{op.By: keys[k]}
		for _, agg := range op.Aggs {
			v, err := aggregate(buckets[k], agg)
			if err != nil {
				return err
			}
			row[agg.Alias] = v
		}
		out = append(out, row)
	}
	r.ectx[step] = NewTable(out)
	return nil
}

// aggregate вычисляет одну агрегацию над строками группы.
func aggregate(rows Table, agg parser.Agg) (any, error) {
	if agg.Fn == parser.AggCount {
		return float64(len(rows)), nil
	}

	sum := 0.0
	min := 0.0
	max := 0.0
	for i, row := range rows {
		n, ok := numeric(row[agg.Field])
		if !ok {
			return nil, fmt.Errorf("%w: %s(%s): value %v is not numeric", ErrTypeMismatch, agg.Fn, agg.Field, row[agg.Field])
		}
		sum += n
		if i == 0 || n < min {
			min = n
		}
		if i == 0 || n > max {
			max = n
		}
	}

	switch agg.Fn {
	case parser.AggSum:
		return sum, nil
	case parser.AggAvg:
		if len(rows) == 0 {
			return 0.0, nil
		}
		return sum / float64(len(rows)), nil
	case parser.AggMin:
		return min, nil
	case parser.AggMax:
		return max, nil
	default:
		return nil, fmt.Errorf("unsupported aggregation %q", agg.Fn)
	}
}

func (r *runner) execSort(step string, op parser.Sort) error {
	table, err := r.table(op.Ref)
	if err != nil {
		return err
	}

	sorted := make(Table, len(table))
	copy(sorted, table)

	// Стабильная сортировка: равные ключи сохраняют исходный порядок
	sort.SliceStable(sorted, func(i, j int) bool {
		less := cellLess(sorted[i][op.Field], sorted[j][op.Field])
		if op.Desc {
			return cellLess(sorted[j][op.Field], sorted[i][op.Field])
		}
		return less
	})

	if op.HasTake && len(sorted) > op.Take {
		sorted = sorted[:op.Take]
	}
	r.ectx[step] = NewTable(sorted)
	return nil
}

// cellLess сравнивает ячейки: числа как числа, иначе как строки.
func cellLess(a, b any) bool {
	na, okA := numeric(a)
	nb, okB := numeric(b)
	if okA && okB {
		return na < nb
	}
	return stringify(a) < stringify(b)
}

func (r *runner) execOutput(step string, op parser.Output) error {
	v, err := r.lookup(op.Ref)
	if err != nil {
		return err
	}
	r.outputs[op.Name] = v

	// Шаг с OUTPUT — прозрачный: последующие шаги могут ссылаться
	// на него по имени и получают то же значение.
	r.ectx[step] = v
	return nil
}

func (r *runner) execOutputText(step string, op parser.OutputText) error {
	head, err := r.lookup(op.Path[0])
	if err != nil {
		return err
	}
	leaf, err := head.At(op.Path[1:])
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnresolvedPath, strings.Join(op.Path, "."), err)
	}

	text := stringify(leaf)
	r.outputs[strings.Join(op.Path, ".")] = NewScalar(text)
	r.ectx[step] = NewScalar(text)

	if r.collab.ObserveText != nil {
		r.collab.ObserveText(text, map[string]any{
			"step": step,
			"path": strings.Join(op.Path, "."),
		})
	}
	return nil
}

func (r *runner) execApxExec(step string, op parser.ApxExec) error {
	if r.collab.ExecuteAgentCall == nil {
		return fmt.Errorf("%w: executeAgentCall", ErrNoCollaborator)
	}

	payload, err := r.resolveObject(op.Payload)
	if err != nil {
		return err
	}

	result, err := r.collab.ExecuteAgentCall(r.ctx, op.Target, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCollaborator, err)
	}
	r.ectx[step] = NewStructured(result)
	return nil
}

// resolveObject разворачивает объектный литерал в map, разрешая
// каждую ссылку против контекста выполнения ровно один раз.
func (r *runner) resolveObject(lit *parser.ObjectLit) (map[string]any, error) {
	out := make(map[string]any, len(lit.Entries))
	for _, entry := range lit.Entries {
		v, err := r.resolveValue(entry.Value)
		if err != nil {
			return nil, err
		}
		out[entry.Key] = v
	}
	return out, nil
}

func (r *runner) resolveValue(pv parser.PayloadValue) (any, error) {
	switch v := pv.(type) {
	case parser.Literal:
		switch v.Kind {
		case parser.LiteralString:
			return v.Str, nil
		case parser.LiteralNumber:
			return v.Num, nil
		default:
			return v.Bool, nil
		}

	case parser.Ref:
		head, err := r.lookup(v.Path[0])
		if err != nil {
			return nil, err
		}
		leaf, err := head.At(v.Path[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnresolvedPath, strings.Join(v.Path, "."), err)
		}
		return leaf, nil

	case *parser.ObjectLit:
		return r.resolveObject(v)

	default:
		return nil, fmt.Errorf("unsupported payload value %T", pv)
	}
}

func (r *runner) execBuildVpkg(step string, op parser.BuildVpkg) error {
	if r.collab.BuildPackage == nil {
		return fmt.Errorf("%w: buildPackage", ErrNoCollaborator)
	}

	manifest, err := r.lookup(op.Ref)
	if err != nil {
		return err
	}

	result, err := r.collab.BuildPackage(r.ctx, manifest.Any())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCollaborator, err)
	}
	r.ectx[step] = NewStructured(result)
	return nil
}

func (r *runner) execDeployService(step string, op parser.DeployService) error {
	if r.collab.DeployService == nil {
		return fmt.Errorf("%w: deployService", ErrNoCollaborator)
	}

	artifact, err := r.lookup(op.Ref)
	if err != nil {
		return err
	}

	result, err := r.collab.DeployService(r.ctx, artifact.Any(), op.ServiceName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCollaborator, err)
	}
	r.ectx[step] = NewStructured(result)
	return nil
}
