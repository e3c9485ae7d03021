package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voike/voike/internal/telemetry"
	"github.com/voike/voike/internal/vvm"
)

// defaultVMMaxSteps — лимит шагов, если клиент его не задал.
// Бесконечный цикл в присланной программе не должен держать запрос.
const defaultVMMaxSteps = 1_000_000

// ExecuteVM собирает и исполняет VVM-программу из мнемонического текста.
// POST /api/v1/vvm/execute
func (h *Handler) ExecuteVM(w http.ResponseWriter, r *http.Request) {
	var req VMExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Program == "" {
		BadRequest(w, "program is required")
		return
	}

	prog, err := vvm.Assemble(req.Program)
	if err != nil {
		telemetry.VMPrograms.WithLabelValues("load_error").Inc()
		BadRequest(w, err.Error())
		return
	}

	m := vvm.New(prog)
	m.MaxSteps = req.MaxSteps
	if m.MaxSteps <= 0 {
		m.MaxSteps = defaultVMMaxSteps
	}

	if err := m.Run(); err != nil {
		var re *vvm.RuntimeError
		if errors.As(err, &re) {
			telemetry.VMPrograms.WithLabelValues("runtime_error").Inc()
			InvalidState(w, err.Error())
			return
		}
		telemetry.VMPrograms.WithLabelValues("runtime_error").Inc()
		InternalError(w, h.logger, err)
		return
	}

	telemetry.VMPrograms.WithLabelValues("ok").Inc()

	registers := make(map[string]any)
	for name, v := range m.Registers() {
		registers[name] = registerValue(v)
	}

	Success(w, VMExecuteResponse{
		Halted:    m.Halted(),
		Registers: registers,
	})
}
