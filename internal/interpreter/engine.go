package interpreter

import (
	"fmt"
	"sync"

	"github.com/opensource-finance/kestrel/internal/dir"
	"github.com/opensource-finance/kestrel/internal/lowering"
)

// Engine holds the loaded decision programs for each merchant and
// evaluates transactions against them. Programs are validated by a
// dry-run lowering at load time, so evaluation never sees a program the
// analyzer would reject.
type Engine[O any] struct {
	mu       sync.RWMutex
	filter   dir.Filter
	programs map[string]*dir.Program[O]
}

// NewEngine creates an engine whose loaded programs must satisfy the
// given key-kind filter.
func NewEngine[O any](filter dir.Filter) *Engine[O] {
	return &Engine[O]{
		filter:   filter,
		programs: make(map[string]*dir.Program[O]),
	}
}

// ValidateProgram runs the authoring checks and a dry-run lowering
// without mutating loaded programs.
func (e *Engine[O]) ValidateProgram(program *dir.Program[O]) error {
	if program == nil {
		return fmt.Errorf("program is required")
	}
	if err := dir.ValidateProgram(program, e.filter); err != nil {
		return err
	}
	if _, err := lowering.LowerProgram(program); err != nil {
		return fmt.Errorf("program failed analysis lowering: %w", err)
	}
	return nil
}

// LoadProgram validates and installs the active program for a merchant.
func (e *Engine[O]) LoadProgram(merchantID string, program *dir.Program[O]) error {
	if merchantID == "" {
		return fmt.Errorf("merchantID is required")
	}
	if err := e.ValidateProgram(program); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.programs[merchantID] = program
	return nil
}

// Evaluate executes the merchant's active program against the input.
func (e *Engine[O]) Evaluate(merchantID string, input Input) (Decision[O], error) {
	e.mu.RLock()
	program, ok := e.programs[merchantID]
	e.mu.RUnlock()

	if !ok {
		return Decision[O]{}, fmt.Errorf("no program loaded for merchant %q", merchantID)
	}
	return Execute(program, input), nil
}

// ProgramCount returns the number of loaded programs.
func (e *Engine[O]) ProgramCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.programs)
}

// Close drops all loaded programs.
func (e *Engine[O]) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.programs = make(map[string]*dir.Program[O])
	return nil
}
