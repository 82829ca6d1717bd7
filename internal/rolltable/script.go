package rolltable

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// DefaultScriptTimeout bounds one tiles() call.
const DefaultScriptTimeout = 2 * time.Second

// ScriptOracle computes budgets with a user-supplied JavaScript function
// named tiles(roll). The script can call table(roll) for the built-in
// formula and digits(roll) for the roll's decimal digits.
type ScriptOracle struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	fn      goja.Callable
	name    string
	timeout time.Duration
}

// NewScriptOracle compiles src. base backs the table() helper; nil means
// DefaultTable.
func NewScriptOracle(src, name string, base *Table) (*ScriptOracle, error) {
	if base == nil {
		base = DefaultTable()
	}
	vm := goja.New()
	if err := vm.Set("table", func(roll int) int {
		n, err := base.ComputeTiles(roll)
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return n
	}); err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	if err := vm.Set("digits", func(roll int) []int {
		s := fmt.Sprint(roll)
		out := make([]int, 0, len(s))
		for _, c := range s {
			if c >= '0' && c <= '9' {
				out = append(out, int(c-'0'))
			}
		}
		return out
	}); err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}

	if _, err := vm.RunString(src); err != nil {
		return nil, fmt.Errorf("failed to run script %s: %w", name, err)
	}
	fn, ok := goja.AssertFunction(vm.Get("tiles"))
	if !ok {
		return nil, fmt.Errorf("script %s does not define tiles(roll)", name)
	}
	return &ScriptOracle{vm: vm, fn: fn, name: name, timeout: DefaultScriptTimeout}, nil
}

// SetTimeout changes the per-call time limit.
func (o *ScriptOracle) SetTimeout(d time.Duration) {
	o.mu.Lock()
	o.timeout = d
	o.mu.Unlock()
}

// ComputeTiles implements the game's TileBudgetOracle.
func (o *ScriptOracle) ComputeTiles(roll int) (int, error) {
	if roll < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeRoll, roll)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	timer := time.AfterFunc(o.timeout, func() { o.vm.Interrupt("timeout") })
	v, err := o.fn(goja.Undefined(), o.vm.ToValue(roll))
	timer.Stop()
	o.vm.ClearInterrupt()
	if err != nil {
		return 0, fmt.Errorf("script %s tiles(%d): %w", o.name, roll, err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, fmt.Errorf("script %s tiles(%d) returned no value", o.name, roll)
	}
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("script %s tiles(%d) returned %v", o.name, roll, v)
	}
	return max(0, int(v.ToInteger())), nil
}
