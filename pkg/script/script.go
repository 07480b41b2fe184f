// Package script builds finder handlers from JavaScript sources run in an embedded goja runtime.
//
// The source must declare a global function (named "handle" unless configured otherwise)
// that receives the item and the configured user data and returns a numeric status:
//
//	function handle(item, userData) {
//	    return item.length > 8 ? 1 : 0;
//	}
//
// A thrown exception becomes a handler error, which stops the dispatch.
package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dop251/goja"
	sdkerrors "github.com/wehubfusion/cheesefinder/pkg/errors"
	"github.com/wehubfusion/cheesefinder/pkg/finder"
)

// Handler runs a JavaScript function once per item
type Handler struct {
	mu       sync.Mutex
	vm       *goja.Runtime
	fn       goja.Callable
	userData goja.Value
	config   Config
}

var _ finder.Handler = (*Handler)(nil)

// New compiles source and resolves the configured handler function
func New(source string, config Config) (*Handler, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	vm := goja.New()
	if err := applySandbox(vm, config); err != nil {
		return nil, err
	}

	if _, err := vm.RunString(source); err != nil {
		return nil, sdkerrors.NewError(sdkerrors.CodeScriptFailed, "failed to compile script", err)
	}

	fn, ok := goja.AssertFunction(vm.Get(config.Function))
	if !ok {
		return nil, sdkerrors.NewError(sdkerrors.CodeScriptFailed,
			fmt.Sprintf("script does not define function %q", config.Function), nil)
	}

	return &Handler{
		vm:       vm,
		fn:       fn,
		userData: vm.ToValue(config.UserData),
		config:   config,
	}, nil
}

// Handle implements finder.Handler
func (h *Handler) Handle(ctx context.Context, item string) (int, error) {
	if h == nil {
		return 0, sdkerrors.NewItemError(sdkerrors.CodeInvalidHandler, item, "script handler is nil", nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// a late interrupt from the previous call must not leak into this one
	h.vm.ClearInterrupt()

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			h.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	value, err := h.fn(goja.Undefined(), h.vm.ToValue(item), h.userData)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			h.vm.ClearInterrupt()
			return 0, sdkerrors.NewItemError(sdkerrors.CodeScriptFailed, item, "script interrupted", ctx.Err())
		}
		return 0, sdkerrors.NewItemError(sdkerrors.CodeScriptFailed, item, "script threw", err)
	}

	status, err := toStatus(value)
	if err != nil {
		return 0, sdkerrors.NewItemError(sdkerrors.CodeScriptFailed, item, "invalid status", err)
	}
	return status, nil
}

func toStatus(value goja.Value) (int, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return 0, fmt.Errorf("script returned no value")
	}

	switch v := value.Export().(type) {
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("status %v is not an integer", v)
		}
		if v >= math.MaxInt || v < math.MinInt {
			return 0, fmt.Errorf("status %v is out of range", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("status must be a number, got %T", v)
	}
}
