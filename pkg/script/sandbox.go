package script

import (
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
)

// Node-style globals that scripts must never reach
var dangerousGlobals = []string{
	"require",
	"module",
	"exports",
	"process",
	"global",
	"__dirname",
	"__filename",
	"Buffer",
	"setImmediate",
	"clearImmediate",
}

// Built-ins frozen in standard and strict modes so scripts cannot patch them
var frozenBuiltins = []string{
	"Object",
	"Array",
	"Function",
	"String",
	"Number",
	"Boolean",
	"Date",
	"RegExp",
	"Error",
	"Math",
	"JSON",
}

// applySandbox strips host globals, freezes built-ins unless permissive, and in strict mode disables eval
func applySandbox(vm *goja.Runtime, config Config) error {
	for _, name := range dangerousGlobals {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	if config.SecurityLevel == SecurityLevelStrict {
		restrictedEval := func(call goja.FunctionCall) goja.Value {
			panic(vm.NewTypeError("eval is not allowed in strict security mode"))
		}
		if err := vm.Set("eval", restrictedEval); err != nil {
			return fmt.Errorf("failed to restrict eval: %w", err)
		}
	}

	if config.SecurityLevel != SecurityLevelPermissive {
		if err := freezeBuiltins(vm); err != nil {
			return err
		}
	}

	if config.MaxStackDepth > 0 {
		vm.SetMaxCallStackSize(config.MaxStackDepth)
	}

	if config.Console != nil {
		if err := installConsole(vm, config.Console); err != nil {
			return err
		}
	}

	return nil
}

// freezeBuiltins freezes each built-in and its prototype
func freezeBuiltins(vm *goja.Runtime) error {
	freeze, ok := goja.AssertFunction(vm.Get("Object").ToObject(vm).Get("freeze"))
	if !ok {
		return fmt.Errorf("freeze function is not a function")
	}

	for _, name := range frozenBuiltins {
		value := vm.Get(name)
		if value == nil || goja.IsUndefined(value) {
			continue
		}
		if proto := value.ToObject(vm).Get("prototype"); proto != nil && !goja.IsUndefined(proto) {
			if _, err := freeze(goja.Undefined(), proto); err != nil {
				return fmt.Errorf("failed to freeze %s.prototype: %w", name, err)
			}
		}
		if _, err := freeze(goja.Undefined(), value); err != nil {
			return fmt.Errorf("failed to freeze %s: %w", name, err)
		}
	}
	return nil
}

// installConsole exposes console.log/info/warn/error, each writing one line to w
func installConsole(vm *goja.Runtime, w io.Writer) error {
	write := func(prefix string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			fmt.Fprintln(w, prefix+strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := vm.NewObject()
	for name, prefix := range map[string]string{"log": "", "info": "", "warn": "warn: ", "error": "error: "} {
		if err := console.Set(name, write(prefix)); err != nil {
			return fmt.Errorf("failed to install console.%s: %w", name, err)
		}
	}
	return vm.Set("console", console)
}
