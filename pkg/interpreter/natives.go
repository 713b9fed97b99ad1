package interpreter

import (
	"fmt"
	"sort"
	"time"

	"lox/interpreter-go/pkg/runtime"
)

var builtinNatives = map[string]*runtime.NativeFunctionValue{
	"clock": {
		Name: "clock",
		Argc: 0,
		Impl: func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
			return runtime.NumberValue{Val: float64(time.Now().UnixNano()) / float64(time.Second)}, nil
		},
	},
}

// NativeNames lists the available native bindings in sorted order.
func NativeNames() []string {
	names := make([]string, 0, len(builtinNatives))
	for name := range builtinNatives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnableNatives binds the named natives into the global environment.
func (i *Interpreter) EnableNatives(names ...string) error {
	for _, name := range names {
		native, ok := builtinNatives[name]
		if !ok {
			return fmt.Errorf("interpreter: unknown native %q", name)
		}
		i.global.Define(name, native)
	}
	return nil
}

// DefineNative binds a host function into the global environment.
func (i *Interpreter) DefineNative(name string, arity int, impl runtime.NativeFunc) {
	i.global.Define(name, &runtime.NativeFunctionValue{Name: name, Argc: arity, Impl: impl})
}
