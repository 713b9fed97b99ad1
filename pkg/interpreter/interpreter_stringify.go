package interpreter

import (
	"fmt"
	"math"
	"strconv"

	"lox/interpreter-go/pkg/runtime"
)

// Stringify renders a value the way `print` shows it.
func Stringify(val runtime.Value) string {
	switch v := val.(type) {
	case nil:
		return "nil"
	case runtime.NilValue:
		return "nil"
	case runtime.BoolValue:
		return strconv.FormatBool(v.Val)
	case runtime.NumberValue:
		return formatNumber(v.Val)
	case runtime.StringValue:
		return v.Val
	case *runtime.FunctionValue:
		if v.Name == "" {
			return "<fn>"
		}
		return fmt.Sprintf("<fn %s>", v.Name)
	case *runtime.NativeFunctionValue:
		return "<native fn>"
	case *runtime.ClassValue:
		return v.Name
	case *runtime.InstanceValue:
		return fmt.Sprintf("<%s instance>", v.Class.Name)
	default:
		return fmt.Sprintf("<%s>", val.Kind())
	}
}

// formatNumber drops the fractional part of integral values.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
