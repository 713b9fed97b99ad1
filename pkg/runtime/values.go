package runtime

import (
	"fmt"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/token"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunction
	KindNativeFunction
	KindClass
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// Invoker runs user-defined function bodies. The interpreter implements it;
// callables use it so this package stays free of evaluation logic.
type Invoker interface {
	CallFunction(fn *FunctionValue, args []Value) (Value, error)
}

// Callable is the shared capability of functions, natives and classes.
type Callable interface {
	Value
	Arity() int
	Call(inv Invoker, args []Value) (Value, error)
}

// FunctionValue is a closure over the environment active at its declaration.
type FunctionValue struct {
	Name          string // empty for anonymous functions
	Params        []token.Token
	Body          []ast.Statement
	Declaration   ast.Node // *ast.FunctionDeclaration or *ast.LambdaExpression
	Closure       *Environment
	IsInitializer bool
}

// NewFunction builds a closure from a named declaration.
func NewFunction(decl *ast.FunctionDeclaration, closure *Environment, isInitializer bool) *FunctionValue {
	return &FunctionValue{
		Name:          decl.Name.Lexeme,
		Params:        decl.Params,
		Body:          decl.Body,
		Declaration:   decl,
		Closure:       closure,
		IsInitializer: isInitializer,
	}
}

// NewLambda builds a closure from an anonymous function expression.
func NewLambda(expr *ast.LambdaExpression, closure *Environment) *FunctionValue {
	return &FunctionValue{
		Params:      expr.Params,
		Body:        expr.Body,
		Declaration: expr,
		Closure:     closure,
	}
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

func (v *FunctionValue) Arity() int { return len(v.Params) }

func (v *FunctionValue) Call(inv Invoker, args []Value) (Value, error) {
	return inv.CallFunction(v, args)
}

// Bind returns a copy of the method whose closure has a fresh scope with
// `this` bound to instance.
func (v *FunctionValue) Bind(instance *InstanceValue) *FunctionValue {
	env := NewEnvironment(v.Closure)
	env.Define("this", instance)
	bound := *v
	bound.Closure = env
	return &bound
}

// NativeCallContext provides hooks for native functions.
type NativeCallContext struct {
	Invoker Invoker
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

type NativeFunctionValue struct {
	Name string
	Argc int
	Impl NativeFunc
}

func (v *NativeFunctionValue) Kind() Kind { return KindNativeFunction }

func (v *NativeFunctionValue) Arity() int { return v.Argc }

func (v *NativeFunctionValue) Call(inv Invoker, args []Value) (Value, error) {
	return v.Impl(&NativeCallContext{Invoker: inv}, args)
}

// AsCallable reports whether v can be invoked.
func AsCallable(v Value) (Callable, bool) {
	c, ok := v.(Callable)
	return c, ok
}

//-----------------------------------------------------------------------------
// Classes and instances
//-----------------------------------------------------------------------------

// ClassValue holds only the methods the class itself declares; lookups that
// miss continue through the superclass chain.
type ClassValue struct {
	Name       string
	Superclass *ClassValue
	Methods    map[string]*FunctionValue
}

func NewClass(name string, superclass *ClassValue, methods map[string]*FunctionValue) *ClassValue {
	if methods == nil {
		methods = make(map[string]*FunctionValue)
	}
	return &ClassValue{Name: name, Superclass: superclass, Methods: methods}
}

func (c *ClassValue) Kind() Kind { return KindClass }

// FindMethod walks the class then its ancestors.
func (c *ClassValue) FindMethod(name string) (*FunctionValue, bool) {
	for class := c; class != nil; class = class.Superclass {
		if method, ok := class.Methods[name]; ok {
			return method, true
		}
	}
	return nil, false
}

// Arity is the initializer's arity, or zero without one.
func (c *ClassValue) Arity() int {
	if initializer, ok := c.FindMethod("init"); ok {
		return initializer.Arity()
	}
	return 0
}

// Call constructs an instance and runs its initializer, if any. An error
// from the initializer aborts construction and no instance is returned.
func (c *ClassValue) Call(inv Invoker, args []Value) (Value, error) {
	instance := NewInstance(c)
	if initializer, ok := c.FindMethod("init"); ok {
		if _, err := initializer.Bind(instance).Call(inv, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

type InstanceValue struct {
	Class  *ClassValue
	Fields map[string]Value
}

func NewInstance(class *ClassValue) *InstanceValue {
	return &InstanceValue{Class: class, Fields: make(map[string]Value)}
}

func (v *InstanceValue) Kind() Kind { return KindInstance }

// Get looks up a field first, then a method bound to this instance.
func (v *InstanceValue) Get(name string) (Value, bool) {
	if field, ok := v.Fields[name]; ok {
		return field, true
	}
	if method, ok := v.Class.FindMethod(name); ok {
		return method.Bind(v), true
	}
	return nil, false
}

func (v *InstanceValue) Set(name string, value Value) {
	v.Fields[name] = value
}
