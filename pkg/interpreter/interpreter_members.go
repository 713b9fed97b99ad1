package interpreter

import (
	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateGet(n *ast.GetExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	inst, ok := object.(*runtime.InstanceValue)
	if !ok {
		return nil, runtimeErrorf(n.Name, "Only instances have properties, got %s.", object.Kind())
	}
	val, ok := inst.Get(n.Name.Lexeme)
	if !ok {
		return nil, runtimeErrorf(n.Name, "Undefined property '%s'.", n.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evaluateSet(n *ast.SetExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	inst, ok := object.(*runtime.InstanceValue)
	if !ok {
		return nil, runtimeErrorf(n.Name, "Only instances have fields, got %s.", object.Kind())
	}
	val, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	inst.Set(n.Name.Lexeme, val)
	return val, nil
}

// evaluateSuper starts method lookup at the superclass captured when the
// enclosing class was declared, then binds the method to the current `this`,
// which lives one scope inside the `super` scope.
func (i *Interpreter) evaluateSuper(n *ast.SuperExpression, env *runtime.Environment) (runtime.Value, error) {
	distance, ok := i.locals[n]
	if !ok {
		return nil, runtimeErrorf(n.Keyword, "Can't use 'super' outside of a class.")
	}
	superVal, err := env.GetAt(distance, "super")
	if err != nil {
		return nil, attribute(err, n.Keyword)
	}
	superclass, ok := superVal.(*runtime.ClassValue)
	if !ok {
		return nil, runtimeErrorf(n.Keyword, "Superclass must be a class.")
	}
	thisVal, err := env.GetAt(distance-1, "this")
	if err != nil {
		return nil, attribute(err, n.Keyword)
	}
	instance, ok := thisVal.(*runtime.InstanceValue)
	if !ok {
		return nil, runtimeErrorf(n.Keyword, "Can't use 'super' without an instance.")
	}
	method, ok := superclass.FindMethod(n.Method.Lexeme)
	if !ok {
		return nil, runtimeErrorf(n.Method, "Undefined property '%s'.", n.Method.Lexeme)
	}
	return method.Bind(instance), nil
}

func (i *Interpreter) executeClassDeclaration(n *ast.ClassDeclaration, env *runtime.Environment) error {
	var superclass *runtime.ClassValue
	if n.Superclass != nil {
		val, err := i.evaluateExpression(n.Superclass, env)
		if err != nil {
			return err
		}
		sc, ok := val.(*runtime.ClassValue)
		if !ok {
			return runtimeErrorf(n.Superclass.Name, "Superclass must be a class.")
		}
		superclass = sc
	}

	env.Define(n.Name.Lexeme, runtime.NilValue{})

	methodEnv := env
	if superclass != nil {
		methodEnv = runtime.NewEnvironment(env)
		methodEnv.Define("super", superclass)
	}

	methods := make(map[string]*runtime.FunctionValue, len(n.Methods))
	for _, decl := range n.Methods {
		methods[decl.Name.Lexeme] = runtime.NewFunction(decl, methodEnv, decl.Name.Lexeme == "init")
	}
	env.Define(n.Name.Lexeme, runtime.NewClass(n.Name.Lexeme, superclass, methods))
	return nil
}
