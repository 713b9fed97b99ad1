package resolver

// FunctionKind describes the innermost function body being resolved.
type FunctionKind int

const (
	FunctionKindNone FunctionKind = iota
	FunctionKindFunction
	FunctionKindMethod
	FunctionKindInitializer
)

// ClassKind describes the innermost class body being resolved.
type ClassKind int

const (
	ClassKindNone ClassKind = iota
	ClassKindClass
	ClassKindSubclass
)

func (r *Resolver) pushFunction(kind FunctionKind) {
	r.functionStack = append(r.functionStack, kind)
}

func (r *Resolver) popFunction() {
	if len(r.functionStack) == 0 {
		return
	}
	r.functionStack = r.functionStack[:len(r.functionStack)-1]
}

func (r *Resolver) currentFunction() FunctionKind {
	if len(r.functionStack) == 0 {
		return FunctionKindNone
	}
	return r.functionStack[len(r.functionStack)-1]
}

func (r *Resolver) pushClass(kind ClassKind) {
	r.classStack = append(r.classStack, kind)
}

func (r *Resolver) popClass() {
	if len(r.classStack) == 0 {
		return
	}
	r.classStack = r.classStack[:len(r.classStack)-1]
}

// setClass replaces the innermost class kind, used once a superclass clause
// has been seen.
func (r *Resolver) setClass(kind ClassKind) {
	if len(r.classStack) == 0 {
		return
	}
	r.classStack[len(r.classStack)-1] = kind
}

func (r *Resolver) currentClass() ClassKind {
	if len(r.classStack) == 0 {
		return ClassKindNone
	}
	return r.classStack[len(r.classStack)-1]
}
