package compiler

import (
	"fmt"
	"log/slog"
	"strconv"

	"aplc/pkg/logger"
)

// Label kinds. A scope keeps the most recent label of each kind.
const (
	labelWhile  = "whilelb"
	labelFun    = "fun"
	labelIf     = "if"
	labelIfElse = "ifelse"
	labelCmp    = "cmp"
)

// divisor is loaded with FixedScale whenever a fixed-point value is rescaled.
var divisor = Register("ecx", TypeInt)

var scale = Constant(strconv.Itoa(FixedScale), TypeInt)

// frame is one active inline expansion of a function body.
type frame struct {
	fn  *funcEntry
	ret ValueType // type of the last value returned
}

// CodeGen walks an AST and emits FASM x86 text. It owns every piece of
// mutable compile state; two CodeGens never share anything.
type CodeGen struct {
	emit  Emitter
	root  *Scope
	scope *Scope
	regs  *RegisterPool
	log   *slog.Logger
	check bool

	frames []*frame
	loops  map[*Scope]int // open while loops per scope
}

// Option configures a CodeGen or a Compile call.
type Option func(*CodeGen)

// WithLogger sets the logger for reductions and code generation.
func WithLogger(l *slog.Logger) Option {
	return func(cg *CodeGen) { cg.log = l }
}

// WithRegisters replaces the temporary register set.
func WithRegisters(names ...string) Option {
	return func(cg *CodeGen) { cg.regs = NewRegisterPool(names...) }
}

// WithoutCheck makes Compile skip validating the emitted assembly.
func WithoutCheck() Option {
	return func(cg *CodeGen) { cg.check = false }
}

func NewCodeGen(opts ...Option) *CodeGen {
	root := NewScope()
	cg := &CodeGen{
		root:  root,
		scope: root,
		regs:  NewRegisterPool(),
		log:   logger.Get(),
		check: true,
		loops: make(map[*Scope]int),
	}
	for _, opt := range opts {
		opt(cg)
	}
	return cg
}

func (cg *CodeGen) Code() string   { return cg.emit.Code() }
func (cg *CodeGen) Data() string   { return cg.emit.Data() }
func (cg *CodeGen) Scopes() string { return cg.root.String() }

// Root is the program's global scope.
func (cg *CodeGen) Root() *Scope { return cg.root }

// Evaluate emits code for the whole program rooted at root.
func (cg *CodeGen) Evaluate(root Node) error {
	op, err := cg.eval(root)
	if err != nil {
		return err
	}
	cg.regs.Free(op)
	if n := cg.regs.Size() - cg.regs.Available(); n != 0 {
		cg.log.Warn("registers still held after evaluation", "held", n)
	}
	return nil
}

// enter makes s the current scope and returns a func that restores the
// previous one.
func (cg *CodeGen) enter(s *Scope) func() {
	prev := cg.scope
	cg.scope = s
	return func() { cg.scope = prev }
}

// eval emits code for n and returns where its value lives. Statements return
// the zero Operand.
func (cg *CodeGen) eval(n Node) (Operand, error) {
	switch n := n.(type) {
	case *Statement:
		for _, it := range n.Items {
			op, err := cg.eval(it)
			if err != nil {
				return Operand{}, err
			}
			cg.regs.Free(op)
		}
		return Operand{}, nil

	case *Block:
		if n.Body == nil {
			return Operand{}, nil
		}
		return cg.eval(n.Body)

	case *Assign:
		return Operand{}, cg.genAssign(n)
	case *ReAssign:
		return Operand{}, cg.genReAssign(n)
	case *If:
		return Operand{}, cg.genIf(n)
	case *IfElse:
		return Operand{}, cg.genIfElse(n)
	case *While:
		return Operand{}, cg.genWhile(n)
	case *Break:
		return Operand{}, cg.genLoopJump(true)
	case *Continue:
		return Operand{}, cg.genLoopJump(false)
	case *Return:
		return Operand{}, cg.genReturn(n)

	case *FunctionDecl:
		q, err := cg.scope.DefineFunc(n)
		if err != nil {
			return Operand{}, err
		}
		cg.log.Debug("function registered", "name", q)
		return Operand{}, nil

	case *CallFunction:
		return cg.genCall(n)
	case *Print:
		return Operand{}, cg.genPrint(n)

	case *PrintString:
		name := cg.scope.NewTempName()
		cg.emit.DataString(name, n.Text)
		cg.emit.Invoke("printf", "formatstr", name)
		return Operand{}, nil

	case *Factor:
		return cg.genFactor(n)
	case *Term:
		return cg.genTerm(n)
	case *Add:
		return cg.genAdd(n)
	case *Comparing:
		return cg.genComparing(n)
	case *LogicalOperator:
		return cg.genLogical(n)
	case *Expression:
		return cg.eval(n.Inner)

	case *VariableType, *VariableDecl, *PreAssign, *PreReAssign, *PreIfElse,
		*PreTerm, *PreAdd, *PreComparing, *PreLogical:
		return Operand{}, fmt.Errorf("%w: incomplete %s", ErrSyntax, n.Kind())
	}
	return Operand{}, fmt.Errorf("unknown node type %T", n)
}

// lookupVar resolves a user variable through the scope chain.
func (cg *CodeGen) lookupVar(name string) (Operand, error) {
	if err := checkName(name); err != nil {
		return Operand{}, err
	}
	v, ok := cg.scope.Lookup(name)
	if !ok {
		return Operand{}, fmt.Errorf("%w: variable %q", ErrUndefined, name)
	}
	return v, nil
}

// numeric evaluates n and rejects string values.
func (cg *CodeGen) numeric(n Node) (Operand, error) {
	op, err := cg.eval(n)
	if err != nil {
		return Operand{}, err
	}
	if !op.Type.numeric() {
		cg.regs.Free(op)
		return Operand{}, fmt.Errorf("%w: %s value %s in arithmetic", ErrTypeMismatch, op.Type, op.Name)
	}
	return op, nil
}

// operands evaluates both sides of a binary node, left first.
func (cg *CodeGen) operands(left, right Node) (Operand, Operand, error) {
	l, err := cg.numeric(left)
	if err != nil {
		return Operand{}, Operand{}, err
	}
	r, err := cg.numeric(right)
	if err != nil {
		cg.regs.Free(l)
		return Operand{}, Operand{}, err
	}
	return l, r, nil
}

// promote scales whichever side is int by FixedScale when the other is
// float, so both sides share one representation.
func (cg *CodeGen) promote(l, r Operand) (Operand, Operand) {
	switch {
	case l.Type == TypeFloat && r.Type == TypeInt:
		cg.emit.Imul(r, scale)
		r = r.WithType(TypeFloat)
	case l.Type == TypeInt && r.Type == TypeFloat:
		cg.emit.Imul(l, scale)
		l = l.WithType(TypeFloat)
	}
	return l, r
}

// convert rewrites the register op in place to type t.
func (cg *CodeGen) convert(op Operand, t ValueType) Operand {
	switch {
	case op.Type == TypeInt && t == TypeFloat:
		cg.emit.Imul(op, scale)
	case op.Type == TypeFloat && t == TypeInt:
		cg.rescale(op)
	}
	return op.WithType(t)
}

// rescale divides the register op by FixedScale.
func (cg *CodeGen) rescale(op Operand) {
	acc := Accumulator(TypeInt)
	cg.emit.Mov(acc, op)
	cg.emit.Mov(divisor, scale)
	cg.emit.Idiv(divisor)
	cg.emit.Mov(op, acc)
}

//  Statements

func (cg *CodeGen) genAssign(n *Assign) error {
	decl := n.Decl

	// A function body is re-evaluated on every call; the storage from the
	// first expansion is reused.
	reuse := n.qualified != ""
	if !reuse {
		if err := checkName(decl.Name); err != nil {
			return err
		}
		if _, ok := cg.scope.LookupDirect(decl.Name); ok {
			return fmt.Errorf("%w: variable %q already defined", ErrRedeclared, decl.Name)
		}
	}

	if decl.Type == TypeString {
		text, ok := stringLiteral(n.Value)
		if !ok {
			return fmt.Errorf("%w: string %q must be initialised from a literal", ErrTypeMismatch, decl.Name)
		}
		if reuse {
			return nil
		}
		dst, err := cg.scope.Declare(decl.Name, TypeString)
		if err != nil {
			return err
		}
		n.qualified = dst.Name
		cg.emit.DataString(dst.Name, text)
		return nil
	}

	val, err := cg.eval(n.Value)
	if err != nil {
		return err
	}
	if val.Type == TypeString {
		return fmt.Errorf("%w: cannot assign string to %s %q", ErrTypeMismatch, decl.Type, decl.Name)
	}

	var dst Operand
	if reuse {
		dst, _ = cg.scope.LookupDirect(decl.Name)
	} else {
		dst, err = cg.scope.Declare(decl.Name, decl.Type)
		if err != nil {
			cg.regs.Free(val)
			return err
		}
		n.qualified = dst.Name
		cg.emit.DataCell(dst.Name)
	}
	val = cg.convert(val, decl.Type)
	cg.emit.Mov(dst, val)
	cg.regs.Free(val)
	return nil
}

func (cg *CodeGen) genReAssign(n *ReAssign) error {
	dst, err := cg.lookupVar(n.Name)
	if err != nil {
		return err
	}
	if dst.Type == TypeString {
		return fmt.Errorf("%w: string %q cannot be reassigned", ErrTypeMismatch, n.Name)
	}
	val, err := cg.eval(n.Value)
	if err != nil {
		return err
	}
	if val.Type == TypeString {
		return fmt.Errorf("%w: cannot assign string to %s %q", ErrTypeMismatch, dst.Type, n.Name)
	}
	val = cg.convert(val, dst.Type)
	cg.emit.Mov(dst, val)
	cg.regs.Free(val)
	return nil
}

// branchIfFalse evaluates cond and jumps to target when it is zero.
func (cg *CodeGen) branchIfFalse(cond Node, target string) error {
	c, err := cg.numeric(cond)
	if err != nil {
		return err
	}
	cg.emit.Cmp(c, Constant("0", TypeInt))
	cg.regs.Free(c)
	cg.emit.Je(target)
	return nil
}

func (cg *CodeGen) genIf(n *If) error {
	label := cg.scope.NewLabel(labelIf)
	end := EndLabel(label)
	if err := cg.branchIfFalse(n.Cond, end); err != nil {
		return err
	}
	if _, err := cg.eval(n.Body); err != nil {
		return err
	}
	cg.emit.Label(end)
	return nil
}

func (cg *CodeGen) genIfElse(n *IfElse) error {
	label := cg.scope.NewLabel(labelIfElse)
	elseLabel, end := ElseLabel(label), EndLabel(label)
	if err := cg.branchIfFalse(n.Cond, elseLabel); err != nil {
		return err
	}
	if _, err := cg.eval(n.Then); err != nil {
		return err
	}
	cg.emit.Jmp(end)
	cg.emit.Label(elseLabel)
	if _, err := cg.eval(n.Else); err != nil {
		return err
	}
	cg.emit.Label(end)
	return nil
}

// genWhile emits a loop. The loop label is stored under one key per scope,
// so a nested loop replaces its parent's label for the rest of the parent's
// body.
func (cg *CodeGen) genWhile(n *While) error {
	if cg.loops[cg.scope] > 0 {
		prev, _ := cg.scope.Label(labelWhile)
		cg.log.Warn("nested loop replaces enclosing loop label",
			"scope", cg.scope.Prefix(), "label", prev)
	}
	label := cg.scope.NewLabel(labelWhile)
	end := EndLabel(label)

	cg.emit.Label(label)
	if err := cg.branchIfFalse(n.Cond, end); err != nil {
		return err
	}
	cg.loops[cg.scope]++
	_, err := cg.eval(n.Body)
	cg.loops[cg.scope]--
	if err != nil {
		return err
	}
	cg.emit.Jmp(label)
	cg.emit.Label(end)
	return nil
}

// genLoopJump handles break (toEnd) and continue.
func (cg *CodeGen) genLoopJump(toEnd bool) error {
	what := "continue"
	if toEnd {
		what = "break"
	}
	label, ok := cg.scope.Label(labelWhile)
	if !ok || cg.loops[cg.scope] == 0 {
		return fmt.Errorf("%w: %s outside a loop", ErrControlFlow, what)
	}
	if toEnd {
		label = EndLabel(label)
	}
	cg.emit.Jmp(label)
	return nil
}

func (cg *CodeGen) genReturn(n *Return) error {
	if len(cg.frames) == 0 {
		return fmt.Errorf("%w: return outside a function", ErrControlFlow)
	}
	label, ok := cg.scope.Label(labelFun)
	if !ok {
		return fmt.Errorf("%w: return outside a function", ErrControlFlow)
	}
	val, err := cg.numeric(n.Value)
	if err != nil {
		return err
	}
	cg.emit.Mov(Accumulator(val.Type), val)
	cg.regs.Free(val)
	cg.frames[len(cg.frames)-1].ret = val.Type
	cg.emit.Jmp(EndLabel(label))
	return nil
}

// genCall expands the callee's body in place. Arguments travel on the stack:
// they are pushed last to first and the body pops them into its parameters.
func (cg *CodeGen) genCall(n *CallFunction) (Operand, error) {
	if err := checkName(n.Name); err != nil {
		return Operand{}, err
	}
	fn, ok := cg.scope.LookupFunc(n.Name)
	if !ok {
		return Operand{}, fmt.Errorf("%w: function %q", ErrUndefined, n.Name)
	}
	params := fn.decl.Params
	if len(n.Args) != len(params) {
		return Operand{}, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArity, n.Name, len(params), len(n.Args))
	}
	for _, f := range cg.frames {
		if f.fn == fn {
			return Operand{}, fmt.Errorf("%w: %s", ErrRecursion, fn.qualified)
		}
	}

	args := make([]Operand, len(n.Args))
	for i, name := range n.Args {
		v, err := cg.lookupVar(name)
		if err != nil {
			return Operand{}, err
		}
		if v.Type == TypeString || params[i].Type == TypeString {
			return Operand{}, fmt.Errorf("%w: argument %q of %s: strings cannot be passed", ErrTypeMismatch, name, n.Name)
		}
		args[i] = v
	}
	for i := len(args) - 1; i >= 0; i-- {
		cg.emit.Push(args[i])
	}

	restore := cg.enter(fn.owner.Child(fn.decl.Name))
	defer restore()
	fr := &frame{fn: fn, ret: TypeInt}
	cg.frames = append(cg.frames, fr)
	defer func() { cg.frames = cg.frames[:len(cg.frames)-1] }()

	label := cg.scope.NewLabel(labelFun)
	cg.log.Debug("expanding function", "name", fn.qualified, "label", label)
	cg.emit.Label(label)

	for i, p := range params {
		dst, ok := cg.scope.LookupDirect(p.Name)
		if !ok {
			var err error
			if dst, err = cg.scope.Declare(p.Name, p.Type); err != nil {
				return Operand{}, err
			}
			cg.emit.DataCell(dst.Name)
		}
		cg.emit.Pop(dst)
		if args[i].Type != p.Type {
			r, err := cg.regs.Get(args[i].Type)
			if err != nil {
				return Operand{}, err
			}
			cg.emit.Mov(r, dst)
			r = cg.convert(r, p.Type)
			cg.emit.Mov(dst, r)
			cg.regs.Free(r)
		}
	}

	if _, err := cg.eval(fn.decl.Body); err != nil {
		return Operand{}, err
	}
	cg.emit.Label(EndLabel(label))
	return Accumulator(fr.ret), nil
}

func (cg *CodeGen) genPrint(n *Print) error {
	for _, name := range n.Args {
		v, err := cg.lookupVar(name)
		if err != nil {
			return err
		}
		switch v.Type {
		case TypeInt:
			cg.emit.Invoke("printf", "formatint", "dword "+v.Text())
		case TypeFloat:
			acc := Accumulator(TypeInt)
			cg.emit.Mov(acc, v)
			cg.emit.Mov(divisor, scale)
			cg.emit.Idiv(divisor)
			cg.emit.Invoke("printf", "formatfloat", "eax", "edx")
		case TypeString:
			cg.emit.Invoke("printf", "formatstr", v.Name)
		}
	}
	return nil
}

//  Expressions

func (cg *CodeGen) genFactor(n *Factor) (Operand, error) {
	switch n.Form {
	case FactorInt:
		if _, err := IntLiteral(n.Text); err != nil {
			return Operand{}, err
		}
		r, err := cg.regs.Get(TypeInt)
		if err != nil {
			return Operand{}, err
		}
		cg.emit.Mov(r, Constant(n.Text, TypeInt))
		return r, nil

	case FactorFloat:
		v, err := EncodeFixed(n.Text)
		if err != nil {
			return Operand{}, err
		}
		r, err := cg.regs.Get(TypeFloat)
		if err != nil {
			return Operand{}, err
		}
		cg.emit.Mov(r, Constant(strconv.FormatInt(v, 10), TypeFloat))
		return r, nil

	case FactorIdent:
		v, err := cg.lookupVar(n.Text)
		if err != nil {
			return Operand{}, err
		}
		if v.Type == TypeString {
			return Operand{}, fmt.Errorf("%w: string %q used in an expression", ErrTypeMismatch, n.Text)
		}
		r, err := cg.regs.Get(v.Type)
		if err != nil {
			return Operand{}, err
		}
		cg.emit.Mov(r, v)
		return r, nil

	case FactorString:
		return Constant(n.Text, TypeString), nil

	case FactorParen:
		return cg.eval(n.Inner)

	case FactorCall:
		ret, err := cg.eval(n.Inner)
		if err != nil {
			return Operand{}, err
		}
		r, err := cg.regs.Get(ret.Type)
		if err != nil {
			return Operand{}, err
		}
		cg.emit.Mov(r, ret)
		return r, nil
	}
	return Operand{}, fmt.Errorf("unknown factor form %s", n.Form)
}

func (cg *CodeGen) genTerm(n *Term) (Operand, error) {
	if n.Right == nil {
		return cg.eval(n.Left)
	}
	l, r, err := cg.operands(n.Left, n.Right)
	if err != nil {
		return Operand{}, err
	}
	defer cg.regs.Free(r)

	acc := Accumulator(TypeInt)
	switch n.Op {
	case "*":
		cg.emit.Imul(l, r)
		if l.Type == TypeFloat && r.Type == TypeFloat {
			cg.rescale(l)
		}
		if r.Type == TypeFloat {
			l = l.WithType(TypeFloat)
		}
		return l, nil

	case "/":
		if l.Type == TypeInt && r.Type == TypeFloat {
			cg.emit.Imul(l, scale)
		}
		// Integer quotient for every type pair; float/float loses the
		// fraction.
		cg.emit.Mov(acc, l)
		cg.emit.Idiv(r)
		cg.emit.Mov(l, acc)
		if r.Type == TypeFloat {
			l = l.WithType(TypeFloat)
		}
		return l, nil

	case "%", "div":
		cg.emit.Mov(acc, l)
		cg.emit.Idiv(r)
		if n.Op == "%" {
			cg.emit.Mov(l, scratch)
		} else {
			cg.emit.Mov(l, acc)
		}
		return l.WithType(TypeInt), nil
	}
	return Operand{}, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.Op)
}

func (cg *CodeGen) genAdd(n *Add) (Operand, error) {
	if n.Right == nil {
		return cg.eval(n.Left)
	}
	l, r, err := cg.operands(n.Left, n.Right)
	if err != nil {
		return Operand{}, err
	}
	l, r = cg.promote(l, r)
	switch n.Op {
	case "+":
		cg.emit.Add(l, r)
	case "-":
		cg.emit.Sub(l, r)
	default:
		cg.regs.Free(r)
		cg.regs.Free(l)
		return Operand{}, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.Op)
	}
	cg.regs.Free(r)
	return l, nil
}

// genComparing lowers a comparison through the flags image lahf copies into
// ah: CF is bit 8 of eax and ZF is bit 14. The result is 0 or 1.
func (cg *CodeGen) genComparing(n *Comparing) (Operand, error) {
	if n.Right == nil {
		return cg.eval(n.Left)
	}
	l, r, err := cg.operands(n.Left, n.Right)
	if err != nil {
		return Operand{}, err
	}
	l, r = cg.promote(l, r)
	cg.emit.Cmp(l, r)
	cg.emit.Raw("mov eax, 0")
	cg.emit.Raw("lahf")
	cg.regs.Free(r)
	cg.regs.Free(l)

	switch n.Op {
	case "==":
		cg.emit.Raw("and ah, 64")
		cg.emit.Raw("shr eax, 14")
	case "!=":
		cg.emit.Raw("and ah, 64")
		cg.emit.Raw("shr eax, 14")
		cg.emit.Raw("xor eax, 1")
	case "<":
		cg.emit.Raw("and ah, 1")
		cg.emit.Raw("shr eax, 8")
	case "<=":
		cg.emit.Raw("and ah, 65")
		cg.emit.Raw("neg eax")
		cg.emit.Raw("sbb eax, eax")
		cg.emit.Raw("neg eax")
	case ">", ">=":
		mask := "65"
		if n.Op == ">=" {
			mask = "1"
		}
		done := EndLabel(cg.scope.NewLabel(labelCmp))
		cg.emit.Raw("and ah, %s", mask)
		cg.emit.Raw("mov eax, 1")
		cg.emit.Je(done)
		cg.emit.Raw("mov eax, 0")
		cg.emit.Label(done)
	default:
		return Operand{}, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.Op)
	}

	res, err := cg.regs.Get(TypeInt)
	if err != nil {
		return Operand{}, err
	}
	cg.emit.Mov(res, Accumulator(TypeInt))
	return res, nil
}

func (cg *CodeGen) genLogical(n *LogicalOperator) (Operand, error) {
	l, r, err := cg.operands(n.Left, n.Right)
	if err != nil {
		return Operand{}, err
	}
	switch n.Op {
	case "or":
		cg.emit.Or(l, r)
	case "and":
		cg.normalize(l)
		cg.normalize(r)
		cg.emit.And(l, r)
	default:
		cg.regs.Free(r)
		cg.regs.Free(l)
		return Operand{}, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.Op)
	}
	cg.regs.Free(r)
	return l.WithType(TypeInt), nil
}

// normalize turns any non-zero value in op into 1.
func (cg *CodeGen) normalize(op Operand) {
	skip := EndLabel(cg.scope.NewLabel(labelCmp))
	cg.emit.Cmp(op, Constant("0", TypeInt))
	cg.emit.Je(skip)
	cg.emit.Mov(op, Constant("1", TypeInt))
	cg.emit.Label(skip)
}

// stringLiteral finds the literal beneath the promotion wrappers of an
// expression that is nothing but a string constant.
func stringLiteral(n Node) (string, bool) {
	for {
		switch v := n.(type) {
		case *Expression:
			n = v.Inner
		case *Comparing:
			if v.Right != nil {
				return "", false
			}
			n = v.Left
		case *Add:
			if v.Right != nil {
				return "", false
			}
			n = v.Left
		case *Term:
			if v.Right != nil {
				return "", false
			}
			n = v.Left
		case *Factor:
			switch v.Form {
			case FactorString:
				return v.Text, true
			case FactorParen:
				n = v.Inner
			default:
				return "", false
			}
		default:
			return "", false
		}
	}
}
