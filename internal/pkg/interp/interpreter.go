// Copyright 2024 The Taintwalk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interp

import (
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/taintwalk/taintwalk/internal/pkg/config"
	"github.com/taintwalk/taintwalk/internal/pkg/handler"
	"github.com/taintwalk/taintwalk/internal/pkg/solver"
	"github.com/taintwalk/taintwalk/internal/pkg/store"
	"github.com/taintwalk/taintwalk/internal/pkg/utils"
)

// Hit records one sink rule firing at one call site: a configured
// argument of a configured callee could (under taint) or must (always)
// carry the forbidden value.
type Hit struct {
	Function  string
	Forbidden string
	Pos       token.Pos
}

// pathState is the worklist entry: one store snapshot sitting at the
// entrance to one block, plus the predecessor block it arrived from,
// needed only to select the incoming edge of *ssa.Phi nodes.
type pathState struct {
	st   *store.Store
	blk  *ssa.BasicBlock
	pred *ssa.BasicBlock
}

// AnalyzeFunction runs the symbolic executor over one function's
// basic-block graph and returns every sink hit recorded on any explored
// path. Each call gets its own namer, solver, and visit-count table, so
// functions may safely be analyzed concurrently by the driver.
func AnalyzeFunction(cfg *config.Config, reg *handler.Registry, fn *ssa.Function) []Hit {
	if len(fn.Blocks) == 0 {
		return nil
	}

	in := &interpreter{
		cfg:    cfg,
		reg:    reg,
		sv:     solver.New(),
		nm:     newNamer(),
		visits: map[*ssa.BasicBlock]int{},
		maxIt:  cfg.EffectiveMaxLoopIter(),
	}

	initial := store.New()
	in.seedParams(initial, fn)

	stack := []pathState{{st: initial, blk: fn.Blocks[0]}}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		stack = in.step(cur, stack)
	}
	return in.hits
}

type interpreter struct {
	cfg    *config.Config
	reg    *handler.Registry
	sv     *solver.Solver
	nm     *namer
	visits map[*ssa.BasicBlock]int
	maxIt  int
	hits   []Hit
}

// seedParams gives every parameter of a recognized sort a fresh
// symbolic term. Parameters are not tainted by this step; taint only
// enters a path through a call to a configured source function.
func (in *interpreter) seedParams(st *store.Store, fn *ssa.Function) {
	for _, p := range fn.Params {
		in.seedValue(st, p, p.Type())
	}
	for _, fv := range fn.FreeVars {
		in.seedValue(st, fv, fv.Type())
	}
}

func (in *interpreter) seedValue(st *store.Store, v ssa.Value, t types.Type) {
	key := in.nm.key(v)
	switch basic, ok := utils.Dereference(t).Underlying().(*types.Basic); {
	case ok && basic.Info()&types.IsString != 0:
		st.SetString(key, in.sv.NewStringVar(string(key)))
	case ok && basic.Info()&types.IsBoolean != 0:
		st.SetBool(key, in.sv.NewBoolVar(string(key)))
	case ok && basic.Info()&types.IsInteger != 0:
		st.SetInt(key, in.sv.NewIntVar(string(key)))
	}
}

// step processes one worklist entry and returns the worklist with this
// entry's successors pushed.
func (in *interpreter) step(ps pathState, stack []pathState) []pathState {
	in.visits[ps.blk]++
	visitCount := in.visits[ps.blk]
	if visitCount > in.maxIt {
		return stack // abandoned: exceeded the loop bound.
	}
	if visitCount == in.maxIt {
		in.widen(ps.st, ps.blk)
		return stack // widened, then abandoned.
	}

	instrs := ps.blk.Instrs
	if len(instrs) == 0 {
		return stack
	}
	for _, instr := range instrs[:len(instrs)-1] {
		in.execStatement(ps.st, ps.blk, ps.pred, instr)
	}
	return in.execTerminator(ps.st, ps.blk, instrs[len(instrs)-1], stack)
}

// widen drops every path-condition predicate that mentions a location
// written in bb, over-approximating the loop rather than unrolling it
// further. Precision is lost, not reachability: more paths become
// feasible, never fewer.
func (in *interpreter) widen(st *store.Store, bb *ssa.BasicBlock) {
	written := map[string]bool{}
	for _, instr := range bb.Instrs {
		if v, ok := instr.(ssa.Value); ok {
			written[string(in.nm.key(v))] = true
		}
		if s, ok := instr.(*ssa.Store); ok {
			written[string(in.nm.key(s.Addr))] = true
		}
	}
	var keep []solver.BoolTerm
	for _, c := range st.Constraints() {
		if !c.Mentions(written) {
			keep = append(keep, c)
		}
	}
	st.DropConstraints(keep)
}

// --- statement semantics ---

func (in *interpreter) execStatement(st *store.Store, blk, pred *ssa.BasicBlock, instr ssa.Instruction) {
	switch t := instr.(type) {
	case *ssa.Call:
		in.execCall(st, t)

	case *ssa.BinOp:
		in.execBinOp(st, t)

	case *ssa.Store:
		in.copyValue(st, in.nm.key(t.Addr), t.Val)

	case *ssa.FieldAddr:
		base := in.nm.key(t.X)
		dst := in.nm.key(t)
		st.Alias(dst, base.Field(t.Field))

	case *ssa.IndexAddr:
		base := in.nm.key(t.X)
		dst := in.nm.key(t)
		if c, ok := t.Index.(*ssa.Const); ok && c.Value != nil {
			if i, exact := constant.Int64Val(c.Value); exact {
				st.Alias(dst, base.Index(int(i)))
				break
			}
		}
		// A non-constant index can't be named precisely; alias
		// conservatively to an opaque projection of the base.
		st.Alias(dst, base.Opaque())

	case *ssa.Field:
		// Value-producing field read: projects a stable key so a
		// subsequent use sees whatever was last stored there, and
		// inherits taint from the struct as a whole (a tainted
		// aggregate taints every field projected from it).
		base := in.nm.key(t.X)
		dst := in.nm.key(t)
		st.Alias(dst, base.Field(t.Field))
		st.PropagateTaint(dst, base)

	case *ssa.Extract:
		in.copyValue(st, in.nm.key(t), t.Tuple)

	case *ssa.ChangeInterface, *ssa.ChangeType, *ssa.SliceToArrayPointer:
		in.execCastLike(st, instr.(ssa.Value))

	case *ssa.Convert:
		in.execConvert(st, t)

	case *ssa.MakeInterface:
		in.copyValue(st, in.nm.key(t), t.X)

	case *ssa.Slice:
		in.copyValue(st, in.nm.key(t), t.X)

	case *ssa.TypeAssert:
		in.copyValue(st, in.nm.key(t), t.X)

	case *ssa.Lookup:
		in.copyValue(st, in.nm.key(t), t.X)

	case *ssa.UnOp:
		in.execUnOp(st, t)

	case *ssa.MapUpdate:
		keyKey := in.operandKey(t.Key)
		valKey := in.operandKey(t.Value)
		mapKey := in.nm.key(t.Map)
		if st.IsTainted(keyKey) || st.IsTainted(valKey) {
			st.SetTaint(mapKey, true)
		}

	case *ssa.Phi:
		idx := predIndex(blk.Preds, pred)
		if idx >= 0 {
			in.copyValue(st, in.nm.key(t), t.Edges[idx])
		}

	default:
		// Alloc, MakeClosure, MakeChan/Map/Slice, Go, Defer, Send,
		// RunDefers, DebugRef and friends: no assignment semantics
		// relevant to string/int/bool taint tracking. Concurrency
		// (Go/Defer/Send) is out of scope.
	}
}

// execCastLike implements the shared "Cast(_, operand, _): copy +
// propagate taint (sort preserved)" rule for every instruction whose
// only operand is named X.
func (in *interpreter) execCastLike(st *store.Store, v ssa.Value) {
	x := castOperand(v)
	if x == nil {
		return
	}
	in.copyValue(st, in.nm.key(v), x)
}

func castOperand(v ssa.Value) ssa.Value {
	switch t := v.(type) {
	case *ssa.ChangeInterface:
		return t.X
	case *ssa.ChangeType:
		return t.X
	case *ssa.SliceToArrayPointer:
		return t.X
	}
	return nil
}

// execConvert models a conversion: a plain copy, plus the generic
// constructor dispatch for conversions whose destination type is
// string-shaped (`string(x)` and user-defined string types), keyed on
// the destination type rather than a callee name since a conversion is
// not a call site.
func (in *interpreter) execConvert(st *store.Store, t *ssa.Convert) {
	in.copyValue(st, in.nm.key(t), t.X)
	if basic, ok := t.Type().Underlying().(*types.Basic); ok && basic.Info()&types.IsString != 0 {
		handler.HandleFromTrait(&handler.Args{
			Store:        st,
			Solver:       in.sv,
			ArgKeys:      []store.LocKey{in.nm.key(t.X)},
			DestKey:      in.nm.key(t),
			DestTypeName: utils.UnqualifiedName(t.Type()),
		})
	}
}

func (in *interpreter) execUnOp(st *store.Store, t *ssa.UnOp) {
	dst := in.nm.key(t)
	switch t.Op {
	case token.MUL:
		// Dereference: load whichever sort is bound at the pointee's
		// (alias-resolved) key.
		if g, ok := t.X.(*ssa.Global); ok {
			if name := globalQualifiedName(g); in.cfg.IsSource(name) {
				st.SetTaint(dst, true)
				return
			}
		}
		in.copyValue(st, dst, t.X)
	case token.ARROW:
		// Channel receive: a derived value, concurrency semantics are
		// out of scope beyond copying whatever taint the channel
		// variable itself carries.
		in.copyValue(st, dst, t.X)
	case token.NOT:
		if b, ok := st.GetBool(in.nm.key(t.X)); ok {
			st.SetBool(dst, in.sv.Not(b))
		}
		st.PropagateTaint(dst, in.nm.key(t.X))
	default:
		// Numeric negation and friends: taint still propagates even
		// though the reference solver does not model the arithmetic.
		st.PropagateTaint(dst, in.nm.key(t.X))
	}
}

func (in *interpreter) execBinOp(st *store.Store, t *ssa.BinOp) {
	dst := in.nm.key(t)
	// Constant operands are bound here so a comparison against a literal
	// (`name == "safe"`) resolves both sides to terms.
	lk, rk := in.operandKeyBound(st, t.X), in.operandKeyBound(st, t.Y)

	if li, lok := st.GetInt(lk); lok {
		if ri, rok := st.GetInt(rk); rok {
			in.applyIntBinOp(st, dst, t.Op, li, ri)
			st.PropagateTaint(dst, lk)
			if st.IsTainted(rk) {
				st.SetTaint(dst, true)
			}
			return
		}
	}
	if t.Op == token.EQL || t.Op == token.NEQ {
		if ls, lok := st.GetString(lk); lok {
			if rs, rok := st.GetString(rk); rok {
				eq := in.sv.StringEquals(ls, rs)
				if t.Op == token.NEQ {
					eq = in.sv.Not(eq)
				}
				st.SetBool(dst, eq)
			}
		}
	}
	st.PropagateTaint(dst, lk)
	if st.IsTainted(rk) {
		st.SetTaint(dst, true)
	}
}

func (in *interpreter) applyIntBinOp(st *store.Store, dst store.LocKey, op token.Token, l, r solver.IntTerm) {
	switch op {
	case token.ADD:
		st.SetInt(dst, in.sv.Add(l, r))
	case token.SUB:
		st.SetInt(dst, in.sv.Sub(l, r))
	case token.MUL:
		st.SetInt(dst, in.sv.Mul(l, r))
	case token.QUO:
		st.SetInt(dst, in.sv.Div(l, r))
	case token.REM:
		st.SetInt(dst, in.sv.Mod(l, r))
	case token.EQL:
		st.SetBool(dst, in.sv.IntEq(l, r))
	case token.NEQ:
		st.SetBool(dst, in.sv.IntNe(l, r))
	case token.LSS:
		st.SetBool(dst, in.sv.IntLt(l, r))
	case token.LEQ:
		st.SetBool(dst, in.sv.IntLe(l, r))
	case token.GTR:
		st.SetBool(dst, in.sv.IntGt(l, r))
	case token.GEQ:
		st.SetBool(dst, in.sv.IntGe(l, r))
	default:
		// Bitwise/shift ops: no term modeled, but the int slot is left
		// unbound rather than guessed at; taint still propagates above.
	}
}

// copyValue implements the common "Use(operand): constants load into
// the destination's sort; variable operands copy whichever sort-slot
// exists in the source; always propagate_taint(src, dst)" rule.
func (in *interpreter) copyValue(st *store.Store, dst store.LocKey, src ssa.Value) {
	if c, ok := src.(*ssa.Const); ok {
		in.bindConst(st, dst, c)
		return
	}
	srcKey := in.nm.key(src)
	if s, ok := st.GetString(srcKey); ok {
		st.SetString(dst, s)
	}
	if b, ok := st.GetBool(srcKey); ok {
		st.SetBool(dst, b)
	}
	if i, ok := st.GetInt(srcKey); ok {
		st.SetInt(dst, i)
	}
	st.PropagateTaint(dst, srcKey)
}

// operandKey resolves an operand to its LocKey without binding anything:
// a constant operand's key carries no term unless operandKeyBound bound
// it earlier.
func (in *interpreter) operandKey(v ssa.Value) store.LocKey {
	if c, ok := v.(*ssa.Const); ok {
		k := in.nm.key(v)
		in.bindConst(nil, k, c) // constants never carry taint; binding is optional here
		return k
	}
	return in.nm.key(v)
}

func (in *interpreter) bindConst(st *store.Store, dst store.LocKey, c *ssa.Const) {
	if st == nil || c.Value == nil {
		return
	}
	switch {
	case c.Value.Kind() == constant.String:
		st.SetString(dst, in.sv.StaticString(constant.StringVal(c.Value)))
	case c.Value.Kind() == constant.Bool:
		st.SetBool(dst, in.sv.StaticBool(constant.BoolVal(c.Value)))
	case c.Value.Kind() == constant.Int:
		in.bindConstInt(st, dst, c.Value)
	}
}

// bindConstInt decodes an integer constant: values that don't fit a
// native int64 are split into 64-bit halves rather than silently
// truncated or dropped. Constant decoding failure is a skip, only when
// the value genuinely can't be read at all.
func (in *interpreter) bindConstInt(st *store.Store, dst store.LocKey, v constant.Value) {
	if i64, exact := constant.Int64Val(v); exact {
		st.SetInt(dst, in.sv.StaticInt(i64))
		return
	}
	if u64, exact := constant.Uint64Val(v); exact {
		st.SetInt(dst, in.sv.StaticInt128(0, u64))
		return
	}
	// Wider than 64 bits in both signed and unsigned interpretations:
	// skipped rather than guessed at.
}

// --- call semantics ---

func (in *interpreter) execCall(st *store.Store, call *ssa.Call) {
	name, ok := calleeName(call)
	dst := in.nm.key(call)

	argKeys := in.callArgKeys(st, call)
	anyTainted := false
	for _, k := range argKeys {
		if st.IsTainted(k) {
			anyTainted = true
			break
		}
	}

	if !ok {
		// Unresolved callee: handlers are skipped, control flow
		// continues normally; taint still flows through conservatively.
		if anyTainted {
			st.SetTaint(dst, true)
		}
		return
	}

	args := &handler.Args{
		Store:        st,
		Solver:       in.sv,
		ArgKeys:      argKeys,
		DestKey:      dst,
		DestTypeName: utils.UnqualifiedName(call.Type()),
	}

	if h, found := in.reg.Lookup(name); found {
		h(args)
	} else if in.cfg.IsSource(name) {
		// Not registered by exact name (NewDefaultRegistry only
		// pre-registers cfg.SourceFunctions verbatim), but matched by a
		// SourcePackagePatterns entry: apply the same generic-source
		// behavior without requiring every entry point of a package to
		// be listed individually.
		handler.HandleGenericSource(args)
	}

	for _, hit := range handler.ApplySinkChecks(args, in.cfg.SinksFor(name)) {
		in.hits = append(in.hits, Hit{Function: name, Forbidden: hit.Forbidden, Pos: call.Pos()})
	}

	if anyTainted {
		st.SetTaint(dst, true)
	}
}

// operandKeyBound is operandKey, but also binds the constant into st
// (constants passed as call arguments need a real string/int/bool
// value bound before a handler or sink check can read them).
func (in *interpreter) operandKeyBound(st *store.Store, v ssa.Value) store.LocKey {
	k := in.nm.key(v)
	if c, ok := v.(*ssa.Const); ok {
		in.bindConst(st, k, c)
	}
	return k
}

// callArgKeys resolves a call's argument operands to LocKeys. A
// variadic callee's trailing arguments arrive packed in a slice go/ssa
// synthesized at the call site; they are unpacked back into the element
// locations the caller's stores actually wrote, so handlers and sink
// rules see the arguments as written (filepath.Join(base, comp) is two
// string arguments, not one []string).
func (in *interpreter) callArgKeys(st *store.Store, call *ssa.Call) []store.LocKey {
	args := call.Call.Args
	keys := make([]store.LocKey, 0, len(args))
	for i, a := range args {
		if i == len(args)-1 && call.Call.Signature().Variadic() {
			if elems, ok := in.variadicElemKeys(a); ok {
				keys = append(keys, elems...)
				continue
			}
		}
		keys = append(keys, in.operandKeyBound(st, a))
	}
	return keys
}

// variadicElemKeys recovers the element locations of the array backing
// a synthesized variadic slice. A "spread" call site (f(xs...)) passes
// a pre-existing slice instead; that case keeps the slice's own key.
func (in *interpreter) variadicElemKeys(v ssa.Value) ([]store.LocKey, bool) {
	sl, ok := v.(*ssa.Slice)
	if !ok {
		return nil, false
	}
	alloc, ok := sl.X.(*ssa.Alloc)
	if !ok {
		return nil, false
	}
	ptr, ok := alloc.Type().Underlying().(*types.Pointer)
	if !ok {
		return nil, false
	}
	arr, ok := ptr.Elem().Underlying().(*types.Array)
	if !ok {
		return nil, false
	}
	base := in.nm.key(alloc)
	keys := make([]store.LocKey, arr.Len())
	for i := range keys {
		keys[i] = base.Index(i)
	}
	return keys, true
}

// calleeName resolves a call to its fully-qualified textual callee
// name. An invoke (interface method) call resolves through its static
// method; a call through a func value with no statically known target
// is unresolved.
func calleeName(call *ssa.Call) (string, bool) {
	if call.Call.IsInvoke() {
		m := call.Call.Method
		if m == nil {
			return "", false
		}
		recv := utils.UnqualifiedName(m.Type().(*types.Signature).Recv().Type())
		path := ""
		if m.Pkg() != nil {
			path = m.Pkg().Path()
		}
		return utils.QualifiedName(path, recv, m.Name()), true
	}
	if callee := call.Call.StaticCallee(); callee != nil {
		return utils.CalleeQualifiedName(callee), true
	}
	return "", false
}

func globalQualifiedName(g *ssa.Global) string {
	path := ""
	if g.Pkg != nil {
		path = g.Pkg.Pkg.Path()
	}
	return utils.QualifiedName(path, "", g.Name())
}

// --- terminator semantics ---

// execTerminator dispatches go/ssa's terminator set: Jump, If (a
// two-way branch on a bool discriminant), and the path-terminal pair
// Return and Panic. go/ssa has no other terminator kinds, so every
// remaining instruction shape falls through with no successor.
func (in *interpreter) execTerminator(st *store.Store, blk *ssa.BasicBlock, instr ssa.Instruction, stack []pathState) []pathState {
	switch t := instr.(type) {
	case *ssa.Jump:
		return append(stack, pathState{st: st, blk: blk.Succs[0], pred: blk})

	case *ssa.If:
		return in.execIf(st, blk, t, stack)

	case *ssa.Return, *ssa.Panic:
		return stack // terminal: no successor.

	default:
		return stack
	}
}

func (in *interpreter) execIf(st *store.Store, blk *ssa.BasicBlock, t *ssa.If, stack []pathState) []pathState {
	condKey := in.operandKey(t.Cond)
	tainted := st.IsTainted(condKey)
	cond, ok := st.GetBool(condKey)
	if !ok {
		// Unknown discriminant: push every target unconstrained.
		for _, succ := range blk.Succs {
			clone := st.Clone()
			if tainted {
				clone.SetPathTaint(true)
			}
			stack = append(stack, pathState{st: clone, blk: succ, pred: blk})
		}
		return stack
	}

	trueClone := st.Clone()
	trueClone.AddConstraint(cond)
	if tainted {
		trueClone.SetPathTaint(true)
	}
	if in.sv.CheckConstraintSat(st.Constraints(), cond) != solver.Unsat {
		stack = append(stack, pathState{st: trueClone, blk: blk.Succs[0], pred: blk})
	}

	falseClone := st.Clone()
	notCond := in.sv.Not(cond)
	falseClone.AddConstraint(notCond)
	if tainted {
		falseClone.SetPathTaint(true)
	}
	if in.sv.CheckConstraintSat(st.Constraints(), notCond) != solver.Unsat {
		stack = append(stack, pathState{st: falseClone, blk: blk.Succs[1], pred: blk})
	}
	return stack
}

func predIndex(preds []*ssa.BasicBlock, pred *ssa.BasicBlock) int {
	for i, p := range preds {
		if p == pred {
			return i
		}
	}
	return -1
}
