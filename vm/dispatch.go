package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/values"
)

func constStr(block *CodeBlock, idx uint32) string {
	return block.Constants[idx].ToStringValue()
}

func describeCallee(v values.Value) string {
	if v.IsObject() && v.AsObject().FuncName != "" {
		return v.AsObject().FuncName
	}
	return v.TypeOf()
}

// deliverErr turns a fallible opcode's *errors.Error into dispatch-loop
// control flow. ok==true means the caller should fall through and let
// the for loop continue (there was no error, or the error was routed to
// a handler and frame.PC already points at it); ok==false means
// execFrame must return immediately with (sig, fatal).
func (vm *Vm) deliverErr(frame *CallFrame, err *errors.Error) (ok bool, sig signal, fatal *errors.Error) {
	if err == nil {
		return true, signal{}, nil
	}
	if !err.Kind.Catchable() {
		return false, signal{}, err
	}
	wrapped := vm.wrapInternalError(err, frame.Block.spanAt(frame.PC))
	payload, _ := wrapped.Payload.(values.Value)
	s := signal{kind: sigThrow, value: payload}
	if newPC, handled := vm.handleCompletion(frame, s); handled {
		frame.PC = newPC
		return true, signal{}, nil
	}
	return false, s, nil
}

// execFrame is the instruction dispatch loop (spec §4.1): decode one
// instruction, execute it against frame's stack/environment, repeat
// until a Return/ReturnUndefined/Throw completion (or an uncaught one
// bubbling up from a handler miss) produces a signal, or the stream runs
// out (an implicit `return undefined` at the end of a script body).
func (vm *Vm) execFrame(frame *CallFrame) (signal, *errors.Error) {
	block := frame.Block

dispatchLoop:
	for {
		if vm.Limits.MaxSteps > 0 {
			vm.steps++
			if vm.steps > vm.Limits.MaxSteps {
				return signal{}, errors.RuntimeLimitError(block.spanAt(frame.PC), "step budget", vm.steps, vm.Limits.MaxSteps)
			}
		}
		if vm.Limits.MaxStackSlots > 0 && len(frame.Stack) > vm.Limits.MaxStackSlots {
			return signal{}, errors.RuntimeLimitError(block.spanAt(frame.PC), "value stack", uint64(len(frame.Stack)), uint64(vm.Limits.MaxStackSlots))
		}
		if frame.PC >= len(block.Code) {
			return signal{kind: sigNormal}, nil
		}
		reader := opcodes.Reader{Code: block.Code, PC: frame.PC}
		inst := reader.Decode()
		frame.PC = inst.NextPC
		span := block.spanAt(inst.Addr)

		switch inst.Op {
		case opcodes.Nop:

		// --- stack / literals ---
		case opcodes.LoadUndefined:
			frame.push(values.Undefined)
		case opcodes.LoadNull:
			frame.push(values.Null)
		case opcodes.LoadTrue:
			frame.push(values.True)
		case opcodes.LoadFalse:
			frame.push(values.False)
		case opcodes.LoadZero:
			frame.push(values.Int32(0))
		case opcodes.LoadConst:
			frame.push(block.Constants[inst.Operands[0]])
		case opcodes.Pop:
			frame.pop()
		case opcodes.Dup:
			frame.push(frame.peek())
		case opcodes.Swap:
			a := frame.pop()
			b := frame.pop()
			frame.push(a)
			frame.push(b)

		// --- variable access ---
		case opcodes.DeclareVar:
			name := constStr(block, inst.Operands[0])
			kind := inst.Operands[1]
			switch kind {
			case 0: // var: no TDZ, hoisted to undefined immediately
				frame.Env.CreateMutableBinding(name, false)
				_ = frame.Env.InitializeBinding(name, values.Undefined)
			case 2: // const
				frame.Env.CreateImmutableBinding(name, false)
			default: // let
				frame.Env.CreateMutableBinding(name, false)
			}
		case opcodes.InitBinding:
			name := constStr(block, inst.Operands[0])
			value := frame.pop()
			if ok, sig, fatal := vm.deliverErr(frame, frame.Env.InitializeBinding(name, value)); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
		case opcodes.GetBinding:
			name := constStr(block, inst.Operands[0])
			icSlot := int(inst.Operands[1])
			e, found := vm.getBindingIC(block, frame, name, icSlot)
			if !found {
				if ok, sig, fatal := vm.deliverErr(frame, errors.New(errors.ReferenceError, span, "%s is not defined", name)); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			v, gerr := e.GetBindingValue(name, false)
			if ok, sig, fatal := vm.deliverErr(frame, gerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(v)
		case opcodes.SetBinding:
			name := constStr(block, inst.Operands[0])
			icSlot := int(inst.Operands[1])
			value := frame.pop()
			e, found := vm.getBindingIC(block, frame, name, icSlot)
			if !found {
				e = vm.Realm.GlobalEnv
			}
			if ok, sig, fatal := vm.deliverErr(frame, e.SetMutableBinding(name, value, false)); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(value)
		case opcodes.GetBindingRef:
			name := constStr(block, inst.Operands[0])
			e := env.Resolve(frame.Env, name)
			if e == nil {
				frame.push(values.Undefined)
				continue dispatchLoop
			}
			v, gerr := e.GetBindingValue(name, false)
			if ok, sig, fatal := vm.deliverErr(frame, gerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(v)

		// --- property access ---
		case opcodes.GetProp:
			name := constStr(block, inst.Operands[0])
			recv := frame.pop()
			v, perr := vm.getValueProperty(recv, values.StringKey(name), span)
			if ok, sig, fatal := vm.deliverErr(frame, perr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(v)
		case opcodes.GetPropIC:
			name := constStr(block, inst.Operands[0])
			icSlot := int(inst.Operands[1])
			recv := frame.pop()
			var v values.Value
			var perr *errors.Error
			if recv.IsObject() {
				v, perr = vm.getPropIC(block, recv.AsObject(), values.StringKey(name), icSlot, recv)
			} else {
				v, perr = vm.getValueProperty(recv, values.StringKey(name), span)
			}
			if ok, sig, fatal := vm.deliverErr(frame, perr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(v)
		case opcodes.SetProp:
			name := constStr(block, inst.Operands[0])
			value := frame.pop()
			recv := frame.pop()
			if recv.IsObject() {
				_, serr := recv.AsObject().Methods.Set(recv.AsObject(), values.StringKey(name), value, recv)
				if ok, sig, fatal := vm.deliverErr(frame, serr); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
			}
			frame.push(value)
		case opcodes.GetPropComputed:
			key := frame.pop()
			recv := frame.pop()
			v, perr := vm.getValueProperty(recv, values.ToPropertyKey(key), span)
			if ok, sig, fatal := vm.deliverErr(frame, perr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(v)
		case opcodes.SetPropComputed:
			value := frame.pop()
			key := frame.pop()
			recv := frame.pop()
			if recv.IsObject() {
				_, serr := recv.AsObject().Methods.Set(recv.AsObject(), values.ToPropertyKey(key), value, recv)
				if ok, sig, fatal := vm.deliverErr(frame, serr); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
			}
			frame.push(value)
		case opcodes.DeleteProp:
			name := constStr(block, inst.Operands[0])
			recv := frame.pop()
			result := true
			if recv.IsObject() {
				result = recv.AsObject().Methods.Delete(recv.AsObject(), values.StringKey(name))
			}
			frame.push(values.Bool(result))
		case opcodes.DeletePropComputed:
			key := frame.pop()
			recv := frame.pop()
			result := true
			if recv.IsObject() {
				result = recv.AsObject().Methods.Delete(recv.AsObject(), values.ToPropertyKey(key))
			}
			frame.push(values.Bool(result))

		// --- arithmetic / bitwise / logical / comparison ---
		case opcodes.Add, opcodes.Sub, opcodes.Mul, opcodes.Div, opcodes.Mod, opcodes.Exp,
			opcodes.BitAnd, opcodes.BitOr, opcodes.BitXor, opcodes.Shl, opcodes.Shr, opcodes.UShr,
			opcodes.Eq, opcodes.Neq, opcodes.StrictEq, opcodes.StrictNeq,
			opcodes.Lt, opcodes.Lte, opcodes.Gt, opcodes.Gte, opcodes.InstanceOf, opcodes.In:
			r := frame.pop()
			l := frame.pop()
			result, berr := vm.binaryOp(int(binOpFromOpcode(inst.Op)), l, r, span)
			if ok, sig, fatal := vm.deliverErr(frame, berr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(result)
		case opcodes.Neg:
			frame.push(vm.unaryMinus(frame.pop()))
		case opcodes.Pos:
			frame.push(vm.unaryPlus(frame.pop()))
		case opcodes.LogNot:
			frame.push(values.Bool(!frame.pop().ToBoolean()))
		case opcodes.BitNot:
			frame.push(vm.bitNot(frame.pop()))
		case opcodes.TypeOf:
			frame.push(values.StringFromGo(frame.pop().TypeOf()))
		case opcodes.Void:
			frame.pop()
			frame.push(values.Undefined)
		case opcodes.Inc:
			frame.push(vm.incDec(frame.pop(), 1))
		case opcodes.Dec:
			frame.push(vm.incDec(frame.pop(), -1))

		// --- control flow ---
		case opcodes.Jump:
			frame.PC = int(inst.Operands[0])
		case opcodes.JumpIfFalse:
			if !frame.pop().ToBoolean() {
				frame.PC = int(inst.Operands[0])
			}
		case opcodes.JumpIfTrue:
			if frame.pop().ToBoolean() {
				frame.PC = int(inst.Operands[0])
			}
		case opcodes.JumpIfNullish:
			if frame.peek().IsNullish() {
				frame.PC = int(inst.Operands[0])
			}

		// --- this / super ---
		case opcodes.LoadThis:
			frame.push(frame.This)
		case opcodes.LoadNewTarget:
			frame.push(frame.NewTarget)
		case opcodes.GetSuperProp:
			name := constStr(block, inst.Operands[0])
			v, perr := vm.getSuperProp(frame, name, span)
			if ok, sig, fatal := vm.deliverErr(frame, perr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(v)
		case opcodes.CallSuperMethod:
			name := constStr(block, inst.Operands[0])
			argc := int(inst.Operands[1])
			args := popArgs(frame, argc)
			methodVal, perr := vm.getSuperProp(frame, name, span)
			if ok, sig, fatal := vm.deliverErr(frame, perr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			if !methodVal.IsCallable() {
				if ok, sig, fatal := vm.deliverErr(frame, vm.raiseTypeError(span, "super.%s is not a function", name)); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			result, cerr := methodVal.AsObject().Call(frame.This, args)
			if ok, sig, fatal := vm.deliverErr(frame, cerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(result)

		// --- calls ---
		case opcodes.Call:
			argc := int(inst.Operands[0])
			args := popArgs(frame, argc)
			callee := frame.pop()
			if !callee.IsCallable() {
				if ok, sig, fatal := vm.deliverErr(frame, vm.raiseTypeError(span, "%s is not a function", describeCallee(callee))); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			result, cerr := callee.AsObject().Call(values.Undefined, args)
			if ok, sig, fatal := vm.deliverErr(frame, cerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(result)
		case opcodes.CallMethod:
			name := constStr(block, inst.Operands[0])
			argc := int(inst.Operands[1])
			args := popArgs(frame, argc)
			recv := frame.pop()
			methodVal, perr := vm.getValueProperty(recv, values.StringKey(name), span)
			if ok, sig, fatal := vm.deliverErr(frame, perr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			if !methodVal.IsCallable() {
				if ok, sig, fatal := vm.deliverErr(frame, vm.raiseTypeError(span, "%s.%s is not a function", recv.TypeOf(), name)); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			result, cerr := methodVal.AsObject().Call(recv, args)
			if ok, sig, fatal := vm.deliverErr(frame, cerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(result)
		case opcodes.New:
			argc := int(inst.Operands[0])
			args := popArgs(frame, argc)
			callee := frame.pop()
			result, cerr := vm.constructNew(callee, args, span)
			if ok, sig, fatal := vm.deliverErr(frame, cerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(result)
		case opcodes.SuperCall:
			argc := int(inst.Operands[0])
			args := popArgs(frame, argc)
			superCtor := vm.superCtors[frame.FuncObj]
			if superCtor == nil {
				if ok, sig, fatal := vm.deliverErr(frame, vm.raiseTypeError(span, "'super' keyword is only valid inside a derived class constructor")); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			protoParent := vm.Realm.Intrinsics.ObjectPrototype
			if frame.NewTarget.IsObject() {
				if pv, _ := frame.NewTarget.AsObject().Methods.Get(frame.NewTarget.AsObject(), values.StringKey("prototype"), frame.NewTarget); pv.IsObject() {
					protoParent = pv.AsObject()
				}
			}
			freshThis := values.ObjectValue(values.NewOrdinaryObject(protoParent))
			result, cerr := superCtor.Construct(freshThis, args)
			if ok, sig, fatal := vm.deliverErr(frame, cerr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			actualThis := result
			if !result.IsObject() {
				actualThis = freshThis
			}
			frame.Env.BindThis(actualThis)
			frame.This = actualThis
			frame.push(actualThis)
		case opcodes.Return:
			sig := signal{kind: sigReturn, value: frame.pop()}
			if newPC, handled := vm.handleCompletion(frame, sig); handled {
				frame.PC = newPC
				continue dispatchLoop
			}
			return sig, nil
		case opcodes.ReturnUndefined:
			sig := signal{kind: sigReturn, value: values.Undefined}
			if newPC, handled := vm.handleCompletion(frame, sig); handled {
				frame.PC = newPC
				continue dispatchLoop
			}
			return sig, nil
		case opcodes.Throw:
			v := frame.pop()
			sig := signal{kind: sigThrow, value: v}
			if newPC, handled := vm.handleCompletion(frame, sig); handled {
				frame.PC = newPC
				continue dispatchLoop
			}
			return sig, nil
		case opcodes.ExitFinally:
			if frame.pendingCompletion != nil {
				pending := *frame.pendingCompletion
				frame.pendingCompletion = nil
				if pending.kind == sigNormal {
					continue dispatchLoop
				}
				if newPC, handled := vm.handleCompletion(frame, pending); handled {
					frame.PC = newPC
					continue dispatchLoop
				}
				return pending, nil
			}

		// --- iterator protocol ---
		case opcodes.GetIterator, opcodes.GetAsyncIterator:
			v := frame.pop()
			it, ierr := vm.getIterator(v, span)
			if ok, sig, fatal := vm.deliverErr(frame, ierr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(it)
		case opcodes.GetForInIterator:
			v := frame.pop()
			frame.push(vm.makeForInIterator(v))
		case opcodes.IteratorNext:
			iter := frame.pop()
			val, done, ierr := vm.iteratorNext(iter, span)
			if ok, sig, fatal := vm.deliverErr(frame, ierr); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
			frame.push(iter)
			frame.push(vm.iterResult(val, done))
		case opcodes.IteratorClose:
			vm.iteratorClose(frame.pop())

		// --- generator / async suspension ---
		//
		// Both opcodes suspend by returning straight out of execFrame with a
		// sigYield/sigAwait completion: frame's PC (already advanced past this
		// instruction), value stack and environment chain are left exactly as
		// they are, and resuming later is just calling resumeFrame/execFrame
		// on the same *CallFrame again. No goroutine or channel is involved;
		// yield* lowers to an ordinary bytecode loop around a plain Yield (see
		// the compiler's yield* emission), so it needs no opcode of its own.
		case opcodes.Yield:
			v := frame.pop()
			if !frame.Suspendable {
				if ok, sig, fatal := vm.deliverErr(frame, vm.raiseTypeError(span, "yield used outside of a generator")); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			return signal{kind: sigYield, value: v}, nil
		case opcodes.Await:
			v := frame.pop()
			if !frame.Suspendable {
				if ok, sig, fatal := vm.deliverErr(frame, vm.raiseTypeError(span, "await used outside of an async function")); !ok {
					if fatal != nil {
						return signal{}, fatal
					}
					return sig, nil
				}
				continue dispatchLoop
			}
			return signal{kind: sigAwait, value: v}, nil

		// --- exception handling ---
		case opcodes.PushHandler:
			catchAddr := int(inst.Operands[0])
			finallyAddr := int(inst.Operands[1])
			frame.Handlers = append(frame.Handlers, handlerEntry{
				catchAddr: catchAddr, finallyAddr: finallyAddr,
				hasCatch: catchAddr != 0, hasFinally: finallyAddr != 0,
				stackDepth: len(frame.Stack), env: frame.Env,
			})
		case opcodes.PopHandler:
			if len(frame.Handlers) > 0 {
				frame.Handlers = frame.Handlers[:len(frame.Handlers)-1]
			}

		// --- environment push/pop ---
		case opcodes.PushBlockEnv:
			frame.Env = env.NewDeclarative(frame.Env)
		case opcodes.PushFunctionEnv:
			frame.Env = env.NewFunction(frame.Env, frame.FuncObj)
		case opcodes.PopEnv:
			if frame.Env.Outer != nil {
				frame.Env = frame.Env.Outer
			}
		case opcodes.PerIterationEnv:
			fresh := env.NewDeclarative(frame.Env.Outer)
			for _, name := range frame.Env.BindingNames() {
				val, verr := frame.Env.GetBindingValue(name, false)
				if verr != nil {
					val = values.Undefined
				}
				fresh.CreateMutableBinding(name, false)
				fresh.InitializeBinding(name, val)
			}
			frame.Env = fresh

		// --- object/array/template/regexp/class construction ---
		case opcodes.NewObject:
			frame.push(values.ObjectValue(values.NewOrdinaryObject(vm.Realm.Intrinsics.ObjectPrototype)))
		case opcodes.NewArray:
			frame.push(values.ObjectValue(values.NewArrayObject(vm.Realm.Intrinsics.ArrayPrototype)))
		case opcodes.NewArrayFromElements:
			vm.opNewArrayFromElements(frame, int(inst.Operands[0]))
		case opcodes.DefineDataProperty:
			vm.opDefineDataProperty(frame, constStr(block, inst.Operands[0]))
		case opcodes.DefineComputedProperty:
			vm.opDefineComputedProperty(frame)
		case opcodes.DefineMethod:
			vm.opDefineMethod(frame, constStr(block, inst.Operands[0]))
		case opcodes.DefineGetter:
			vm.opDefineAccessor(frame, constStr(block, inst.Operands[0]), true)
		case opcodes.DefineSetter:
			vm.opDefineAccessor(frame, constStr(block, inst.Operands[0]), false)
		case opcodes.SpreadInto:
			if ok, sig, fatal := vm.deliverErr(frame, vm.opSpreadInto(frame, span)); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
		case opcodes.NewTemplate:
			if ok, sig, fatal := vm.deliverErr(frame, vm.opNewTemplate(frame, int(inst.Operands[0]), span)); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
		case opcodes.NewRegExp:
			pattern := constStr(block, inst.Operands[0])
			flags := constStr(block, inst.Operands[1])
			frame.push(vm.opNewRegExp(pattern, flags))
		case opcodes.NewFunction:
			proto := block.Functions[inst.Operands[0]]
			fnObj := vm.instantiateFunction(proto, frame.Env)
			frame.push(values.ObjectValue(fnObj))

		// --- class setup ---
		case opcodes.NewClass:
			name := constStr(block, inst.Operands[0])
			hasSuper := inst.Operands[1] != 0
			if ok, sig, fatal := vm.deliverErr(frame, vm.opNewClass(frame, name, hasSuper)); !ok {
				if fatal != nil {
					return signal{}, fatal
				}
				return sig, nil
			}
		case opcodes.DefineClassMethod:
			vm.opDefineClassMethod(frame, constStr(block, inst.Operands[0]))
		case opcodes.DefineClassField:
			vm.opDefineClassField(frame, constStr(block, inst.Operands[0]))
		}
	}
}
