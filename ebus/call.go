package ebus

import (
	"fmt"
	"reflect"

	"github.com/saylorsolutions/busx/assert"
)

// argAssertion checks one argument of a queued call.
// The pos parameter is informational, and is used to describe failures.
type argAssertion func(pos int, arg reflect.Value) error

// and chains assertions, stopping at the first failure.
func (a argAssertion) and(other argAssertion, more ...argAssertion) argAssertion {
	return func(pos int, arg reflect.Value) error {
		for _, next := range append([]argAssertion{a, other}, more...) {
			if err := next(pos, arg); err != nil {
				return err
			}
		}
		return nil
	}
}

func assignableTo(param reflect.Type) argAssertion {
	return func(pos int, arg reflect.Value) error {
		if !arg.IsValid() {
			return fmt.Errorf("%w: argument %d is nil, but %s can't be nil", ErrInvalidCall, pos, param)
		}
		if !arg.Type().AssignableTo(param) {
			return fmt.Errorf("%w: argument %d is %s, expected %s", ErrInvalidCall, pos, arg.Type(), param)
		}
		return nil
	}
}

// notReference rejects arguments that would share memory with the caller after being queued.
// Nil references share nothing, so they're allowed.
func notReference() argAssertion {
	return func(pos int, arg reflect.Value) error {
		switch arg.Kind() {
		case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			if arg.IsNil() {
				return nil
			}
			return fmt.Errorf("%w: argument %d is a %s", ErrQueuedReference, pos, arg.Kind())
		default:
			return nil
		}
	}
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return true
	default:
		return false
	}
}

// QueueCall queues a call of fn with the given arguments, to run with the next call to [Bus.ExecuteQueuedEvents].
// Return values of fn are discarded.
//
// Arguments are captured by value when QueueCall is called.
// Non-nil pointers, maps, slices, channels, and functions would still share memory with the caller, so they're rejected with [ErrQueuedReference] unless Traits.EnableQueuedReferences is set.
// Note that only the argument itself is checked, so a struct containing a pointer is allowed.
//
// A fn that isn't a function, or arguments that don't match its parameters, are rejected with [ErrInvalidCall].
// Rejection is a contract violation.
func (b *Bus[I, ID]) QueueCall(fn any, args ...any) error {
	call, err := b.prepareCall(fn, args)
	if err != nil {
		return b.violation("QueueCall", err)
	}
	return b.enqueue("QueueCall", queuedCall{run: call})
}

func (b *Bus[I, ID]) prepareCall(fn any, args []any) (func(), error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", ErrInvalidCall, fn)
	}
	var (
		ft       = fv.Type()
		numIn    = ft.NumIn()
		variadic = ft.IsVariadic()
	)
	switch {
	case variadic && len(args) < numIn-1:
		return nil, fmt.Errorf("%w: expected at least %d arguments, got %d", ErrInvalidCall, numIn-1, len(args))
	case !variadic && len(args) != numIn:
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", ErrInvalidCall, numIn, len(args))
	}

	var (
		errs   = assert.CollectErrors("; ")
		values = make([]reflect.Value, len(args))
	)
	for i, arg := range args {
		param := paramType(ft, i)
		check := assignableTo(param)
		if !b.traits.EnableQueuedReferences {
			check = check.and(notReference())
		}
		val := reflect.ValueOf(arg)
		if arg == nil && nilable(param) {
			val = reflect.Zero(param)
		}
		if err := check(i, val); err != nil {
			errs.Add(err)
			continue
		}
		values[i] = val
	}
	if err := errs.Result(); err != nil {
		return nil, err
	}
	return func() {
		fv.Call(values)
	}, nil
}

func paramType(ft reflect.Type, pos int) reflect.Type {
	last := ft.NumIn() - 1
	if ft.IsVariadic() && pos >= last {
		return ft.In(last).Elem()
	}
	return ft.In(pos)
}
