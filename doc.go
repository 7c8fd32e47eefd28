// Package ribose is a runtime for byte-driven finite-state transducers:
// load a compiled model once, bind it to a target, and drive it one
// push at a time.
//
// Load a model and bind a transductor to a target, for example:
//
//	model, err := ribose.Load(r)
//	t := model.Transductor(target)
//	status, err := t.Start("Fibonacci")
//	status, err = t.Push([]byte("0000\n0000000\n"))
//	status, err = t.Run()
//
// A target supplies the effectors a model's transducers invoke beyond
// the always-available built-ins (select, paste, copy, cut, clear,
// count, signal, in, out, mark, reset, start, shift, stop, pause):
//
//	type myTarget struct{ ribose.Transductor }
//
//	func (tgt *myTarget) Invoke(effector, param int32) (ribose.Return, error) {
//		// dispatch effector >= the built-in count
//	}
//
// Running a transductor
//
// Status() reports the transductor's run state: STOPPED when its
// transducer stack is empty, PAUSED when it is waiting for more input,
// RUNNABLE when Run can make progress. Run executes the inner loop
// until an effector requests PAUSE or STOPPED, or input is exhausted;
// it returns a *DomainError if a transducer makes no progress across
// two consecutive nul injections.
//
// Field contents accumulated during a run are read back with
// GetField, and per-run counters (bytes consumed, domain errors,
// accumulators, scan count) with Metrics.
//
// Model files
//
// A model file is the persistent form of a compiled transducer set:
// name tables for signals, fields and effectors, per-effector
// parameter tables, and one equivalence-class-factored kernel matrix
// per transducer. See internal/modelfile for the on-disk layout; Load
// decodes it and verifies every cross-reference a transducer makes
// against the model's name tables, failing with a *ModelError if any
// reference dangles.
package ribose
