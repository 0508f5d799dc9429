package script

import "fmt"

// The bridge distinguishes three failure domains. Script faults are routine
// and survivable; bridge and bootstrap faults indicate defects in the
// bridge itself and are surfaced loudly, but none of them may crash the
// host process.

// ScriptFault is an exception raised by user script logic: a syntax error,
// a runtime type error, or an explicit throw, during top-level evaluation
// or inside an event listener. The page continues after one.
type ScriptFault struct {
	Script string // identifier of the failing script, or "dispatch:<type>"
	Err    error
}

func (f *ScriptFault) Error() string {
	return fmt.Sprintf("script %q: %v", f.Script, f.Err)
}

func (f *ScriptFault) Unwrap() error { return f.Err }

// BridgeFault is a failure inside a host-exported function invoked from
// script, such as a malformed selector. It is translated into a
// script-visible exception so the script can catch it; uncaught, it
// degenerates into a ScriptFault.
type BridgeFault struct {
	Op  string // the exported function that failed
	Err error
}

func (f *BridgeFault) Error() string {
	return fmt.Sprintf("bridge %s: %v", f.Op, f.Err)
}

func (f *BridgeFault) Unwrap() error { return f.Err }

// BootstrapFault is a failure while loading the bootstrap program. It is
// fatal to the Bridge instance: every later operation fails with it until
// the whole embedded runtime is rebuilt.
type BootstrapFault struct {
	Err error
}

func (f *BootstrapFault) Error() string {
	return fmt.Sprintf("bootstrap: %v", f.Err)
}

func (f *BootstrapFault) Unwrap() error { return f.Err }
