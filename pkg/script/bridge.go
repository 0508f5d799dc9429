// Package script is the script-to-page bridge: it owns the embedded
// JavaScript runtime for one page load, exports the host's document
// capabilities into it, and carries events and mutations across the
// boundary. Node identities never cross directly; they travel as integer
// handles issued by the HandleTable.
package script

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"marlin/pkg/css"
	"marlin/pkg/html"
)

// Renderer re-derives layout and paint output from the current document
// tree. The bridge calls it exactly once per scripted mutation. A render
// pass must not re-fetch stylesheets or re-run script loading; those are
// one-time, load-time actions.
type Renderer interface {
	Render() error
}

// RenderFunc adapts a plain function to the Renderer interface.
type RenderFunc func() error

func (f RenderFunc) Render() error { return f() }

// Bridge owns exactly one embedded runtime per document for the duration of
// a page load. Global script state (top-level bindings, the listener
// registry) persists across every script loaded into the page, which is
// what lets one script define values another later reads. Navigation tears
// the Bridge down and everything in it, handles included.
//
// All methods must be called from the page's single thread of control; the
// embedded runtime has no preemption and is never entered reentrantly.
type Bridge struct {
	vm       *goja.Runtime
	doc      *html.Document
	handles  *HandleTable
	renderer Renderer
	log      *zap.Logger
	session  string

	bootstrapDone bool
	bootstrapErr  error
}

// New creates a Bridge for one page load. Host functions are exported
// immediately; the bootstrap program runs lazily before the first script or
// dispatch (or eagerly via RunBootstrap). renderer may be nil when the page
// has no rendering surface, e.g. in tests that only inspect the tree.
func New(doc *html.Document, renderer Renderer, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	session := uuid.NewString()
	b := &Bridge{
		vm:       goja.New(),
		doc:      doc,
		handles:  NewHandleTable(),
		renderer: renderer,
		log:      log.With(zap.String("page_session", session)),
		session:  session,
	}
	b.exportHostFunctions()
	registerConsole(b.vm, b.log)
	return b
}

// Session returns the page-load session id carried on every log line.
func (b *Bridge) Session() string { return b.session }

// Handles exposes the handle table, mainly for the host's own bookkeeping
// and for tests of the reference scheme.
func (b *Bridge) Handles() *HandleTable { return b.handles }

// exportHostFunctions installs the fixed-name host capabilities. This runs
// before the bootstrap, which in turn runs before any user script, so a
// script can never observe a partially wired global surface.
func (b *Bridge) exportHostFunctions() {
	b.vm.Set("__query", b.hostQuery)
	b.vm.Set("__getAttribute", b.hostGetAttribute)
	b.vm.Set("__setInnerHTML", b.hostSetInnerHTML)
}

// RunBootstrap loads the reflector-layer program. It runs at most once per
// Bridge; a failure poisons the instance and every later call returns the
// same BootstrapFault, because the runtime cannot be trusted half-defined.
func (b *Bridge) RunBootstrap() error {
	if b.bootstrapDone {
		return b.bootstrapErr
	}
	b.bootstrapDone = true
	if _, err := b.run(bootstrapName, bootstrapSource); err != nil {
		b.bootstrapErr = &BootstrapFault{Err: err}
		b.log.Error("bootstrap program failed",
			zap.String("script", bootstrapName),
			zap.Error(err))
	}
	return b.bootstrapErr
}

// LoadScript runs one script body to completion. Script-level faults are
// caught here, logged with the script identifier, and returned as a
// ScriptFault; they never propagate to the caller's control flow beyond
// the error value, and the page remains usable.
func (b *Bridge) LoadScript(name, source string) error {
	if err := b.RunBootstrap(); err != nil {
		return err
	}
	if _, err := b.run(name, source); err != nil {
		fault := &ScriptFault{Script: name, Err: err}
		b.log.Warn("user script failed", zap.String("script", name), zap.Error(err))
		return fault
	}
	b.log.Debug("script executed", zap.String("script", name))
	return nil
}

// LoadScripts runs the document's scripts in source order. Each script runs
// to completion before the next begins; a failing script does not stop the
// ones after it. The returned slice holds one fault per failing script,
// except that a BootstrapFault stops the whole load.
func (b *Bridge) LoadScripts() []error {
	var faults []error
	for i, src := range b.doc.Scripts {
		err := b.LoadScript(fmt.Sprintf("script-%d", i+1), src)
		if err == nil {
			continue
		}
		faults = append(faults, err)
		var boot *BootstrapFault
		if errors.As(err, &boot) {
			break
		}
	}
	return faults
}

// DispatchEvent runs every listener registered for (target, eventType) in
// registration order and reports whether the interaction was canceled, i.e.
// whether some listener called preventDefault. Dispatch is skipped entirely
// for targets with no element identity. A throwing listener aborts the
// dispatch; the fault is contained here and the verdict is "not canceled".
func (b *Bridge) DispatchEvent(eventType string, target *html.Node) (bool, error) {
	if target == nil || target.Type != html.ElementNode || target.TagName == "document" {
		return false, nil
	}
	if err := b.RunBootstrap(); err != nil {
		return false, err
	}

	dispatch, ok := goja.AssertFunction(b.vm.Get("__dispatch"))
	if !ok {
		fault := &BootstrapFault{Err: errors.New("__dispatch entry point missing")}
		b.log.Error("reflector layer incomplete", zap.Error(fault))
		return false, fault
	}

	handle := b.handles.GetOrCreate(target)
	result, err := b.call(dispatch, b.vm.ToValue(handle), b.vm.ToValue(eventType))
	if err != nil {
		fault := &ScriptFault{Script: "dispatch:" + eventType, Err: err}
		b.log.Warn("event listener failed",
			zap.String("event_type", eventType),
			zap.Int("handle", handle),
			zap.Error(err))
		return false, fault
	}
	return !result.ToBoolean(), nil
}

// hostQuery is the exported selector query: selector text in, handles out,
// in document preorder. An unparsable selector becomes a script-visible
// exception rather than a host failure.
func (b *Bridge) hostQuery(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(b.vm.NewTypeError("__query: 1 argument required"))
	}
	text := call.Arguments[0].String()

	sels, err := css.ParseSelectorList(text)
	if err != nil {
		b.throwBridgeFault("__query", err)
	}

	handles := make([]int, 0)
	for _, node := range html.Preorder(b.doc.Root) {
		if css.MatchesAny(node, sels) {
			handles = append(handles, b.handles.GetOrCreate(node))
		}
	}
	return b.vm.ToValue(handles)
}

// hostGetAttribute returns the attribute value for (handle, name), or null
// when the attribute is absent.
func (b *Bridge) hostGetAttribute(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 2 {
		panic(b.vm.NewTypeError("__getAttribute: 2 arguments required"))
	}
	node := b.resolveOrThrow("__getAttribute", call.Arguments[0])
	val, ok := node.GetAttribute(call.Arguments[1].String())
	if !ok {
		return goja.Null()
	}
	return b.vm.ToValue(val)
}

// hostSetInnerHTML re-parses the supplied HTML as a fragment, swaps it in
// as the target's children, and triggers exactly one render pass.
func (b *Bridge) hostSetInnerHTML(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 2 {
		panic(b.vm.NewTypeError("__setInnerHTML: 2 arguments required"))
	}
	node := b.resolveOrThrow("__setInnerHTML", call.Arguments[0])

	fragment, err := html.ParseFragment(call.Arguments[1].String())
	if err != nil {
		b.throwBridgeFault("__setInnerHTML", err)
	}
	node.ReplaceChildren(fragment)
	b.log.Debug("innerHTML replaced",
		zap.Int("handle", int(call.Arguments[0].ToInteger())),
		zap.Int("children", len(fragment)))

	if b.renderer != nil {
		if err := b.renderer.Render(); err != nil {
			b.throwBridgeFault("__setInnerHTML", fmt.Errorf("render: %w", err))
		}
	}
	return goja.Undefined()
}

// resolveOrThrow maps a handle argument back to its node. Failure here is a
// bridge defect (scripts cannot forge handles), so it is logged loudly
// before being thrown into the runtime.
func (b *Bridge) resolveOrThrow(op string, arg goja.Value) *html.Node {
	handle := int(arg.ToInteger())
	node, err := b.handles.Resolve(handle)
	if err != nil {
		fault := &BridgeFault{Op: op, Err: err}
		b.log.Error("handle resolution failed, this is a bridge defect",
			zap.String("op", op),
			zap.Int("handle", handle),
			zap.Error(err))
		panic(b.vm.NewGoError(fault))
	}
	return node
}

// throwBridgeFault converts a host-side failure into the embedded runtime's
// native exception mechanism so the calling script can catch it.
func (b *Bridge) throwBridgeFault(op string, err error) {
	fault := &BridgeFault{Op: op, Err: err}
	b.log.Warn("host call failed", zap.String("op", op), zap.Error(err))
	panic(b.vm.NewGoError(fault))
}

// run evaluates a program inside the crash boundary: a panic escaping the
// runtime (as opposed to a thrown JS exception, which goja reports as an
// error) is converted into an error instead of taking down the host.
func (b *Bridge) run(name, source string) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return b.vm.RunScript(name, source)
}

// call invokes a JS function inside the same crash boundary as run.
func (b *Bridge) call(fn goja.Callable, args ...goja.Value) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return fn(goja.Undefined(), args...)
}
