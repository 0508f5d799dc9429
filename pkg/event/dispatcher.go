// Package event converts host-originated interaction (clicks, key input,
// form submission) into script-visible events and carries the cancelation
// verdict back: if any listener called preventDefault, the host-native
// default action is suppressed.
package event

import (
	"go.uber.org/zap"

	"marlin/pkg/html"
)

// Bridge is the slice of the scripting bridge the dispatcher needs: run the
// listeners for (target, type) and report whether the interaction was
// canceled.
type Bridge interface {
	DispatchEvent(eventType string, target *html.Node) (bool, error)
}

// Hooks are the host-native default actions. A nil hook means the host has
// no such behavior (headless runs, tests); the dispatch still happens so
// listeners observe the event.
type Hooks struct {
	// Navigate follows a hyperlink. Suppressed when a click is canceled.
	Navigate func(href string) error
	// Submit performs a form submission. Suppressed when canceled.
	Submit func(form *html.Node) error
}

// Dispatcher sits between the host's input handling and the bridge. One
// instance serves one page, on the page's single thread of control.
type Dispatcher struct {
	bridge Bridge
	hooks  Hooks
	log    *zap.Logger
}

func NewDispatcher(bridge Bridge, hooks Hooks, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{bridge: bridge, hooks: hooks, log: log}
}

// Click dispatches a "click" on the target. Unless canceled, the default
// action follows the nearest enclosing hyperlink, if any.
func (d *Dispatcher) Click(target *html.Node) error {
	if d.dispatch("click", target) {
		return nil
	}
	link := ancestorOrSelf(target, "a")
	if link == nil || d.hooks.Navigate == nil {
		return nil
	}
	href, ok := link.GetAttribute("href")
	if !ok {
		return nil
	}
	d.log.Debug("following link", zap.String("href", href))
	return d.hooks.Navigate(href)
}

// SubmitForm dispatches "submit" on the form and, unless canceled,
// performs the submission.
func (d *Dispatcher) SubmitForm(form *html.Node) error {
	if d.dispatch("submit", form) {
		return nil
	}
	if d.hooks.Submit == nil {
		return nil
	}
	return d.hooks.Submit(form)
}

// KeyDown handles one character of input. "keydown" models pre-mutation
// interception, so it fires before the value write and a canceled event
// leaves the value untouched. The ordering relative to the write is a
// contract, not an accident: listeners must observe the pre-keystroke
// value.
func (d *Dispatcher) KeyDown(input *html.Node, ch rune) {
	if d.dispatch("keydown", input) {
		return
	}
	val, _ := input.GetAttribute("value")
	input.SetAttribute("value", val+string(ch))
}

// CommitValue writes the input's new value and then dispatches "change".
// "change" reports a value-already-changed fact, so the write happens
// first and listeners observe the new value. The mutation itself is not
// subject to cancellation; by the time a listener could object it has
// already happened.
func (d *Dispatcher) CommitValue(input *html.Node, value string) {
	input.SetAttribute("value", value)
	d.dispatch("change", input)
}

// dispatch runs the bridge dispatch and reports the cancelation verdict.
// A faulting listener is already contained and logged at the bridge
// boundary; the interaction then proceeds as if uncanceled, so one broken
// page script cannot wedge input handling.
func (d *Dispatcher) dispatch(eventType string, target *html.Node) bool {
	canceled, err := d.bridge.DispatchEvent(eventType, target)
	if err != nil {
		d.log.Debug("dispatch fault contained",
			zap.String("event_type", eventType),
			zap.Error(err))
		return false
	}
	return canceled
}

// ancestorOrSelf walks up from node to the nearest element with the given
// tag, mirroring how a click on a span inside a link still follows it.
func ancestorOrSelf(node *html.Node, tag string) *html.Node {
	for cur := node; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && cur.TagName == tag {
			return cur
		}
	}
	return nil
}
