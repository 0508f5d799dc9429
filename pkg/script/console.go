package script

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// consoleAPI routes console.log/warn/error from scripts into the bridge's
// logger, so script output carries the page session id like everything
// else.
type consoleAPI struct {
	log *zap.Logger
}

func registerConsole(vm *goja.Runtime, log *zap.Logger) {
	c := &consoleAPI{log: log.Named("console")}
	console := vm.NewObject()
	console.Set("log", c.logFn)
	console.Set("warn", c.warnFn)
	console.Set("error", c.errorFn)
	vm.Set("console", console)
}

func (c *consoleAPI) logFn(call goja.FunctionCall) goja.Value {
	c.log.Info(formatArgs(call.Arguments))
	return goja.Undefined()
}

func (c *consoleAPI) warnFn(call goja.FunctionCall) goja.Value {
	c.log.Warn(formatArgs(call.Arguments))
	return goja.Undefined()
}

func (c *consoleAPI) errorFn(call goja.FunctionCall) goja.Value {
	c.log.Error(formatArgs(call.Arguments))
	return goja.Undefined()
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
