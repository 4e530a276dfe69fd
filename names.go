// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

// defaultActionName is used when no name was given and none can be derived
// from the handler.
const defaultActionName = "action"

// Named returns a copy of the client whose actions are reported under name
// in logs, traces and server error info.
//
// Without a name, actions are named after their handler function.
//
// Example:
//
//	createUser := safeaction.Action(
//	    authClient.Named("createUser"),
//	    func(ctx context.Context, args safeaction.HandlerArgs[Meta, CreateUser]) (User, error) {
//	        // ...
//	    },
//	)
func (c *Client[M, In]) Named(name string) *Client[M, In] {
	next := c.clone()
	next.name = name
	return next
}

// handlerName derives an action name from a handler function value.
//
// Named functions and methods yield their short name. Closures, which the
// runtime names "func1", "func2" and so on, yield "".
func handlerName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := extractFunctionName(f.Name())
	if isAnonymousName(name) {
		return ""
	}
	return name
}

// extractFunctionName extracts the simple function name from a full Go function path.
//
// Examples:
//   - "github.com/acme/app/actions.CreateUser" -> "CreateUser"
//   - "main.(*Server).HandleRequest-fm" -> "HandleRequest"
//   - "github.com/acme/app.init.0" -> "0"
func extractFunctionName(fullName string) string {
	parts := strings.Split(fullName, "/")
	lastPart := parts[len(parts)-1]

	// method values carry a "-fm" suffix, generic functions a "[...]" one
	lastPart = strings.TrimSuffix(lastPart, "-fm")
	lastPart = strings.TrimSuffix(lastPart, "[...]")

	if idx := strings.LastIndex(lastPart, "."); idx != -1 {
		lastPart = lastPart[idx+1:]
	}
	return lastPart
}

func isAnonymousName(name string) bool {
	if name == "" {
		return true
	}
	if rest, ok := strings.CutPrefix(name, "func"); ok {
		if _, err := strconv.Atoi(rest); err == nil {
			return true
		}
	}
	_, err := strconv.Atoi(name)
	return err == nil
}

// resolveName picks the configured name, then the handler's name, then the
// default.
func resolveName(configured string, handler any) string {
	if configured != "" {
		return configured
	}
	if name := handlerName(handler); name != "" {
		return name
	}
	return defaultActionName
}
