// Package errors provides structured, coded errors for democrat.
//
// Every fatal condition raised by the runtime maps to a registered code
// (e.g. "DEM001") with a category, a short message, a longer explanation and
// an optional hint. The CLI prints them with Format; tooling can consume
// FormatJSON.
//
// # Error Categories
//
//   - hook: hook order and hook-outside-render errors
//   - runtime: setter misuse and destroyed stores
//   - children: invalid children values
//   - context: missing providers
//   - patch: unresolvable or mismatched patches
//   - codec, config, cli: tooling errors
//
// # Usage
//
//	err := errors.New("DEM001").
//	    WithMessage("Hook order changed: expected State at index 1, got Memo").
//	    WithCaller(1)
//
//	fmt.Println(err.Format())
package errors
