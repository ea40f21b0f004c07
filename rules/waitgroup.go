//go:build ruleguard

// Package gorules contains custom linting rules for golangci-lint via ruleguard.
// These rules detect patterns that can be modernized for Go 1.25+.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupModernize detects the manual Add/Done pattern that the Go 1.25
// wg.Go() method replaces.
//
// Old pattern:
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    doSomething()
//	}()
//
// New pattern (Go 1.25+):
//
//	wg.Go(func() {
//	    doSomething()
//	})
func WaitGroupModernize(m dsl.Matcher) {
	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("Use $wg.Go(func() { ... }) instead of go func() { defer $wg.Done(); ... }() (Go 1.25+)").
		Suggest("$wg.Go(func() { $*_ })")

	m.Match(`go func() { $*_; $wg.Done() }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("Use $wg.Go(func() { ... }) instead of manual Done() call (Go 1.25+)")

	m.Match(`$wg.Add(1)`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("Consider using $wg.Go() which calls Add(1) automatically (Go 1.25+)")
}
