//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// BenchmarkLoop detects the old benchmark iteration pattern and suggests b.Loop().
//
// Old pattern:
//
//	for i := 0; i < b.N; i++ { ... }
//
// New pattern (Go 1.24+):
//
//	for b.Loop() { ... }
//
// b.Loop() keeps setup outside the measured region and prevents the compiler
// from optimizing the body away.
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(
		`for $i := 0; $i < $b.N; $i++ { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for $i := 0; $i < $b.N; $i++ (Go 1.24+)")

	m.Match(
		`for range $b.N { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N (Go 1.24+)").
		Suggest("for $b.Loop() { $body }")
}

// TestingContext suggests t.Context() over context.Background() in tests.
// The test context is canceled when the test ends, so goroutines blocked on
// it cannot outlive the test.
func TestingContext(m dsl.Matcher) {
	m.Match(
		`context.Background()`,
	).
		Where(m.File().Name.Matches(`.*_test\.go$`)).
		Report("consider t.Context() instead of context.Background() in tests (Go 1.24+)")

	m.Match(
		`context.TODO()`,
	).
		Where(m.File().Name.Matches(`.*_test\.go$`)).
		Report("consider t.Context() instead of context.TODO() in tests (Go 1.24+)")
}
