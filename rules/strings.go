//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StringsCutPrefix detects the HasPrefix-then-TrimPrefix dance that
// strings.CutPrefix replaces.
//
// Old pattern:
//
//	if strings.HasPrefix(s, prefix) {
//	    rest := strings.TrimPrefix(s, prefix)
//	    ...
//	}
//
// New pattern (Go 1.20+):
//
//	if rest, ok := strings.CutPrefix(s, prefix); ok {
//	    ...
//	}
func StringsCutPrefix(m dsl.Matcher) {
	m.Match(
		`if strings.HasPrefix($s, $prefix) { $x := strings.TrimPrefix($s, $prefix); $*_ }`,
		`if strings.HasPrefix($s, $prefix) { $x = strings.TrimPrefix($s, $prefix); $*_ }`,
	).
		Report("use strings.CutPrefix($s, $prefix) instead of HasPrefix followed by TrimPrefix (Go 1.20+)")

	m.Match(
		`if strings.HasSuffix($s, $suffix) { $x := strings.TrimSuffix($s, $suffix); $*_ }`,
		`if strings.HasSuffix($s, $suffix) { $x = strings.TrimSuffix($s, $suffix); $*_ }`,
	).
		Report("use strings.CutSuffix($s, $suffix) instead of HasSuffix followed by TrimSuffix (Go 1.20+)")
}

// StringsCut detects Index-based splitting that strings.Cut expresses directly.
//
// Old pattern:
//
//	i := strings.Index(s, sep)
//	if i >= 0 {
//	    before, after := s[:i], s[i+len(sep):]
//	}
//
// New pattern (Go 1.18+):
//
//	before, after, found := strings.Cut(s, sep)
func StringsCut(m dsl.Matcher) {
	m.Match(
		`strings.SplitN($s, $sep, 2)`,
	).
		Report("consider strings.Cut($s, $sep) instead of SplitN with limit 2; Cut avoids the slice allocation")
}

// StringsSplitIteration detects strings.Split results that are only ranged
// over and suggests the allocation-free iterator form.
//
// New pattern (Go 1.24+):
//
//	for part := range strings.SplitSeq(s, sep) {
//	    process(part)
//	}
func StringsSplitIteration(m dsl.Matcher) {
	m.Match(
		`for $_, $part := range strings.Split($s, $sep) { $*body }`,
	).
		Report("use for $part := range strings.SplitSeq($s, $sep) to avoid allocating the intermediate slice (Go 1.24+)")

	m.Match(
		`for $_, $line := range strings.Split($s, "\n") { $*body }`,
	).
		Report(`use for $line := range strings.Lines($s) instead of splitting on "\n"; Lines handles \r\n too (Go 1.24+)`)
}
