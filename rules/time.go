//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TimeFormatConstants detects magic date/time layout strings that have named
// constants since Go 1.20.
//
// Old pattern:
//
//	t.Format("2006-01-02 15:04:05")
//
// New pattern (Go 1.20+):
//
//	t.Format(time.DateTime)
func TimeFormatConstants(m dsl.Matcher) {
	m.Match(
		`$t.Format("2006-01-02 15:04:05")`,
	).
		Report(`use $t.Format(time.DateTime) instead of the magic layout string (Go 1.20+)`).
		Suggest(`$t.Format(time.DateTime)`)

	m.Match(
		`$t.Format("2006-01-02")`,
	).
		Report(`use $t.Format(time.DateOnly) instead of the magic layout string (Go 1.20+)`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(
		`time.Parse("2006-01-02", $s)`,
	).
		Report(`use time.Parse(time.DateOnly, $s) instead of the magic layout string (Go 1.20+)`).
		Suggest(`time.Parse(time.DateOnly, $s)`)
}

// TimeSince detects Now().Sub and Now().Add(-d) spellings of the dedicated
// helpers.
func TimeSince(m dsl.Matcher) {
	m.Match(
		`time.Now().Sub($x)`,
	).
		Report("use time.Since($x) instead of time.Now().Sub($x)").
		Suggest("time.Since($x)")

	m.Match(
		`$x.Sub(time.Now())`,
	).
		Report("use time.Until($x) instead of $x.Sub(time.Now())").
		Suggest("time.Until($x)")
}
