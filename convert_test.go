package fpdb

import (
	"errors"
	"math"
	"testing"
)

// mysqlConv is the converter used by the MySQL dialect defaults.
var mysqlConv = converter{dialect: MySQL, esc: BackslashEscaper}

type convCase struct {
	name string
	kind Kind
	in   Value
	want string // ignored when err is set
	err  bool
}

func runConvCases(t *testing.T, c converter, cases []convCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.convert(tc.kind, tc.in)
			if tc.err {
				if !errors.Is(err, ErrConversion) {
					t.Fatalf("convert(%s, %s): expected ErrConversion, got %q, %v", tc.kind, describe(tc.in), got, err)
				}
				return
			}
			assertNoError(t, err)
			if got != tc.want {
				t.Fatalf("convert(%s, %s)=%q, want %q", tc.kind, describe(tc.in), got, tc.want)
			}
		})
	}
}

// TestConvert_Null covers nullability per kind.
func TestConvert_Null(t *testing.T) {
	runConvCases(t, mysqlConv, []convCase{
		{"auto", KindAuto, Null{}, "NULL", false},
		{"int", KindInt, Null{}, "NULL", false},
		{"float", KindFloat, Null{}, "NULL", false},
		{"array", KindArray, Null{}, "", true},
		{"ident", KindIdent, Null{}, "", true},
	})
}

// TestConvert_Int covers ?d.
func TestConvert_Int(t *testing.T) {
	runConvCases(t, mysqlConv, []convCase{
		{"true", KindInt, Bool(true), "1", false},
		{"false", KindInt, Bool(false), "0", false},
		{"int", KindInt, Int(-42), "-42", false},
		{"float truncated", KindInt, Float(12.7), "12", false},
		{"negative float toward zero", KindInt, Float(-12.7), "-12", false},
		{"numeric string", KindInt, Str("15"), "15", false},
		{"padded string", KindInt, Str(" 42 "), "42", false},
		{"fraction string", KindInt, Str("3.99"), "3", false},
		{"exponent string", KindInt, Str("1e3"), "1000", false},
		{"signed string", KindInt, Str("+7"), "7", false},
		{"word", KindInt, Str("abc"), "", true},
		{"trailing garbage", KindInt, Str("12abc"), "", true},
		{"hex", KindInt, Str("0x1A"), "", true},
		{"empty", KindInt, Str(""), "", true},
		{"nan", KindInt, Float(math.NaN()), "", true},
		{"huge", KindInt, Float(1e300), "", true},
		{"huge string", KindInt, Str("99999999999999999999"), "", true},
		{"list", KindInt, List{Int(1)}, "", true},
	})
}

// TestConvert_Float covers ?f.
func TestConvert_Float(t *testing.T) {
	runConvCases(t, mysqlConv, []convCase{
		{"true", KindFloat, Bool(true), "1", false},
		{"int", KindFloat, Int(5), "5", false},
		{"int above 2^53 exact", KindFloat, Int(1<<53 + 1), "9007199254740993", false},
		{"float", KindFloat, Float(3.14), "3.14", false},
		{"small", KindFloat, Float(0.000001), "0.000001", false},
		{"negative", KindFloat, Float(-2.5), "-2.5", false},
		{"string", KindFloat, Str("2.50"), "2.5", false},
		{"exponent string", KindFloat, Str("1.5e2"), "150", false},
		{"leading dot", KindFloat, Str(".5"), "0.5", false},
		{"inf", KindFloat, Float(math.Inf(1)), "", true},
		{"nan string", KindFloat, Str("NaN"), "", true},
		{"inf string", KindFloat, Str("Inf"), "", true},
		{"overflow string", KindFloat, Str("1e400"), "", true},
		{"word", KindFloat, Str("pi"), "", true},
		{"map", KindFloat, Map{{"a", Int(1)}}, "", true},
	})
}

// TestConvert_Array covers ?a in list and map form.
func TestConvert_Array(t *testing.T) {
	runConvCases(t, mysqlConv, []convCase{
		{"list ints", KindArray, List{Int(1), Int(2), Int(3)}, "1, 2, 3", false},
		{"list mixed", KindArray, List{Str("a"), Float(1.5), Null{}}, "'a', 1.5, NULL", false},
		{"map", KindArray, Map{{"a", Int(1)}, {"b", Int(2)}}, "`a` = 1, `b` = 2", false},
		{"map strings", KindArray, Map{{"name", Str("O'Hara")}}, "`name` = 'O\\'Hara'", false},
		{"map order kept", KindArray, Map{{"z", Int(1)}, {"a", Int(2)}}, "`z` = 1, `a` = 2", false},
		{"empty list", KindArray, List{}, "", false},
		{"empty map", KindArray, Map{}, "", false},
		{"scalar", KindArray, Int(1), "", true},
		{"string", KindArray, Str("1,2"), "", true},
		{"nested list", KindArray, List{List{Int(1)}}, "", true},
		{"bool element", KindArray, List{Bool(true)}, "", true},
		{"bool map value", KindArray, Map{{"a", Bool(false)}}, "", true},
	})
}

// TestConvert_Ident covers ?# with scalars and collections.
func TestConvert_Ident(t *testing.T) {
	runConvCases(t, mysqlConv, []convCase{
		{"string", KindIdent, Str("users"), "`users`", false},
		{"int", KindIdent, Int(1), "`1`", false},
		{"list", KindIdent, List{Str("a"), Str("b")}, "`a`, `b`", false},
		{"map values", KindIdent, Map{{"x", Str("a")}, {"y", Str("b")}}, "`a`, `b`", false},
		{"backtick doubled", KindIdent, Str("a`b"), "`a``b`", false},
		{"empty list", KindIdent, List{}, "", false},
		{"empty map", KindIdent, Map{}, "", false},
		{"bool", KindIdent, Bool(true), "", true},
		{"null element", KindIdent, List{Str("a"), Null{}}, "", true},
		{"nested", KindIdent, List{List{Str("a")}}, "", true},
	})
}

// TestConvert_Auto covers ? and the element rules of ?a.
func TestConvert_Auto(t *testing.T) {
	runConvCases(t, mysqlConv, []convCase{
		{"int", KindAuto, Int(7), "7", false},
		{"float", KindAuto, Float(7.25), "7.25", false},
		{"whole float", KindAuto, Float(7), "7", false},
		{"string", KindAuto, Str("Jack"), "'Jack'", false},
		{"numeric string stays string", KindAuto, Str("7"), "'7'", false},
		{"escaped string", KindAuto, Str("a\nb"), `'a\nb'`, false},
		{"bool", KindAuto, Bool(true), "", true},
		{"list", KindAuto, List{Int(1)}, "", true},
		{"map", KindAuto, Map{{"a", Int(1)}}, "", true},
	})
}

// TestConvert_Deterministic checks that a (kind, value) pair always yields the
// same text.
func TestConvert_Deterministic(t *testing.T) {
	v := Map{{"a", Str("x")}, {"b", Int(3)}, {"c", Float(0.1)}}
	first, err := mysqlConv.convert(KindArray, v)
	assertNoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := mysqlConv.convert(KindArray, v)
		assertNoError(t, err)
		if got != first {
			t.Fatalf("run %d: %q != %q", i, got, first)
		}
	}
}

// TestDescribe_TruncatesLongStrings keeps error messages short.
func TestDescribe_TruncatesLongStrings(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	got := describe(Str(long))
	if len(got) > 50 {
		t.Fatalf("describe did not truncate: %q", got)
	}
	if describe(Skip()) != "skip" {
		t.Fatalf("describe(Skip())=%q", describe(Skip()))
	}
}
