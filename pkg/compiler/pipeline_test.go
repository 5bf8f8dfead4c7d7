package compiler_test

import (
	"strings"
	"testing"

	"slc.dev/slc/pkg/compiler"
)

func run(t *testing.T, src string) (*compiler.Result, string, bool) {
	t.Helper()
	p := compiler.New("test.slc")
	var buf strings.Builder
	res, ok := p.Emit(&buf, []byte(src))
	return res, buf.String(), ok
}

func TestHelloWorldCompilesCleanly(t *testing.T) {
	res, out, ok := run(t, `
		fn main() {
			println("hello, world");
		}
	`)
	if !ok {
		t.Fatalf("expected clean compilation, got diagnostics: %v", res.Diags.Entries())
	}
	if !strings.Contains(out, `printf("%s\n", "hello, world")`) {
		t.Errorf("expected the generated C to contain a printf call, got:\n%s", out)
	}
	if res.Stats.FunctionsAnalyzed != 1 {
		t.Errorf("expected 1 function analyzed, got %d", res.Stats.FunctionsAnalyzed)
	}
}

func TestRecursionCompilesCleanly(t *testing.T) {
	_, out, ok := run(t, `
		fn fib(n: i32) -> i32 {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
	`)
	if !ok {
		t.Fatalf("expected clean compilation")
	}
	if !strings.Contains(out, "int32_t fib(int32_t n) {") {
		t.Errorf("expected fib's signature in the output, got:\n%s", out)
	}
}

func TestMutationAndWhileLoopCompilesCleanly(t *testing.T) {
	_, out, ok := run(t, `
		fn countdown(n: i32) {
			let mut i: i32 = n;
			while (i > 0) {
				i = i - 1;
			}
		}
	`)
	if !ok {
		t.Fatalf("expected clean compilation")
	}
	if !strings.Contains(out, "while (i > 0) {") {
		t.Errorf("expected a while loop in the output, got:\n%s", out)
	}
}

func TestStructImplMethodCompilesCleanly(t *testing.T) {
	res, out, ok := run(t, `
		struct Point { x: i32, y: i32 }
		impl Point {
			fn sum(self: Point) -> i32 {
				return self.x + self.y;
			}
		}
		fn main() -> i32 {
			let p: Point = Point { x: 1, y: 2 };
			return p.sum();
		}
	`)
	if !ok {
		t.Fatalf("expected clean compilation, got diagnostics: %v", res.Diags.Entries())
	}
	if res.Stats.StructsAnalyzed != 1 {
		t.Errorf("expected 1 struct analyzed, got %d", res.Stats.StructsAnalyzed)
	}
	if !strings.Contains(out, "Point_sum") {
		t.Errorf("expected the mangled method name in the output, got:\n%s", out)
	}
}

func TestForRangeCompilesCleanly(t *testing.T) {
	_, out, ok := run(t, `
		fn sumTo(n: i32) -> i32 {
			let mut total: i32 = 0;
			for i in 0..n {
				total = total + i;
			}
			return total;
		}
	`)
	if !ok {
		t.Fatalf("expected clean compilation")
	}
	if !strings.Contains(out, "for (int32_t i = 0; i < n; i++) {") {
		t.Errorf("expected a C for loop in the output, got:\n%s", out)
	}
}

func TestCastCompilesCleanly(t *testing.T) {
	_, out, ok := run(t, `
		fn toFloat(n: i32) -> f64 {
			return n as f64;
		}
	`)
	if !ok {
		t.Fatalf("expected clean compilation")
	}
	if !strings.Contains(out, "(double)n") {
		t.Errorf("expected a C cast in the output, got:\n%s", out)
	}
}

func TestTypeMismatchStopsBeforeCodegen(t *testing.T) {
	res, out, ok := run(t, `
		fn main() {
			let x: i32 = "not a number";
		}
	`)
	if ok {
		t.Fatalf("expected compilation to fail")
	}
	if !res.Diags.HasErrors() {
		t.Fatalf("expected diagnostics to report an error")
	}
	if out != "" {
		t.Errorf("expected no C emitted once diagnostics exist, got:\n%s", out)
	}
}

func TestUndefinedVariableStopsBeforeCodegen(t *testing.T) {
	res, _, ok := run(t, `
		fn main() {
			let y: i32 = x + 1;
		}
	`)
	if ok {
		t.Fatalf("expected compilation to fail")
	}
	if !res.Diags.HasErrors() {
		t.Fatalf("expected diagnostics to report an error")
	}
}

func TestImmutableAssignmentStopsBeforeCodegen(t *testing.T) {
	res, _, ok := run(t, `
		fn main() {
			let x: i32 = 1;
			x = 2;
		}
	`)
	if ok {
		t.Fatalf("expected compilation to fail")
	}
	if !res.Diags.HasErrors() {
		t.Fatalf("expected diagnostics to report an error")
	}
}

func TestBreakOutsideLoopStopsBeforeCodegen(t *testing.T) {
	res, _, ok := run(t, `
		fn main() {
			break;
		}
	`)
	if ok {
		t.Fatalf("expected compilation to fail")
	}
	if !res.Diags.HasErrors() {
		t.Fatalf("expected diagnostics to report an error")
	}
}

func TestLexErrorStopsBeforeParsing(t *testing.T) {
	res, out, ok := run(t, "fn main() { let x: i32 = `; }")
	if ok {
		t.Fatalf("expected compilation to fail on an invalid byte sequence")
	}
	if res.Program != nil {
		t.Errorf("expected parsing to be skipped once lexing failed")
	}
	if out != "" {
		t.Errorf("expected no output, got:\n%s", out)
	}
}
