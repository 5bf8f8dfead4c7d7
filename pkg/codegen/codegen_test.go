package codegen_test

import (
	"strings"
	"testing"

	"slc.dev/slc/pkg/codegen"
	"slc.dev/slc/pkg/diag"
	"slc.dev/slc/pkg/lexer"
	"slc.dev/slc/pkg/parser"
	"slc.dev/slc/pkg/sema"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	diags := diag.New("test.slc", []byte(src))
	tokens := lexer.New([]byte(src)).Tokenize()
	prog := parser.Parse(tokens, diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Entries())
	}
	sema.Analyze(prog, diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected semantic errors: %v", diags.Entries())
	}

	var buf strings.Builder
	if err := codegen.Generate(&buf, prog, diags); err != nil {
		t.Fatalf("unexpected codegen error: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen diagnostics: %v", diags.Entries())
	}
	return buf.String()
}

func TestPrologueIncludesStandardHeaders(t *testing.T) {
	out := generate(t, `fn main() {}`)
	for _, h := range []string{"stdio.h", "stdlib.h", "stdint.h", "stdbool.h", "math.h"} {
		if !strings.Contains(out, "#include <"+h+">") {
			t.Errorf("expected prologue to include %s, got:\n%s", h, out)
		}
	}
}

func TestHelloWorldLowersToPrintf(t *testing.T) {
	out := generate(t, `
		fn main() {
			println("hello");
		}
	`)
	if !strings.Contains(out, `printf("%s\n", "hello")`) {
		t.Errorf("expected a printf call with a trailing newline, got:\n%s", out)
	}
}

func TestRecursiveFunctionLowersCleanly(t *testing.T) {
	out := generate(t, `
		fn fib(n: i32) -> i32 {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
	`)
	if !strings.Contains(out, "int32_t fib(int32_t n) {") {
		t.Errorf("expected a fib signature, got:\n%s", out)
	}
	if !strings.Contains(out, "fib(n - 1) + fib(n - 2)") {
		t.Errorf("expected the recursive call expression, got:\n%s", out)
	}
}

func TestStructTypedefAndMethodMangling(t *testing.T) {
	out := generate(t, `
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
	if !strings.Contains(out, "typedef struct {") || !strings.Contains(out, "} Point;") {
		t.Errorf("expected a Point typedef, got:\n%s", out)
	}
	if !strings.Contains(out, "int32_t Point_sum(Point self) {") {
		t.Errorf("expected a mangled Point_sum signature, got:\n%s", out)
	}
	if !strings.Contains(out, "Point_sum(p)") {
		t.Errorf("expected the call site to invoke Point_sum, got:\n%s", out)
	}
	if !strings.Contains(out, "(Point){.x = 1, .y = 2}") {
		t.Errorf("expected a Point compound literal, got:\n%s", out)
	}
}

func TestForRangeLowersToCFor(t *testing.T) {
	out := generate(t, `
		fn sumTo(n: i32) -> i32 {
			let mut total: i32 = 0;
			for i in 0..n {
				total = total + i;
			}
			return total;
		}
	`)
	if !strings.Contains(out, "for (int32_t i = 0; i < n; i++) {") {
		t.Errorf("expected a C for loop, got:\n%s", out)
	}
}

func TestLoopLowersToWhileTrue(t *testing.T) {
	out := generate(t, `
		fn main() {
			let mut i: i32 = 0;
			loop {
				i = i + 1;
				if (i == 5) {
					break;
				}
			}
		}
	`)
	if !strings.Contains(out, "while (1) {") {
		t.Errorf("expected 'loop' to lower to while (1), got:\n%s", out)
	}
}

func TestImmutableLetLowersToConst(t *testing.T) {
	out := generate(t, `
		fn main() {
			let x: i32 = 1;
		}
	`)
	if !strings.Contains(out, "const int32_t x = 1;") {
		t.Errorf("expected an immutable let to lower to a const declaration, got:\n%s", out)
	}
}

func TestCastLowersToCCast(t *testing.T) {
	out := generate(t, `
		fn toFloat(n: i32) -> f64 {
			return n as f64;
		}
	`)
	if !strings.Contains(out, "return (double)n;") {
		t.Errorf("expected a C cast to double, got:\n%s", out)
	}
}

func TestExternFunctionIsNotEmitted(t *testing.T) {
	out := generate(t, `
		extern fn abs(n: i32) -> i32;
		fn main() -> i32 {
			return abs(-1);
		}
	`)
	if strings.Contains(out, "int32_t abs(") {
		t.Errorf("expected no definition emitted for an extern function, got:\n%s", out)
	}
	if !strings.Contains(out, "abs(- 1)") {
		t.Errorf("expected the call to abs to still be lowered, got:\n%s", out)
	}
}

func TestArrayDeclarationAndLiteral(t *testing.T) {
	out := generate(t, `
		fn main() {
			let mut xs: [i32; 3] = [1, 2, 3];
		}
	`)
	if !strings.Contains(out, "int32_t xs[3] = (int32_t[3]){1, 2, 3};") {
		t.Errorf("expected an array declaration with a compound literal, got:\n%s", out)
	}
}

func TestImplicitReturnFromTrailingExpression(t *testing.T) {
	out := generate(t, `
		struct Point { x: i32, y: i32 }
		fn make() -> Point {
			Point { x: 1, y: 2 }
		}
	`)
	if !strings.Contains(out, "return (Point){.x = 1, .y = 2};") {
		t.Errorf("expected the trailing expression to lower to a return, got:\n%s", out)
	}
}

func TestSqrtLowersToCSqrt(t *testing.T) {
	out := generate(t, `
		fn root(x: f32) -> f32 {
			return sqrt(x);
		}
	`)
	if !strings.Contains(out, "return sqrt(x);") {
		t.Errorf("expected sqrt to lower directly to C's sqrt, got:\n%s", out)
	}
}
