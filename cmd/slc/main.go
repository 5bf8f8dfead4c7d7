package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/compiler"
	"slc.dev/slc/pkg/render"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
slc compiles a single source file written in the language described by this
project's grammar into portable C99 source text, and optionally drives an
external C compiler to produce an executable.
`, "\n", " ")

var Slc = cli.New(Description).
	WithArg(cli.NewArg("input", "The source file to compile").WithType(cli.TypeString)).
	WithOption(cli.NewOption("dump-tokens", "Print the token stream and stop").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("dump-ast", "Print the parsed AST and stop").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("typecheck-only", "Run lexing, parsing and semantic analysis, then stop").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("stats", "Print functions/structs/variables analyzed after a successful run").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("o", "Write the generated C (or, with --emit-exe, the executable) to this path instead of stdout").WithType(cli.TypeString)).
	WithOption(cli.NewOption("emit-exe", "Invoke the C compiler to produce an executable").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("cc", "C compiler binary to invoke with --emit-exe (default cc)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("cc-flags", "Extra flags passed through to the C compiler invocation").WithType(cli.TypeString)).
	WithOption(cli.NewOption("link-glob", "Glob pattern for extra object files to link in with --emit-exe").WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}
	input := args[0]

	start := time.Now()
	src, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	p := compiler.New(input)

	if _, ok := options["dump-tokens"]; ok {
		res := p.Run(src)
		for _, tok := range res.Tokens {
			fmt.Println(tok)
		}
		return reportDiagnostics(res)
	}

	if _, ok := options["dump-ast"]; ok {
		res := p.Run(src)
		if res.Program != nil {
			dumpAST(os.Stdout, res.Program)
		}
		return reportDiagnostics(res)
	}

	if _, typecheckOnly := options["typecheck-only"]; typecheckOnly {
		res := p.Run(src)
		printStats(res.Stats)
		return reportDiagnostics(res)
	}

	var buf strings.Builder
	res, ok := p.Emit(&buf, src)
	if !ok {
		return reportDiagnostics(res)
	}

	if _, wantStats := options["stats"]; wantStats {
		printStats(res.Stats)
	}

	if _, emitExe := options["emit-exe"]; emitExe {
		return emitExecutable(buf.String(), options, input, start)
	}
	return emitC(buf.String(), options, len(src), start)
}

func reportDiagnostics(res *compiler.Result) int {
	if !res.Diags.HasErrors() {
		return 0
	}
	render.New(os.Stderr).Render(res.Diags)
	return -1
}

func printStats(stats compiler.Stats) {
	fmt.Printf("functions_analyzed: %s\n", humanize.Comma(int64(stats.FunctionsAnalyzed)))
	fmt.Printf("structs_analyzed: %s\n", humanize.Comma(int64(stats.StructsAnalyzed)))
	fmt.Printf("variables_analyzed: %s\n", humanize.Comma(int64(stats.VariablesAnalyzed)))
}

func emitC(generated string, options map[string]string, srcBytes int, start time.Time) int {
	if out, ok := options["o"]; ok {
		if err := os.WriteFile(out, []byte(generated), 0o644); err != nil {
			fmt.Printf("ERROR: Unable to write output file: %s\n", err)
			return -1
		}
	} else {
		fmt.Print(generated)
	}
	fmt.Fprintf(os.Stderr, "compiled %s -> %s C in %s\n",
		humanize.Bytes(uint64(srcBytes)), humanize.Bytes(uint64(len(generated))), time.Since(start))
	return 0
}

// emitExecutable writes the generated C to a uniquely-named temp file (so
// parallel invocations in the same directory never collide) and drives an
// external `cc`-style compiler over it, matching the interface contract:
// `cc -o <out> <temp>.c -lm <user-flags>`.
func emitExecutable(generated string, options map[string]string, input string, start time.Time) int {
	tempC := filepath.Join(os.TempDir(), "slc-"+uuid.NewString()+".c")
	if err := os.WriteFile(tempC, []byte(generated), 0o644); err != nil {
		fmt.Printf("ERROR: Unable to write temporary C file: %s\n", err)
		return -1
	}
	defer os.Remove(tempC)

	out := options["o"]
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	ccBin := options["cc"]
	if ccBin == "" {
		ccBin = "cc"
	}

	ccArgs := []string{"-o", out, tempC, "-lm"}
	if extra := options["cc-flags"]; extra != "" {
		ccArgs = append(ccArgs, strings.Fields(extra)...)
	}
	if pattern, ok := options["link-glob"]; ok {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			fmt.Printf("ERROR: Invalid --link-glob pattern: %s\n", err)
			return -1
		}
		ccArgs = append(ccArgs, matches...)
	}

	cmd := exec.Command(ccBin, ccArgs...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("ERROR: C compiler invocation failed: %s\n", err)
		return -2
	}

	fmt.Fprintf(os.Stderr, "built %s in %s\n", out, time.Since(start))
	return 0
}

// dumpAST prints a crude but complete textual rendering of the program, one
// top-level item per line — no tree library is worth pulling in for what is,
// in the end, a debugging aid.
func dumpAST(w *os.File, prog *ast.Program) {
	for _, item := range prog.Items {
		fmt.Fprintf(w, "%#v\n", item)
	}
}

func main() {
	_ = godotenv.Load(".slcenv")
	os.Exit(Slc.Run(os.Args, os.Stdout))
}
