// qvmtool - disassembler and decompiler for QVM script containers
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/tliron/commonlog"

	"github.com/chazu/qvmtool/decompiler"
	"github.com/chazu/qvmtool/manifest"
	"github.com/chazu/qvmtool/pkg/ast"
	"github.com/chazu/qvmtool/pkg/bytecode"
	"github.com/chazu/qvmtool/report"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("qvmtool")

// options holds the settings after merging qvmtool.toml and flags.
type options struct {
	disasm   bool
	function string
	format   string
	summary  bool
	dec      decompiler.Options
	extra    []bytecode.Symbol
}

func main() {
	disasm := flag.Bool("d", false, "Disassemble instead of decompiling")
	function := flag.String("f", "", "Decompile only the named function")
	format := flag.String("format", "", "Output format: tree, cbor, spew (default from qvmtool.toml, else tree)")
	outPath := flag.String("o", "", "Write output to file instead of stdout")
	maxDepth := flag.Int("max-depth", 0, "Maximum nesting of bodies and call arguments")
	maxSteps := flag.Int("max-steps", 0, "Maximum instructions visited per function (-1 for no limit)")
	workers := flag.Int("j", 0, "Functions decompiled in parallel (default GOMAXPROCS)")
	verbosity := flag.Int("v", 0, "Log verbosity (1 = info, 2 = debug)")
	logPath := flag.String("log", "", "Write log to file instead of stderr")
	summary := flag.Bool("summary", false, "Print a table of per-function results to stderr")
	configDir := flag.String("config", ".", "Directory to search upward for qvmtool.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qvmtool [options] file.qvmc...\n\n")
		fmt.Fprintf(os.Stderr, "Reconstructs structured source trees from compiled QVM scripts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  qvmtool level1.qvmc                 # Decompile every function\n")
		fmt.Fprintf(os.Stderr, "  qvmtool -d level1.qvmc              # Disassemble\n")
		fmt.Fprintf(os.Stderr, "  qvmtool -f onDeath level1.qvmc      # One function\n")
		fmt.Fprintf(os.Stderr, "  qvmtool -format cbor -o out.cbor *.qvmc  # Machine-readable report\n")
	}
	flag.Parse()

	if *logPath != "" {
		commonlog.Configure(*verbosity, logPath)
	} else {
		commonlog.Configure(*verbosity, nil)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = manifest.Default()
	} else {
		log.Infof("using %s", filepath.Join(m.Dir, manifest.FileName))
	}

	opts := options{
		disasm:   *disasm,
		function: *function,
		format:   m.Output.Format,
		summary:  m.Output.Summary,
		dec:      m.Options(),
		extra:    m.Symbols(),
	}
	// Flags given explicitly override the manifest.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			opts.format = *format
		case "summary":
			opts.summary = *summary
		case "max-depth":
			opts.dec.MaxDepth = *maxDepth
		case "max-steps":
			opts.dec.MaxSteps = *maxSteps
		case "j":
			opts.dec.Workers = *workers
		}
	})
	switch opts.format {
	case manifest.FormatTree, manifest.FormatCBOR, manifest.FormatSpew:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", opts.format)
		os.Exit(2)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := false
	for _, path := range paths {
		n, err := processFile(ctx, path, opts, out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed = true
			continue
		}
		if n > 0 {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// processFile handles one container and returns the number of functions
// that could not be decompiled.
func processFile(ctx context.Context, path string, opts options, out io.Writer) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	prog, err := bytecode.Deserialize(data)
	if err != nil {
		return 0, err
	}

	if opts.disasm {
		listing, err := prog.DisassembleWithName(filepath.Base(path))
		if err != nil {
			return 0, err
		}
		_, err = io.WriteString(out, listing)
		return 0, err
	}

	stream, err := prog.Decode()
	if err != nil {
		return 0, err
	}
	syms, err := selectSymbols(prog.Functions, opts.extra, opts.function)
	if err != nil {
		return 0, err
	}
	log.Infof("%s: %d instructions, %d functions", path, stream.Len(), len(syms))

	fns := decompiler.New(opts.dec).DecompileAll(ctx, stream, syms)
	rep := report.New(path, fns)

	switch opts.format {
	case manifest.FormatCBOR:
		b, err := report.Marshal(rep)
		if err != nil {
			return 0, err
		}
		if _, err := out.Write(b); err != nil {
			return 0, err
		}
	case manifest.FormatSpew:
		spewConfig.Fdump(out, fns)
	default:
		if err := writeTree(out, fns); err != nil {
			return 0, err
		}
	}

	if opts.summary {
		printSummary(os.Stderr, path, rep, fns)
	}
	return rep.Failures(), nil
}

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// selectSymbols merges the container's entry points with those declared in
// qvmtool.toml. A container without any is decompiled from address 0.
func selectSymbols(declared, extra []bytecode.Symbol, only string) ([]bytecode.Symbol, error) {
	syms := append([]bytecode.Symbol(nil), declared...)
	seen := make(map[string]bool, len(syms))
	for _, s := range syms {
		seen[s.Name] = true
	}
	for _, s := range extra {
		if !seen[s.Name] {
			syms = append(syms, s)
			seen[s.Name] = true
		}
	}
	if len(syms) == 0 {
		syms = []bytecode.Symbol{{Name: "main", Address: 0}}
	}

	if only == "" {
		return syms, nil
	}
	for _, s := range syms {
		if s.Name == only {
			return []bytecode.Symbol{s}, nil
		}
	}
	return nil, fmt.Errorf("no function named %q", only)
}

func writeTree(w io.Writer, fns []*decompiler.Function) error {
	for i, fn := range fns {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if fn.Err != nil {
			if _, err := fmt.Fprintf(w, "; %s @ %04X: %v\n", fn.Symbol.Name, fn.Symbol.Address, fn.Err); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "; %s @ %04X\n%s", fn.Symbol.Name, fn.Symbol.Address, ast.Dump(fn.Body)); err != nil {
			return err
		}
	}
	return nil
}
