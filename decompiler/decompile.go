package decompiler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/qvmtool/pkg/ast"
	"github.com/chazu/qvmtool/pkg/bytecode"
)

var log = commonlog.GetLogger("qvmtool.decompiler")

// Options configures a Decompiler.
type Options struct {
	Limits
	Workers int // functions decompiled in parallel; 0 means GOMAXPROCS
}

// Function is the decompiled body of one entry point.
type Function struct {
	Symbol bytecode.Symbol
	Exit   bytecode.Instruction // terminator that ended the body
	Body   []ast.Node
	Err    error // set by DecompileAll when the body could not be reconstructed
}

// Decompiler turns function bodies into statement sequences. It holds no
// per-function state and may be shared between goroutines.
type Decompiler struct {
	opts Options
}

// New creates a Decompiler.
func New(opts Options) *Decompiler {
	return &Decompiler{opts: opts}
}

// Decompile reconstructs the body of the function starting at sym.Address.
// On error no partial body is returned.
func (d *Decompiler) Decompile(code Code, sym bytecode.Symbol) (*Function, error) {
	block, err := newWalker(code, d.opts.Limits).walk(sym.Address, NoStop, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sym.Name, err)
	}
	log.Debugf("decompiled %s at %04X: %d statements, exit %s at %04X",
		sym.Name, sym.Address, len(block.Statements), block.Exit.Opcode, block.Exit.Address)
	return &Function{
		Symbol: sym,
		Exit:   block.Exit,
		Body:   block.Statements,
	}, nil
}

// DecompileAll decompiles every symbol, running up to Workers functions at
// once over the shared read-only code. Results are returned in symbol order;
// a function that fails carries its error in Err and does not stop the
// others. Functions not yet started when ctx is cancelled fail with
// ctx.Err().
func (d *Decompiler) DecompileAll(ctx context.Context, code Code, syms []bytecode.Symbol) []*Function {
	results := make([]*Function, len(syms))

	var g errgroup.Group
	g.SetLimit(d.workers())
	for i, sym := range syms {
		i, sym := i, sym
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = &Function{Symbol: sym, Err: err}
				return nil
			}
			fn, err := d.Decompile(code, sym)
			if err != nil {
				log.Warningf("%v", err)
				fn = &Function{Symbol: sym, Err: err}
			}
			results[i] = fn
			return nil
		})
	}
	// The group only bounds concurrency; failures travel in Function.Err.
	_ = g.Wait()

	return results
}

func (d *Decompiler) workers() int {
	if d.opts.Workers > 0 {
		return d.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}
