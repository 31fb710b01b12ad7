package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chazu/qvmtool/decompiler"
	"github.com/chazu/qvmtool/pkg/ast"
	"github.com/chazu/qvmtool/report"
)

// printSummary renders one row per function plus any groups of functions
// whose bodies are identical.
func printSummary(w io.Writer, source string, rep *report.Report, fns []*decompiler.Function) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(source)
	t.AppendHeader(table.Row{"Function", "Address", "Nodes", "Exit", "Fingerprint", "Error"})

	for i, fr := range rep.Functions {
		if fr.Failed() {
			t.AppendRow(table.Row{fr.Name, fmt.Sprintf("%04X", fr.Address), "", "", "", fr.Error})
			continue
		}
		t.AppendRow(table.Row{
			fr.Name,
			fmt.Sprintf("%04X", fr.Address),
			ast.Count(fns[i].Body),
			fmt.Sprintf("%s @ %04X", fr.Exit, fr.ExitAddress),
			fr.Fingerprint.Short(),
			"",
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "failed", rep.Failures()})
	t.Render()

	dups := rep.Duplicates()
	groups := make([]string, 0, len(dups))
	for fp, names := range dups {
		groups = append(groups, fmt.Sprintf("  %s: %s", fp.Short(), strings.Join(names, ", ")))
	}
	if len(groups) == 0 {
		return
	}
	sort.Strings(groups)
	fmt.Fprintf(w, "Identical bodies:\n%s\n", strings.Join(groups, "\n"))
}
