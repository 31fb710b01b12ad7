// Package report packages decompilation results for storage and exchange.
// Reports are CBOR-encoded so downstream tools (pretty-printers, diffing,
// indexing) can consume trees without linking the decompiler.
package report

import (
	"sort"

	"github.com/chazu/qvmtool/decompiler"
	"github.com/chazu/qvmtool/pkg/ast/hash"
)

// Report is the result of decompiling one program.
type Report struct {
	Source      string           `cbor:"1,keyasint"`
	HashVersion byte             `cbor:"2,keyasint"`
	Functions   []FunctionReport `cbor:"3,keyasint"`
}

// FunctionReport is the result for one entry point. Exactly one of Error
// and Body is meaningful.
type FunctionReport struct {
	Name        string           `cbor:"1,keyasint"`
	Address     uint32           `cbor:"2,keyasint"`
	Exit        string           `cbor:"3,keyasint,omitempty"` // terminator opcode name
	ExitAddress uint32           `cbor:"4,keyasint,omitempty"`
	Fingerprint hash.Fingerprint `cbor:"5,keyasint,omitempty"`
	Error       string           `cbor:"6,keyasint,omitempty"`
	Body        []Node           `cbor:"7,keyasint,omitempty"`
}

// Failed reports whether the function could not be decompiled.
func (f *FunctionReport) Failed() bool {
	return f.Error != ""
}

// New builds a report from decompiled functions.
func New(source string, fns []*decompiler.Function) *Report {
	r := &Report{
		Source:      source,
		HashVersion: hash.FormatVersion,
		Functions:   make([]FunctionReport, 0, len(fns)),
	}
	for _, fn := range fns {
		fr := FunctionReport{
			Name:    fn.Symbol.Name,
			Address: uint32(fn.Symbol.Address),
		}
		if fn.Err != nil {
			fr.Error = fn.Err.Error()
		} else {
			fr.Exit = fn.Exit.Opcode.String()
			fr.ExitAddress = uint32(fn.Exit.Address)
			fr.Fingerprint = hash.Sum(fn.Body)
			fr.Body = FromAST(fn.Body)
		}
		r.Functions = append(r.Functions, fr)
	}
	return r
}

// Failures returns the number of functions that could not be decompiled.
func (r *Report) Failures() int {
	n := 0
	for i := range r.Functions {
		if r.Functions[i].Failed() {
			n++
		}
	}
	return n
}

// Duplicates groups the names of successfully decompiled functions that
// share a fingerprint. Only groups with more than one member are returned,
// each sorted by name.
func (r *Report) Duplicates() map[hash.Fingerprint][]string {
	groups := make(map[hash.Fingerprint][]string)
	for i := range r.Functions {
		fn := &r.Functions[i]
		if fn.Failed() {
			continue
		}
		groups[fn.Fingerprint] = append(groups[fn.Fingerprint], fn.Name)
	}
	for fp, names := range groups {
		if len(names) < 2 {
			delete(groups, fp)
			continue
		}
		sort.Strings(names)
	}
	return groups
}
