package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a decoded stream.
func Disassemble(s *Stream) string {
	var sb strings.Builder
	for _, line := range DisassembleToLines(s) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// DisassembleToLines returns the disassembly as a slice of lines.
func DisassembleToLines(s *Stream) []string {
	lines := make([]string, 0, s.Len())
	for _, in := range s.instrs {
		lines = append(lines, fmt.Sprintf("%04X  %s", in.Address, in))
	}
	return lines
}

// DisassembleWithName returns a listing of the whole program with a header
// describing its tables and entry points.
func (p *Program) DisassembleWithName(name string) (string, error) {
	stream, err := p.Decode()
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; QVM program v%d, %d bytes, %d instructions\n", p.Version, len(p.Code), stream.Len()))

	if len(p.Functions) > 0 {
		sb.WriteString("; Functions:\n")
		for _, fn := range p.Functions {
			sb.WriteString(fmt.Sprintf(";   %04X %s\n", fn.Address, fn.Name))
		}
	}

	if len(p.Identifiers) > 0 {
		sb.WriteString("; Identifiers:\n")
		for i, id := range p.Identifiers {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, id))
		}
	}

	if len(p.Strings) > 0 {
		sb.WriteString("; Strings:\n")
		for i, s := range p.Strings {
			// Truncate long strings for readability
			display := s
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %q\n", i, display))
		}
	}

	sb.WriteString("\n; Code:\n")
	labels := make(map[int]string, len(p.Functions))
	for _, fn := range p.Functions {
		labels[fn.Address] = fn.Name
	}
	for _, in := range stream.instrs {
		if label, ok := labels[in.Address]; ok {
			sb.WriteString(label + ":\n")
		}
		sb.WriteString(fmt.Sprintf("%04X  %s\n", in.Address, in))
	}

	return sb.String(), nil
}
