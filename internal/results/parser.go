package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// block is one parsed assignment from a solver result file: the field name
// and its numeric rows. Scalar/vector assignments produce a single row;
// bracketed multi-line matrices produce one row per input line.
type block struct {
	name string
	rows [][]float64
}

// parseBlocks scans the solver's assignment grammar:
//
//	NAME (idx, [1:   N]) = [ v1 v2 ... vN ];
//	NAME = [
//	  r11 r12 ...
//	  r21 r22 ...
//	];
//	NAME (idx, [1: 14]) = 'some string' ;
//
// String-valued assignments and % comments are skipped. Anything else that
// fails to scan as numbers is a hard error with line context.
func parseBlocks(r io.Reader) ([]block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var blocks []block
	lineNo := 0

	var cur *block
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if cur != nil {
			// Inside a multi-line matrix block; accumulate rows until "];".
			body, closed := splitBlockEnd(line)
			if body != "" {
				row, err := parseRow(body)
				if err != nil {
					return nil, fmt.Errorf("line %d: field %s: %w", lineNo, cur.name, err)
				}
				if len(row) > 0 {
					cur.rows = append(cur.rows, row)
				}
			}
			if closed {
				blocks = append(blocks, *cur)
				cur = nil
			}
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		name := assignmentName(line[:eq])
		if name == "" {
			continue
		}
		rhs := strings.TrimSpace(line[eq+1:])

		switch {
		case strings.HasPrefix(rhs, "'"):
			// String field (version banners, titles); not numeric data.
			continue
		case strings.HasPrefix(rhs, "["):
			rhs = strings.TrimSpace(rhs[1:])
			body, closed := splitBlockEnd(rhs)
			b := block{name: name}
			if body != "" {
				row, err := parseRow(body)
				if err != nil {
					return nil, fmt.Errorf("line %d: field %s: %w", lineNo, name, err)
				}
				if len(row) > 0 {
					b.rows = append(b.rows, row)
				}
			}
			if closed {
				blocks = append(blocks, b)
			} else {
				cur = &b
			}
		default:
			// Bare assignment. Only numeric ones are data; anything else is
			// the file's embedded control syntax (idx bookkeeping) and skipped.
			body := strings.TrimSpace(strings.TrimSuffix(rhs, ";"))
			row, err := parseRow(body)
			if err != nil {
				continue
			}
			blocks = append(blocks, block{name: name, rows: [][]float64{row}})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if cur != nil {
		return nil, fmt.Errorf("unterminated matrix block for field %s", cur.name)
	}
	return blocks, nil
}

// assignmentName extracts the leading identifier from the left-hand side of
// an assignment, ignoring the solver's "(idx, [1: N])" shape annotation.
func assignmentName(lhs string) string {
	lhs = strings.TrimSpace(lhs)
	end := 0
	for end < len(lhs) {
		c := lhs[end]
		if c == '_' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' ||
			end > 0 && c >= '0' && c <= '9' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return ""
	}
	rest := strings.TrimSpace(lhs[end:])
	if rest != "" && !strings.HasPrefix(rest, "(") {
		return ""
	}
	return lhs[:end]
}

// splitBlockEnd splits a line inside a bracketed block into its numeric body
// and whether the block terminator was reached on this line.
func splitBlockEnd(line string) (body string, closed bool) {
	if i := strings.Index(line, "]"); i >= 0 {
		return strings.TrimSpace(line[:i]), true
	}
	return strings.TrimSpace(line), false
}

func parseRow(s string) ([]float64, error) {
	fieldsRaw := strings.Fields(s)
	if len(fieldsRaw) == 0 {
		return nil, nil
	}
	row := make([]float64, 0, len(fieldsRaw))
	for _, tok := range fieldsRaw {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("bad numeric token %q", tok)
		}
		row = append(row, v)
	}
	return row, nil
}

// LoadResultTable reads the summary result file. Each assignment becomes one
// field; matrix fields are flattened row-major. Returns the names of fields
// that appeared more than once (first occurrence kept) so the caller can
// log a diagnostic.
func LoadResultTable(path string) (*ResultTable, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open result table %s: %w", path, err)
	}
	defer f.Close()

	blocks, err := parseBlocks(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse result table %s: %w", path, err)
	}

	t := &ResultTable{fields: make(map[string][]float64, len(blocks))}
	var repeated []string
	for _, b := range blocks {
		var flat []float64
		for _, row := range b.rows {
			flat = append(flat, row...)
		}
		if !t.add(b.name, flat) {
			repeated = append(repeated, b.name)
		}
	}
	return t, repeated, nil
}
