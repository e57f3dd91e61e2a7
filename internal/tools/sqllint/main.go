// Command sqllint checks that every SQL constant carries a unique
// "--sql <uuid>" audit marker on its first line.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const defaultTarget = "internal/sqlinline"

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern     = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type violation struct {
	file    string
	line    int
	name    string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type query struct {
	file string
	line int
	name string
	id   string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: sqllint [path ...]\n\nDefaults to %s.\n", defaultTarget)
	}
	flag.Parse()

	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{defaultTarget}
	}

	violations, err := lint(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(2)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker problems")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", v)
		}
		os.Exit(1)
	}
}

func lint(targets []string) ([]violation, error) {
	files, err := collect(targets)
	if err != nil {
		return nil, err
	}

	var (
		violations []violation
		queries    []query
	)
	for _, path := range files {
		qs, vs, err := scanFile(path)
		if err != nil {
			return nil, err
		}
		queries = append(queries, qs...)
		violations = append(violations, vs...)
	}

	seen := make(map[string]query, len(queries))
	for _, q := range queries {
		if first, ok := seen[q.id]; ok {
			violations = append(violations, violation{
				file:    q.file,
				line:    q.line,
				name:    q.name,
				message: fmt.Sprintf("marker %s already used by %s", q.id, first.name),
			})
			continue
		}
		seen[q.id] = q
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file != violations[j].file {
			return violations[i].file < violations[j].file
		}
		return violations[i].line < violations[j].line
	})
	return violations, nil
}

func collect(targets []string) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if isSource(target) {
				files = append(files, target)
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if isSource(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isSource(path string) bool {
	return filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go")
}

func scanFile(path string) ([]query, []violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, err
	}

	var (
		queries    []query
		violations []violation
	)
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := "_"
			if i < len(spec.Names) && spec.Names[i] != nil {
				name = spec.Names[i].Name
			}
			line := fset.Position(lit.Pos()).Line
			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				violations = append(violations, violation{
					file:    path,
					line:    line,
					name:    name,
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			queries = append(queries, query{file: path, line: line, name: name, id: m[1]})
		}
		return true
	})
	return queries, violations, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if strings.HasPrefix(v, "`") {
		return strings.Trim(v, "`"), nil
	}
	return strconv.Unquote(v)
}
