package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stanzalang/stanza/internal/ast"
	"github.com/stanzalang/stanza/internal/execution"
	"github.com/stanzalang/stanza/internal/parser"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// loadProgram parses the .stanza file at path.
func loadProgram(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	program, err := parser.New().ParseProgram(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return program, nil
}

// runAgainst parses sourcePath in the configured --language, matches
// every stanza's pattern against it, and interprets the result into a
// fresh RunContext.
func runAgainst(program *ast.Program, sourcePath string) (*execution.RunContext, error) {
	lang, err := syntaxtree.Language(flagLanguage)
	if err != nil {
		return nil, err
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	tree, err := syntaxtree.Parse(context.Background(), lang, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", sourcePath, err)
	}

	matcher := parser.NewMatcher(lang)
	matches, err := matcher.MatchAll(tree, program)
	if err != nil {
		return nil, err
	}

	rc := execution.NewRunContext(tree, logger)
	if err := execution.NewInterpreter(logger).Run(rc, program, matches); err != nil {
		return nil, fmt.Errorf("running program against %s: %w", sourcePath, err)
	}
	return rc, nil
}
