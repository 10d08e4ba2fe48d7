package syntaxtree

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse runs a fresh tree-sitter parser over source using the given
// grammar and wraps the result for NodeRef resolution. One *sitter.Parser
// is created per call; stanza programs run once per CLI invocation, so
// there is no pool to manage (contrast the teacher's extensions/, which
// exists precisely to amortise that cost across many invocations).
func Parse(ctx context.Context, language *sitter.Language, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language)

	raw, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	return NewTree(raw, source), nil
}
