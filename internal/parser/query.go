// Stanza patterns are not a bespoke grammar: a stanza's pattern text
// (the `(...)` head before the `{ }` block) is handed verbatim to
// sitter.NewQuery as a tree-sitter query pattern, exactly as the real
// tree-sitter-graph project does. parser.go's grammar covers only the
// statement block.
package parser

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/stanzalang/stanza/internal/ast"
	"github.com/stanzalang/stanza/internal/execution"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// Matcher compiles and runs a stanza's pattern (literal tree-sitter
// query syntax, per the package comment above) against a parsed Tree.
// One Matcher is built per target language and reused across every
// stanza in a program. It holds only the grammar: each Match call
// compiles its pattern afresh, and compiled queries are not cached.
type Matcher struct {
	language *sitter.Language
}

// NewMatcher returns a Matcher for the given tree-sitter grammar.
func NewMatcher(language *sitter.Language) *Matcher {
	return &Matcher{language: language}
}

// Match compiles pattern as a tree-sitter query and runs it against
// tree, returning one execution.Match per query match. Capture order
// follows the query's declaration order, giving `@1`/`@2` positional
// references in stanza source a stable meaning.
func (m *Matcher) Match(tree *syntaxtree.Tree, pattern string) ([]execution.Match, error) {
	query, err := sitter.NewQuery([]byte(pattern), m.language)
	if err != nil {
		return nil, fmt.Errorf("compiling stanza pattern: %w", err)
	}
	defer query.Close()

	captureNames := make([]string, query.CaptureCount())
	for i := range captureNames {
		captureNames[i] = query.CaptureNameForId(uint32(i))
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RawRoot())

	var matches []execution.Match
	for {
		qm, ok := cursor.NextMatch()
		if !ok {
			break
		}
		qm = cursor.FilterPredicates(qm, tree.Source())

		captures := make(map[string]syntaxtree.NodeRef, len(qm.Captures))
		order := make([]string, 0, len(qm.Captures))
		for _, c := range qm.Captures {
			name := captureNames[c.Index]
			ref := tree.RefFor(c.Node)
			captures[name] = ref
			order = append(order, name)
		}
		matches = append(matches, execution.Match{Captures: captures, Order: order})
	}
	return matches, nil
}

// MatchAll runs every stanza's pattern against tree in order, giving
// execution.Interpreter.Run the `matches[i]` slice it expects for
// program.Stanzas[i].
func (m *Matcher) MatchAll(tree *syntaxtree.Tree, program *ast.Program) ([][]execution.Match, error) {
	matches := make([][]execution.Match, len(program.Stanzas))
	for i, stanza := range program.Stanzas {
		ms, err := m.Match(tree, stanza.Pattern)
		if err != nil {
			return nil, fmt.Errorf("matching stanza at %s: %w", stanza.Location, err)
		}
		matches[i] = ms
	}
	return matches, nil
}
