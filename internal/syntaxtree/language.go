package syntaxtree

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
)

// Languages is the fixed set of target grammars the CLI accepts for
// --language. Stanza itself is grammar-agnostic; this registry exists
// only so cmd/stanza has a small, named set to offer rather than
// requiring a grammar plugin mechanism, which is out of scope.
var Languages = map[string]*sitter.Language{
	"python": python.GetLanguage(),
	"go":     golang.GetLanguage(),
}

// Language looks up a target grammar by name.
func Language(name string) (*sitter.Language, error) {
	lang, ok := Languages[name]
	if !ok {
		return nil, fmt.Errorf("unsupported --language %q (supported: python, go)", name)
	}
	return lang, nil
}
