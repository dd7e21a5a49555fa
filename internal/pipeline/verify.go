package pipeline

import (
	"github.com/sygic-travel/tkdocs/internal/inspect"
	"github.com/sygic-travel/tkdocs/internal/postprocess"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

// InspectVerifier fails a run when placeholder tokens survive post-processing or a
// page advertises a version other than the resolved one.
type InspectVerifier struct {
	Selector string
	Tokens   []string
}

func (v InspectVerifier) Verify(root string, ver projectversion.Version) error {
	sel := v.Selector
	if sel == "" {
		sel = postprocess.DefaultSelector
	}
	rep, err := inspect.Tree(root, sel, v.Tokens)
	if err != nil {
		return err
	}
	return rep.Validate(ver.String())
}
