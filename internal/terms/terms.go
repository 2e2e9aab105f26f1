package terms

import (
	"context"
	"fmt"
	"os"
)

const defaultTemplate = `RENTAL AGREEMENT

1. The lessor agrees to provide the goods listed in the attached sale note
   for the agreed event date.
2. The lessee is responsible for the rented goods from delivery until
   return, and will cover repair or replacement of damaged or lost items.
3. Full payment is due before or upon delivery unless agreed otherwise in
   writing.
4. Cancellations within 48 hours of the event date forfeit any advance
   payment.
`

// FileProvider reads the current terms template from disk on every call,
// so template edits apply to future contracts only. Contracts keep the
// snapshot taken at issuance.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) CurrentTermsText(_ context.Context) (string, error) {
	const op = "terms.FileProvider.CurrentTermsText"

	if p.path == "" {
		return defaultTemplate, nil
	}

	b, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}
