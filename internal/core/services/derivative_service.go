package services

import (
	"bytes"
	"fmt"

	"docshelf/internal/core/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DerivativeService produces page-bounded preview copies of PDF documents.
// Derivatives are built per request from the source bytes and never cached,
// so an admin edit to a document's free page count takes effect immediately.
type DerivativeService struct {
	conf *model.Configuration
}

// NewDerivativeService creates a new derivative service
func NewDerivativeService() *DerivativeService {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &DerivativeService{conf: conf}
}

// PageCount returns the true page count of a PDF
func (s *DerivativeService) PageCount(docBytes []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(docBytes), s.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}
	return count, nil
}

// ExtractBoundedCopy copies the first min(pageCap, total) pages of a PDF
// into a new, structurally independent PDF. The result parses on its own;
// it is not a byte-range slice of the original.
func (s *DerivativeService) ExtractBoundedCopy(docBytes []byte, pageCap int) ([]byte, error) {
	if pageCap < 1 {
		return nil, fmt.Errorf("%w: page cap must be positive", domain.ErrValidation)
	}

	total, err := s.PageCount(docBytes)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrProcessing)
	}

	if pageCap > total {
		pageCap = total
	}

	var out bytes.Buffer
	pages := []string{fmt.Sprintf("1-%d", pageCap)}
	if err := api.Trim(bytes.NewReader(docBytes), &out, pages, s.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}

	return out.Bytes(), nil
}
