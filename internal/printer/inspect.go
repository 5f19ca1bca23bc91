package printer

import (
	"github.com/cockroachdb/errors"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

// PDFCPUInspector reads page dimensions with pdfcpu.
type PDFCPUInspector struct{}

func NewPDFCPUInspector() *PDFCPUInspector {
	api.DisableConfigDir()
	return &PDFCPUInspector{}
}

func (PDFCPUInspector) Inspect(path string) (PDFInfo, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return PDFInfo{}, errors.Wrap(err, "failed to read page dimensions")
	}
	if len(dims) == 0 {
		return PDFInfo{}, errors.Newf("no pages in %s", path)
	}

	return PDFInfo{
		PageCount: len(dims),
		FirstPage: models.PageDimensions{
			Width:  dims[0].Width,
			Height: dims[0].Height,
		},
	}, nil
}
