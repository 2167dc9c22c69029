// Package segment splits a multi-page PDF into independent single-page PDFs.
package segment

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page is one single-page PDF cut from the source document.
// Index is 1-based and follows the source page order.
type Page struct {
	Index int
	Data  []byte
}

// DocumentLoadError reports that the payload is not a readable PDF or that a
// page could not be cut from it. It is fatal for the whole run.
type DocumentLoadError struct {
	Page int // 0 when the document itself failed to load
	Err  error
}

func (e *DocumentLoadError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("document load: extracting page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("document load: %v", e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// Split returns one Page per page of the PDF in data, indices 1..N.
// No partial result is returned on failure.
func Split(data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, &DocumentLoadError{Err: fmt.Errorf("empty payload")}
	}

	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &DocumentLoadError{Err: err}
	}

	pages := make([]Page, 0, pdfContext.PageCount)
	for pageNum := 1; pageNum <= pdfContext.PageCount; pageNum++ {
		pageReader, err := api.ExtractPage(pdfContext, pageNum)
		if err != nil {
			return nil, &DocumentLoadError{Page: pageNum, Err: err}
		}
		pageData, err := io.ReadAll(pageReader)
		if err != nil {
			return nil, &DocumentLoadError{Page: pageNum, Err: err}
		}
		pages = append(pages, Page{Index: pageNum, Data: pageData})
	}

	return pages, nil
}

// PageCount reports the number of pages in data without splitting it.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, &DocumentLoadError{Err: err}
	}
	return n, nil
}
