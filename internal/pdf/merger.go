// Package pdf wraps PDF parsing and page concatenation for the merge
// pipeline.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrCorruptDocument reports input that cannot be parsed as a PDF.
	ErrCorruptDocument = errors.New("corrupt PDF document")

	// ErrClosed reports use of a Merger after Close.
	ErrClosed = errors.New("merger is closed")
)

// Merger accumulates documents and concatenates their pages in append order.
// It holds every appended document in memory until Close releases them, so
// callers must Close on every path, success or failure.
type Merger struct {
	conf   *model.Configuration
	docs   [][]byte
	pages  int
	closed bool
}

// NewMerger returns an empty Merger.
func NewMerger() *Merger {
	return &Merger{conf: model.NewDefaultConfiguration()}
}

// Append validates doc as a PDF and schedules its pages for the merge.
// Input that does not parse is reported as ErrCorruptDocument and leaves
// the merger unchanged.
func (m *Merger) Append(doc []byte) error {
	if m.closed {
		return ErrClosed
	}

	count, err := pdfapi.PageCount(bytes.NewReader(doc), m.conf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	m.docs = append(m.docs, doc)
	m.pages += count
	return nil
}

// Len returns the number of appended documents.
func (m *Merger) Len() int {
	return len(m.docs)
}

// Pages returns the total page count across all appended documents.
func (m *Merger) Pages() int {
	return m.pages
}

// Merge writes the concatenation of every appended document to w. The
// output page sequence is the append order; nothing is reordered or
// deduplicated.
func (m *Merger) Merge(w io.Writer) error {
	if m.closed {
		return ErrClosed
	}

	switch len(m.docs) {
	case 0:
		return errors.New("no documents appended")
	case 1:
		// Degenerate merge: a single document passes through unchanged.
		_, err := w.Write(m.docs[0])
		return err
	}

	rsc := make([]io.ReadSeeker, len(m.docs))
	for i, doc := range m.docs {
		rsc[i] = bytes.NewReader(doc)
	}

	if err := pdfapi.MergeRaw(rsc, w, false, m.conf); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return nil
}

// Close releases the accumulated documents. It is safe to call more than
// once.
func (m *Merger) Close() error {
	m.docs = nil
	m.closed = true
	return nil
}

// PageCount reports the number of pages in doc.
func PageCount(doc []byte) (int, error) {
	count, err := pdfapi.PageCount(bytes.NewReader(doc), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return count, nil
}
