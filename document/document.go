// Package document turns raw HTML into a small queryable tree that
// extractors can walk without depending on a particular parser.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is a single element of a parsed document
type Node interface {
	// Find returns the descendants matching a CSS selector, in document order
	Find(selector string) []Node
	Text() string
	Attr(name string) (string, bool)
}

// Document is the root of a parsed page
type Document interface {
	Find(selector string) []Node
}

// ParseFunc turns a raw page body into a Document
type ParseFunc func(raw []byte) (Document, error)

// ParseError reports a body that could not be parsed
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errEmptyDocument = errors.New("empty document")

// Parse builds a Document backed by goquery
func Parse(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Err: errEmptyDocument}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return &selection{sel: doc.Selection}, nil
}

type selection struct {
	sel *goquery.Selection
}

func (s *selection) Find(selector string) []Node {
	found := s.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, el *goquery.Selection) {
		nodes = append(nodes, &selection{sel: el})
	})
	return nodes
}

func (s *selection) Text() string {
	return s.sel.Text()
}

func (s *selection) Attr(name string) (string, bool) {
	return s.sel.Attr(name)
}

// CleanText collapses runs of whitespace and trims the result
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
