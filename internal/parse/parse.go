// Package parse loads rulebook source files into domain documents.
//
// Two formats are supported: plain text (one page, or form-feed
// separated pages) and JSON page maps as produced by PDF extraction
// tooling, where keys are page references and values are page text.
package parse

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/runehall/lorebook/internal/core/domain"
)

// LoadDocument reads a rulebook file and returns it as a document.
// The format is chosen by extension: .json is treated as a page map,
// anything else as plain text.
func LoadDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	var pages []domain.Page
	if strings.EqualFold(filepath.Ext(path), ".json") {
		pages, err = parsePageMap(data)
		if err != nil {
			return nil, err
		}
	} else {
		pages = parseText(string(data))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: document %s has no pages", domain.ErrInvalidArgument, base)
	}

	return &domain.Document{
		ID:    title,
		Title: title,
		Path:  path,
		Pages: pages,
	}, nil
}

// parsePageMap decodes a JSON object of page reference to page text.
// Pages are ordered numerically where references parse as integers,
// lexically otherwise.
func parsePageMap(data []byte) ([]domain.Page, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing page map: %v", domain.ErrInvalidArgument, err)
	}

	refs := make([]string, 0, len(raw))
	for ref := range raw {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		ni, erri := strconv.Atoi(refs[i])
		nj, errj := strconv.Atoi(refs[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		if erri == nil {
			return true
		}
		if errj == nil {
			return false
		}
		return refs[i] < refs[j]
	})

	pages := make([]domain.Page, 0, len(refs))
	for _, ref := range refs {
		if skipPage(raw[ref]) {
			continue
		}
		pages = append(pages, domain.Page{Ref: ref, Text: raw[ref]})
	}
	return pages, nil
}

// skipPage reports whether a page carries no usable text. Extraction
// tooling writes an "[Error: ...]" marker for pages it could not read.
func skipPage(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.HasPrefix(trimmed, "[Error:")
}

// parseText splits plain text into pages on form feeds. Text without
// form feeds becomes a single page "1".
func parseText(text string) []domain.Page {
	parts := strings.Split(text, "\f")

	pages := make([]domain.Page, 0, len(parts))
	for i, part := range parts {
		if skipPage(part) {
			continue
		}
		pages = append(pages, domain.Page{
			Ref:  strconv.Itoa(i + 1),
			Text: part,
		})
	}
	return pages
}
