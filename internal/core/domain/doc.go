// Package domain holds the core business types for lorebook: parsed
// documents, retrievable chunks, named collections, search results and
// the agent turn record, together with the sentinel errors shared by
// all layers.
package domain
