// Package knowledge provides the keyword retriever over the prebuilt
// knowledge base.
//
// The knowledge base is a directory of JSON documents. Each document's
// text is cleaned, split into overlapping word-window chunks and tokenized
// once, on first use. [Store.Search] scores chunks by query-term frequency
// with length normalization and returns the top ranked snippets with their
// provenance.
//
// Loading is lazy and happens exactly once per Store; a missing knowledge
// directory yields an empty store rather than an error.
package knowledge
