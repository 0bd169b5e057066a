// Package extract turns fetched catalog pages into raw field mappings.
//
// Two families are supported: structured extraction walks a decoded JSON
// document, markup extraction selects repeating card nodes in an HTML DOM.
// Every text value is trimmed and a missing field is simply absent.
package extract

import "strings"

// Record is one raw field mapping read from a page
type Record struct {
	Fields map[string]string
	// Labels holds list-valued source data such as tags or badges
	Labels []string
	// Snippet is a short excerpt of the source node for diagnostics
	Snippet string
}

// NewRecord creates an empty record
func NewRecord() Record {
	return Record{Fields: make(map[string]string)}
}

// Set stores v under key. Nil or blank values leave the key absent.
func (r Record) Set(key string, v *string) {
	if v == nil {
		return
	}
	if s := Clean(*v); s != "" {
		r.Fields[key] = s
	}
}

// SetString is Set for plain strings
func (r Record) SetString(key, v string) {
	r.Set(key, &v)
}

// Get returns the value for key and whether it was present
func (r Record) Get(key string) (string, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Value returns the value for key or ""
func (r Record) Value(key string) string {
	return r.Fields[key]
}

// Ptr returns the value for key or nil
func (r Record) Ptr(key string) *string {
	if v, ok := r.Fields[key]; ok {
		return &v
	}
	return nil
}

// Clean trims s and collapses internal runs of whitespace
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
