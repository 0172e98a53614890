// Package model defines the data types shared across hesdermutne.
//
// A Record is one conditional-arrangement case with exactly eight fields in
// a fixed column order (see Field). A Run groups the records collected from
// all visited listing pages together with per-page statistics.
//
// The package has no dependencies on other internal packages so that the
// extractor, the walker, the report writers and the database can all use it.
package model
