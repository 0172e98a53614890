// Package extract turns rendered content blocks into case records.
//
// Fields are anchored by label text, not by position. A Rule table lists,
// for every field, the label (or section header) that anchors it and the
// ordered strategies used to find the value:
//
//   - LabelSibling reads the element that follows a matching label;
//   - SlashText and YearText are loose text heuristics used only for the
//     case number, which is the dedup key.
//
// Multi-line fields (legislation, settlement conditions) are collected by
// SectionExtractor: the list items following a section header, up to an
// optional stop header.
//
// Extractor applies the rule table to one block and enforces the
// same-page dedup policy through a Scope.
package extract
