// Package report writes scrape results.
//
// CSVWriter and SaveCSV produce the result file: one header row with the
// Hebrew column names, then one row per record in collection order.
//
// Run summaries implement Writer:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: tables and a miss chart, for sharing
//   - JSONWriter: structured output for tooling
//
// FormatFromPath and NewWriter pick a summary writer from a file name.
package report
