// Package main provides the entry point for the hesdermutne CLI.
//
// hesdermutne collects the published conditional arrangements (הסדר מותנה)
// of the Israeli prosecution from the paginated listing and writes them to
// a CSV file.
//
// Usage:
//
//	hesdermutne scrape <listing-url>
//	hesdermutne history
//	hesdermutne compare
//
// See --help for all available options.
package main

// main is the entry point for hesdermutne.
func main() {
	Execute()
}
