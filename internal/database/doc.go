// Package database keeps the history of scrape runs in SQLite.
//
// RunDB stores each run with its page summaries and every record, so that
// runs can be listed and compared later. The database is a single file in
// the XDG data directory, opened through the CGO-free modernc.org/sqlite
// driver.
package database
