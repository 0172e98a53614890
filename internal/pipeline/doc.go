// Package pipeline processes one listing page as a sequence of steps.
//
// The page walker builds one Pipeline per run:
//
//	fetch -> expand -> locate -> extract
//
// and executes it for each page with a fresh PageState. Steps record
// recoverable problems in the page summary; a step error (render failure,
// cancellation) stops the page and, through the walker, the run.
package pipeline
