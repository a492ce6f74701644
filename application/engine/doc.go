// Package engine holds the DOM interaction primitives of the collection workflow.
// Every wait is bounded and observes context cancellation.
package engine
