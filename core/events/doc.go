// Package events defines the domain events published on the internal bus
// while assignments are validated, committed and cancelled.
package events
