// Package ports defines the interfaces (ports) that storage and locking
// adapters implement. Services depend only on these, which keeps them
// testable against in-memory or sqlite-backed implementations.
package ports
