// Package event provides a pub/sub bus for skill lifecycle events using watermill.
//
// The bus carries discovery and execution notifications (skill loaded, schema
// discovered, execution started/finished, outputs processed) so that transports
// and plugins can observe the server without coupling to the executor.
package event
