// Package ledger appends contract events to an external blockchain ledger.
//
// The ledger is advisory: the primary store is authoritative, and a failed or
// slow ledger write never changes the outcome of the request that caused it.
// Dispatcher runs writes off the request path, each under its own timeout,
// and keeps a receipt of every attempt.
package ledger
