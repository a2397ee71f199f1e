// Package engine routes bouncer events to the message log, the module
// commands and the away module.
//
// Single-Writer Event Loop:
// Transports enqueue events from any goroutine; Run processes them one at
// a time, in arrival order, in a single goroutine. Every store write and
// every change to away state happens there, so the log order is the event
// order and the away module needs no locking.
//
// Event Processing Flow:
//  1. Transport builds an Event carrying the Host it arrived on
//  2. Enqueue stamps a request id and appends it to the FIFO queue
//  3. Run dequeues it, stamps a sequence number and routes it by type
//  4. The handler writes to the store and/or replies through the Host
//
// Failures are logged with the full event context and processing
// continues with the next event. A failed insert drops that message only;
// the user is told on the module channel.
package engine
