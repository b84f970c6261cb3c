// Package audit implements asynchronous delivery of login and session events.
//
// [Dispatcher] relays [Event] values to a [Sink] from a single goroutine.
// When DropIfFull is set a full buffer drops the event and counts it;
// otherwise Emit blocks until there is room or the context ends.
//
// This package does not decide which events to emit and imports no other
// staffguard package.
package audit
