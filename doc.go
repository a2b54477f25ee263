// Package tristate provides reactive tri-state conditions.
//
// A Condition is an observable value that is Unset, True or False. Its
// monitoring logic runs only while it has subscribers: the first
// AddCallback starts it, removing the last subscription stops it, and every
// such cycle runs exactly one Start/Stop pair.
//
// # States
//
//   - Unset: not determined yet, distinct from False
//   - True: the condition is met
//   - False: the condition is determined and not met
//
// # Composition
//
// Conditions combine with AND/OR algebra:
//
//	visible := docked.And(charging).Or(forced)
//
// A combined condition subscribes to its children only while it has
// subscribers itself. A child marked Overriding decides the combined result
// alone whenever its own state is set; when several overriding children are
// set, the first in declaration order wins.
//
// # Sources
//
// Conditions are created from:
//
//   - New: any Monitor implementation
//   - Manual: values pushed by the owner
//   - ToCondition: a Source[bool] stream
//   - FromWatcher: a decoded document from a Watcher (files, Redis, channels)
//   - FilePresence: the existence of a file
//
// Stream converts a Condition back into a channel of states.
//
// # Observability
//
// Lifecycle transitions are emitted as capitan signals (see signals.go) and
// can be forwarded to a MetricsProvider. Panicking callbacks are recovered,
// recorded and reported without affecting other subscribers.
//
// # Example
//
//	ch := make(chan bool)
//	online := tristate.ToCondition(tristate.NewChannelSource(ch), tristate.StartEagerly, tristate.Unset)
//
//	sub := online.AddCallback(tristate.CallbackFunc(func(c *tristate.Condition) {
//	    log.Printf("online: %s", c.State())
//	}))
//	defer online.RemoveCallback(sub)
//
//	ch <- true
package tristate
