// Package broadcast fans typed messages out to in-process subscribers.
//
// The session poller publishes dashboard lock state through a
// MemoryBroadcaster; each open status stream subscribes and forwards what it
// receives. Broadcast never blocks: a subscriber whose buffer is full drops its
// oldest pending message, so readers always converge on the latest state.
//
//	b := broadcast.NewMemoryBroadcaster[LockState](1)
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//	for msg := range sub.Receive() {
//		render(msg.Data)
//	}
package broadcast
