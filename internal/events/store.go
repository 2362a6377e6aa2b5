package events

// StoreUpdate is emitted after a state store replaces or mutates its
// snapshot with notification.
type StoreUpdate struct {
	Query       string
	Fields      []string
	Subscribers int
}

// SubscriberPanic is emitted when a store subscriber panics during
// notification. The remaining subscribers are still notified.
type SubscriberPanic struct {
	Query      string
	Subscriber string
	Recovered  any
}
