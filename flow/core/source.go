package core

// Notifier is the part of the source contract every source must satisfy:
// it reports failure and end of stream to registered listeners. A source
// delivers its notifications on its own goroutine; listeners registered
// after a terminal notification may or may not be replayed, depending on
// the source.
type Notifier interface {
	OnError(func(error))
	OnEnd(func())
}

// Readable is a pull-style source. It announces that data is available
// and the consumer pulls chunks with Read until ok is false. A single
// notification may cover any number of chunks.
type Readable interface {
	Notifier

	OnReadable(func())
	Read() (chunk []byte, ok bool)
}

// Pushing is a push-style source that hands each chunk to its data
// listeners as it arrives.
type Pushing interface {
	Notifier

	OnData(func([]byte))
}

// Starter is implemented by sources that produce nothing until told to.
// Consumers call Start once all their listeners are attached.
type Starter interface {
	Start()
}
