package interfaces

// -----------------------------------------------------------------------------
// IPushChannel is the one-way, server-to-client push capability of one viewer.
// -----------------------------------------------------------------------------

type IPushChannel interface {

	// Write queues one serialized event. It must not block and must not call
	// back into the live feed; a broken or slow channel returns an error.
	Write(payload []byte) error

	// -----------------------------------------------------------------------------

	// OnClose registers a callback run once when the transport closes the channel.
	OnClose(fn func())
}
