package queue

// Option applies a configuration option to the MemoryBuffer.
type Option func(*MemoryBuffer)

// WithCapacity bounds the number of buffered tasks.
func WithCapacity(capacity int) Option {
	return func(b *MemoryBuffer) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}
