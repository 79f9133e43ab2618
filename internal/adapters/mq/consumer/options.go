package consumer

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithConsumerCount sets the number of subscriptions.
func WithConsumerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithAckPolicy selects when deliveries are settled.
func WithAckPolicy(policy AckPolicy) Option {
	return func(p *Pool) {
		if policy == AckAuto || policy == AckOnSuccess {
			p.policy = policy
		}
	}
}
