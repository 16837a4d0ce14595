// Package resilience groups the fault tolerance patterns used by every remote call
// in a digest run.
//
// The package supports:
//   - Circuit breakers for the completion oracle, the paper feed, document hosts and chat delivery
//   - Retry logic with exponential backoff, jitter and a pluggable retry predicate
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return fetchFeed(ctx)
//	    })
//	    return err
//	})
package resilience
