// Package worker runs the per-instance stage of a batch on a pool of
// goroutines.
//
// Instances within a batch are independent until the grouping step, so
// their reads and decodes can proceed in parallel; Run is the
// synchronization barrier that delivers every outcome, in input order,
// before grouping starts.
//
// Example usage:
//
//	results := worker.Run(ctx, keys, 4, func(ctx context.Context, key string) (*candidate, error) {
//	    return decode(ctx, key)
//	})
//	for _, r := range results {
//	    if r.Err != nil {
//	        // reject r.Key
//	    }
//	}
package worker
