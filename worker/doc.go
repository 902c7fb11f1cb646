// Package worker runs independent jobs over a bounded set of goroutines and
// returns their results in submission order.
//
// Example usage:
//
//	b := worker.NewBatch(func(ctx context.Context, path string) (*ev.Report, error) {
//	    return v.Validate(path)
//	}, 4)
//
//	res := b.Run(ctx, paths)
//	for _, jr := range res.Results {
//	    if jr.Err != nil {
//	        // that job failed; the others still ran
//	    }
//	}
package worker
