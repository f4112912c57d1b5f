// Package httputil provides HTTP plumbing for the craftree API client.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff when it fails with
// a [RetryableError]. Wrap transient failures, such as connection errors
// and 5xx responses, so they are retried; everything else returns at once:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return httputil.CheckStatus(resp.StatusCode)
//	})
//
// # Status mapping
//
// [CheckStatus] turns a response status into a [errors.Code] error so that
// callers see the same codes whether an item came from the local database
// or from a remote server.
//
// [errors.Code]: github.com/matzehuels/craftree/pkg/errors#Code
package httputil
