/*
Package httpclient is the sync transport shared by the app record and the
app registry.

Requests go through resty on top of a go-retryablehttp transport, a token
bucket limiter and a circuit breaker. Sync returns the raw response body and
leaves decoding to the caller.

# Error conventions

The remote API reports failures in a JSON envelope:

	{"result": "error", "text": "name is taken", "errors": {"name": "taken"}}

Such responses become *RequestError values carrying the server's text and
field errors. A 2xx response must be JSON or empty; anything else is an
error too.
*/
package httpclient
