/*
Package resilience provides the circuit breaker guarding sync requests.

# Overview

When the app endpoint keeps failing, the breaker opens and requests fail
immediately with ErrCircuitOpen instead of piling up retries.

# Usage

	breaker := resilience.New("app-endpoint", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	body, err := resilience.Do(breaker, func() ([]byte, error) {
		return fetch(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

Settings.IsFailure lets callers exclude errors (client-side 4xx responses,
for example) from the failure counts.
*/
package resilience
