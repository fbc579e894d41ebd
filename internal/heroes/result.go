package heroes

import "fmt"

// Result is the outcome of a hero operation. Value always holds something
// usable: the backend's answer, or the operation's fallback when the request
// failed. Err is the recovered failure, nil on success.
type Result[T any] struct {
	Value T
	Err   error
}

// Recovered reports whether Value is a fallback substituted for a failed request.
func (r Result[T]) Recovered() bool {
	return r.Err != nil
}

// handleError logs the failure, records "<label> failed: <message>" in the
// sink and resolves with fallback.
func handleError[T any](s *Service, op, label string, fallback T, err error) Result[T] {
	s.log.ErrorObj("hero request failed", "hero_error", map[string]any{
		"operation": op,
		"label":     label,
		"error":     err.Error(),
	})
	s.metrics.observe(op, outcomeFailure)
	s.sink.Add(fmt.Sprintf("%s failed: %s", label, err.Error()))
	return Result[T]{Value: fallback, Err: err}
}
