package queue

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// RetryPolicy spaces out attempts of a failing job: Base, 2·Base, 4·Base ...
// never more than Max.
type RetryPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// Backoff is the delay before the attempt following attempt number n (1-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.Base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.Max || d <= 0 {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Permanent reports errors that no later attempt can fix, such as malformed
// jobs and sources that cannot be decoded.
func Permanent(err error) bool {
	return errors.Is(err, common.ErrorPermanent) || errors.Is(err, common.ErrorBadRequest)
}
