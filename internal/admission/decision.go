package admission

import (
	"net/http"
	"sync"
)

// Reason explains a denied connection attempt.
type Reason string

const (
	ReasonOrigin         Reason = "origin_not_allowed"
	ReasonRateLimited    Reason = "rate_limited"
	ReasonGlobalCapacity Reason = "global_capacity"
	ReasonIPCapacity     Reason = "ip_capacity"
)

// HTTPStatus is the status used to refuse the upgrade for this reason.
func (r Reason) HTTPStatus() int {
	if r == ReasonOrigin {
		return http.StatusForbidden
	}
	return http.StatusTooManyRequests
}

// Decision is the gate's verdict for one connection attempt. An allowed
// decision holds capacity slots until Release is called.
type Decision struct {
	Allowed bool
	Reason  Reason

	release func()
}

func Allow(release func()) Decision {
	if release != nil {
		release = sync.OnceFunc(release)
	}
	return Decision{Allowed: true, release: release}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Release frees the slots held by an allowed decision. Safe to call more than once.
func (d Decision) Release() {
	if d.release != nil {
		d.release()
	}
}
