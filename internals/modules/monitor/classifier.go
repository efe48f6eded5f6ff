package monitor

import (
	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/internals/modules/probe"
)

// Classify maps a probe outcome to a status. A successful probe slower than
// the endpoint's timeout is WARNING; any failed probe is DOWN.
func Classify(o probe.Outcome, elapsedMs, timeoutMs int64) endpoint.Status {
	if !o.Success {
		return endpoint.StatusDown
	}
	if elapsedMs > timeoutMs {
		return endpoint.StatusWarning
	}
	return endpoint.StatusActive
}
