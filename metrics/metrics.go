package metrics

import "time"

// Event names recorded by the phase services.
const (
	EventPrecheckSuccess = "precheck_success"
	EventPrecheckFail    = "precheck_fail"
	EventPrecheckError   = "precheck_error"
	EventExecuteSuccess  = "execute_success"
	EventExecuteFail     = "execute_fail"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
