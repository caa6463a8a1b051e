package sim

import "fmt"

// ConfigurationError reports an invalid simulation input. It is returned
// before the simulation starts and is fatal to that run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ResourceMisuseError reports a broken acquire/release contract on a Pool,
// such as a release without a matching acquire or a double release. It aborts
// the run rather than letting pool counts drift.
type ResourceMisuseError struct {
	Pool   string
	Reason string
}

func (e *ResourceMisuseError) Error() string {
	return fmt.Sprintf("resource misuse on pool %q: %s", e.Pool, e.Reason)
}
