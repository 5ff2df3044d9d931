package binding

import (
	"fmt"
	"strings"
)

// Policy decides how a Variable resolves its inference fields: posterior, pi, lambda,
// pi_messages and lambda_messages. cpd, parents and children are cached under every
// policy.
type Policy int

const (
	// PolicyCached reads each field from the remote variable once and keeps it until
	// Refresh.
	PolicyCached Policy = iota

	// PolicyReadThrough reads the remote variable's current value on every access.
	PolicyReadThrough

	// PolicyForceRecompute asks the owning network to recompute the field on every
	// access. Nothing is cached.
	PolicyForceRecompute
)

var policyNames = map[Policy]string{
	PolicyCached:         "cached",
	PolicyReadThrough:    "read-through",
	PolicyForceRecompute: "force-recompute",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name. The empty string is PolicyCached.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cached", "cache":
		return PolicyCached, nil
	case "read-through", "readthrough", "read_through":
		return PolicyReadThrough, nil
	case "force-recompute", "force", "force_recompute", "recompute":
		return PolicyForceRecompute, nil
	}
	return PolicyCached, fmt.Errorf("unknown policy %q (want cached, read-through or force-recompute)", s)
}

// Policies lists every policy in declaration order.
func Policies() []Policy {
	return []Policy{PolicyCached, PolicyReadThrough, PolicyForceRecompute}
}
