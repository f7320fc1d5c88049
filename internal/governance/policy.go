// Package governance decides whether a planned step may run.
package governance

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/rahul/opsagent/pkg/config"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes one planned capability call.
type Request struct {
	Action     string
	Parameters map[string]any
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

func (r Result) Allowed() bool { return r.Effect == EffectAllow }

// PolicyEngine evaluates planned steps against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

type argumentRule struct {
	action string // empty matches every action
	re     *regexp.Regexp
}

// DefaultPolicyEngine denies whole actions, or string parameters matching a
// pattern. Configure it before use; it is safe for concurrent Evaluate calls.
type DefaultPolicyEngine struct {
	deniedActions map[string]bool
	rules         []argumentRule
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{deniedActions: make(map[string]bool)}
}

// PrivateHostPattern matches URLs whose literal host is loopback,
// unspecified, link-local, RFC 1918, unique-local or IPv4-mapped IPv6. It is
// a cheap first filter; web_page also checks resolved addresses when dialing.
const PrivateHostPattern = `(?i)^\s*https?://([^/@]*@)?(localhost|127\.|0\.|10\.|192\.168\.|169\.254\.|172\.(1[6-9]|2[0-9]|3[01])\.|\[::1?\]|\[::ffff:|\[0*:|\[f[cd]|\[fe[89ab])`

func (e *DefaultPolicyEngine) DenyAction(name string) {
	e.deniedActions[name] = true
}

// DenyArguments rejects steps of action whose string parameters match
// pattern. An empty action applies the rule to every action.
func (e *DefaultPolicyEngine) DenyArguments(action, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("policy pattern %q: %w", pattern, err)
	}
	e.rules = append(e.rules, argumentRule{action: action, re: re})
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if e.deniedActions[req.Action] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("action %s is disabled by policy", req.Action),
		}, nil
	}

	keys := make([]string, 0, len(req.Parameters))
	for k := range req.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rule := range e.rules {
		if rule.action != "" && rule.action != req.Action {
			continue
		}
		for _, k := range keys {
			s, ok := req.Parameters[k].(string)
			if ok && rule.re.MatchString(s) {
				return Result{
					Effect: EffectDeny,
					Reason: fmt.Sprintf("parameter %s matches restricted pattern %s", k, rule.re),
				}, nil
			}
		}
	}

	return Result{Effect: EffectAllow}, nil
}

// FromConfig builds the engine described by cfg. Unless AllowPrivateHosts
// is set, web_page may not fetch private network URLs.
func FromConfig(cfg config.PolicyConfig) (*DefaultPolicyEngine, error) {
	e := NewDefaultPolicyEngine()
	for _, a := range cfg.DeniedActions {
		e.DenyAction(a)
	}
	if !cfg.AllowPrivateHosts {
		if err := e.DenyArguments("web_page", PrivateHostPattern); err != nil {
			return nil, err
		}
	}
	for _, r := range cfg.DeniedArguments {
		if err := e.DenyArguments(r.Action, r.Pattern); err != nil {
			return nil, err
		}
	}
	return e, nil
}
