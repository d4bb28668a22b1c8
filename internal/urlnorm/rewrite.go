package urlnorm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds backtracking for user supplied patterns.
const matchTimeout = 2 * time.Second

// Rule is a single pattern/replacement pair. Replacements use $1 or ${name}
// to refer to capture groups. Patterns may use look-around assertions, for
// example `iTunes%20Music/(?!Music/)`.
type Rule struct {
	Pattern     string
	Replacement string
}

type compiledRule struct {
	rule Rule
	re   *regexp2.Regexp
}

// Rewriter applies an ordered list of rules. Each rule replaces at most its
// first match, and each rule sees the output of the previous one.
type Rewriter struct {
	rules []compiledRule
}

// NewRewriter compiles the rules in order. Rules with an empty pattern are
// rejected.
func NewRewriter(rules ...Rule) (*Rewriter, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("rewrite rule %d: pattern must not be empty", i+1)
		}
		re, err := regexp2.Compile(rule.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("rewrite rule %d: compile %q: %w", i+1, rule.Pattern, err)
		}
		re.MatchTimeout = matchTimeout
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}
	return &Rewriter{rules: compiled}, nil
}

// PairRules zips pattern and replacement lists supplied as repeated flags.
func PairRules(patterns, replacements []string) ([]Rule, error) {
	if len(patterns) != len(replacements) {
		return nil, errors.New("each --replace-url needs a matching --replace-with")
	}
	rules := make([]Rule, 0, len(patterns))
	for i := range patterns {
		rules = append(rules, Rule{Pattern: patterns[i], Replacement: replacements[i]})
	}
	return rules, nil
}

// Len reports the number of rules.
func (r *Rewriter) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Alternate returns url with every rule applied once in order. A rule that
// fails to evaluate (for example by timing out) leaves its input unchanged and
// the error is returned alongside the partially rewritten value.
func (r *Rewriter) Alternate(url string) (string, error) {
	if r == nil || len(r.rules) == 0 {
		return url, nil
	}
	current := url
	var errs []error
	for _, c := range r.rules {
		next, err := c.re.Replace(current, c.rule.Replacement, -1, 1)
		if err != nil {
			errs = append(errs, fmt.Errorf("apply %q: %w", c.rule.Pattern, err))
			continue
		}
		current = next
	}
	return current, errors.Join(errs...)
}
