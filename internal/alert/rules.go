// Package alert checks threshold rules against dashboard metrics after each
// refresh tick and hands fired alerts to notifiers.
package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/signalpro/internal/config"
)

var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

// Rule defines an alert rule of the form "metric op value".
type Rule struct {
	Name     string
	Expr     string
	For      time.Duration
	Severity string
	Message  string
}

// RulesFrom converts configured rules, rejecting malformed expressions.
func RulesFrom(cfgs []config.AlertRuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for _, c := range cfgs {
		r := Rule{
			Name:     c.Name,
			Expr:     c.Expr,
			For:      c.For,
			Severity: c.Severity,
			Message:  c.Message,
		}
		if r.Severity == "" {
			r.Severity = "warning"
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Validate checks the expression parses.
func (r *Rule) Validate() error {
	if _, _, _, err := r.parse(); err != nil {
		return fmt.Errorf("alert rule %q: %w", r.Name, err)
	}
	return nil
}

func (r *Rule) parse() (metric, op string, threshold float64, err error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("expression %q is not \"metric op value\"", r.Expr)
	}
	threshold, err = strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("threshold in %q: %w", r.Expr, err)
	}
	return matches[1], matches[2], threshold, nil
}

// Metric returns the metric name the rule reads, or "" if it does not parse.
func (r *Rule) Metric() string {
	metric, _, _, err := r.parse()
	if err != nil {
		return ""
	}
	return metric
}

// Evaluate evaluates the rule expression against metrics. Unknown metrics
// and malformed expressions never trigger.
func (r *Rule) Evaluate(metrics map[string]float64) bool {
	metric, op, threshold, err := r.parse()
	if err != nil {
		return false
	}

	value, exists := metrics[metric]
	if !exists {
		return false
	}

	switch op {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}

// FormatMessage formats the alert message with the observed value.
func (r *Rule) FormatMessage(metrics map[string]float64) string {
	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(r.Severity), r.Name, r.Message)
	if metric := r.Metric(); metric != "" {
		if v, ok := metrics[metric]; ok {
			msg += fmt.Sprintf(" (%s=%g)", metric, v)
		}
	}
	return msg
}
