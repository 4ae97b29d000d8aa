package trainer

import (
	"fmt"
	"strings"
)

var rules = map[string]func() Rule{
	"perceptron":          func() Rule { return NewPerceptron() },
	"adaline":             func() Rule { return NewAdaline() },
	"backpropagation":     func() Rule { return NewBackprop() },
	"levenberg-marquardt": func() Rule { return NewLevenbergMarquardt() },
	"winner-takes-all":    func() Rule { return NewWTA() },
	"kohonen":             func() Rule { return NewKohonen() },
}

var aliases = map[string]string{
	"lms":       "adaline",
	"backprop":  "backpropagation",
	"lm":        "levenberg-marquardt",
	"levenberg": "levenberg-marquardt",
	"wta":       "winner-takes-all",
	"som":       "kohonen",
}

// ParseRule returns a fresh rule by name or alias.
func ParseRule(name string) (Rule, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[key]; ok {
		key = a
	}
	f, ok := rules[key]
	if !ok {
		return nil, fmt.Errorf("unknown trainer %q", name)
	}
	return f(), nil
}
