package populate

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

type token struct {
	op   byte
	name string
}

func tokenize(formula string) ([]token, error) {
	var out []token
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, token{name: cur.String()})
			cur.Reset()
		}
	}
	for _, r := range formula {
		switch {
		case r == '+' || r == '-' || r == '/':
			flush()
			out = append(out, token{op: byte(r)})
		case unicode.IsSpace(r):
			flush()
		case r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			return nil, eris.Errorf("populate: unexpected %q in formula %q", r, formula)
		}
	}
	flush()
	return out, nil
}

// Evaluate computes a formula of component ids joined by "+", "-" and
// "/", left to right. A leading "-" negates the first operand. A missing
// operand or a division by zero yields nil without error; a malformed
// formula is an error.
func Evaluate(formula string, values map[string]*float64) (*float64, error) {
	toks, err := tokenize(formula)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, eris.New("populate: empty formula")
	}

	negate := false
	if toks[0].op != 0 {
		if toks[0].op != '-' && toks[0].op != '+' {
			return nil, eris.Errorf("populate: formula %q starts with %q", formula, toks[0].op)
		}
		negate = toks[0].op == '-'
		toks = toks[1:]
	}
	if len(toks) == 0 || toks[0].op != 0 {
		return nil, eris.Errorf("populate: formula %q has no leading operand", formula)
	}
	if len(toks)%2 == 0 {
		return nil, eris.Errorf("populate: formula %q ends with an operator", formula)
	}
	for i, t := range toks {
		if (i%2 == 0) != (t.op == 0) {
			return nil, eris.Errorf("populate: formula %q is not operand-operator alternating", formula)
		}
	}

	operand := func(name string) *float64 {
		if v, ok := values[name]; ok && v != nil {
			return v
		}
		if f, err := strconv.ParseFloat(name, 64); err == nil {
			return &f
		}
		return nil
	}

	first := operand(toks[0].name)
	if first == nil {
		return nil, nil
	}
	acc := *first
	if negate {
		acc = -acc
	}
	for i := 1; i < len(toks); i += 2 {
		v := operand(toks[i+1].name)
		if v == nil {
			return nil, nil
		}
		switch toks[i].op {
		case '+':
			acc += *v
		case '-':
			acc -= *v
		case '/':
			if *v == 0 {
				return nil, nil
			}
			acc /= *v
		}
	}
	return model.Float(acc), nil
}

// References lists the component ids a formula reads.
func References(formula string) []string {
	toks, err := tokenize(formula)
	if err != nil {
		return nil
	}
	var out []string
	for _, t := range toks {
		if t.op != 0 {
			continue
		}
		if _, err := strconv.ParseFloat(t.name, 64); err == nil {
			continue
		}
		out = append(out, t.name)
	}
	return out
}
