package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: Count >= 1, Sides >= 2 after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Doubled returns a copy of e with twice the die count. The flat modifier is
// unchanged; critical hits double dice, never modifiers.
//
// Postcondition: result.Count == 2*e.Count, result.Modifier == e.Modifier.
func (e Expression) Doubled() Expression {
	d := e
	d.Count = e.Count * 2
	d.Raw = fmt.Sprintf("%dd%d", d.Count, d.Sides)
	if d.Modifier > 0 {
		d.Raw += fmt.Sprintf("+%d", d.Modifier)
	} else if d.Modifier < 0 {
		d.Raw += strconv.Itoa(d.Modifier)
	}
	return d
}

// WithModifier returns a copy of e with delta added to the flat modifier.
func (e Expression) WithModifier(delta int) Expression {
	d := e
	d.Modifier += delta
	return d
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2"
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	// Parse count (the part before 'd'); defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if count <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
	}

	// Everything after 'd': sides, optionally followed by +N or -N.
	rest := s[dIdx+1:]
	modifier := 0
	modIdx := strings.IndexAny(rest, "+-")
	if modIdx >= 0 {
		modStr := rest[modIdx:]
		rest = rest[:modIdx]
		var err error
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	sides, err := strconv.Atoi(rest)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants
// and statically authored content.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
