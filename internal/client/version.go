package client

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareWebVersions compares two dotted version strings with the given
// operator (">", ">=", "<", "<=", "="). Both operands and the operator are
// validated before any comparison; failures are synchronous.
func CompareWebVersions(lhs, operator, rhs string) (bool, error) {
	switch operator {
	case ">", ">=", "<", "<=", "=":
	default:
		return false, fmt.Errorf("unsupported comparison operator %q", operator)
	}
	l, err := parseVersion(lhs)
	if err != nil {
		return false, err
	}
	r, err := parseVersion(rhs)
	if err != nil {
		return false, err
	}

	cmp := compareParts(l, r)
	switch operator {
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	default:
		return cmp == 0, nil
	}
}

func parseVersion(v string) ([]int, error) {
	if v == "" {
		return nil, fmt.Errorf("empty version operand")
	}
	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("malformed version %q", v)
		}
		parts = append(parts, n)
	}
	return parts, nil
}

func compareParts(l, r []int) int {
	for i := 0; i < len(l) || i < len(r); i++ {
		var lv, rv int
		if i < len(l) {
			lv = l[i]
		}
		if i < len(r) {
			rv = r[i]
		}
		if lv != rv {
			if lv < rv {
				return -1
			}
			return 1
		}
	}
	return 0
}
