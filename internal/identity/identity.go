// Package identity reconciles the two identifier spaces of the ERP: the
// navigation id embedded in URLs and the canonical id shown in page content.
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies an entity kind. Each kind carries its own offset between
// the navigation and canonical id spaces.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindCase      Kind = "case"
	KindClient    Kind = "client"
)

// Space names an identifier space for range inputs.
type Space string

const (
	SpaceNavigation Space = "navigation"
	SpaceCanonical  Space = "canonical"
	// SpaceAuto guesses the space per value: anything larger than the kind's
	// offset is taken as canonical, since navigation ids are always smaller.
	SpaceAuto Space = "auto"
)

// VerifyTolerance absorbs the off-by-one inconsistencies observed in the
// origin system.
const VerifyTolerance = 1

// ParseError reports a malformed range token.
type ParseError struct {
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("range parse error at %q: %s", e.Token, e.Message)
}

// Reconciler converts between the id spaces using fixed per-kind offsets.
// Offsets are configuration, not derived at runtime.
type Reconciler struct {
	offsets map[Kind]int64
}

// NewReconciler builds a Reconciler from per-kind offsets such that
// canonical = navigation + offset.
func NewReconciler(candidateOffset, caseOffset, clientOffset int64) *Reconciler {
	return &Reconciler{offsets: map[Kind]int64{
		KindCandidate: candidateOffset,
		KindCase:      caseOffset,
		KindClient:    clientOffset,
	}}
}

// Offset returns the configured offset for a kind.
func (r *Reconciler) Offset(kind Kind) int64 {
	return r.offsets[kind]
}

// ToCanonical maps a navigation id to the canonical space.
func (r *Reconciler) ToCanonical(navigationID int64, kind Kind) int64 {
	return navigationID + r.offsets[kind]
}

// ToNavigation maps a canonical id back to the navigation space.
func (r *Reconciler) ToNavigation(canonicalID int64, kind Kind) int64 {
	return canonicalID - r.offsets[kind]
}

// Verify reports whether an observed canonical id is consistent with a
// navigation id within the accepted tolerance.
func (r *Reconciler) Verify(navigationID, observedCanonicalID int64, kind Kind) bool {
	diff := r.ToCanonical(navigationID, kind) - observedCanonicalID
	if diff < 0 {
		diff = -diff
	}
	return diff <= VerifyTolerance
}

// ExpandRange expands a range string into navigation-space ids, which are the
// only ids resolvable to URLs. Accepted forms: a single id ("65580"), an
// inclusive range with either bound first ("65580-65585", "65585-65580"), or
// a comma-separated list ("65580,65581"). The input space may be navigation,
// canonical, or auto-detected per value. No id in a valid range is ever
// dropped from the result.
func (r *Reconciler) ExpandRange(spec string, kind Kind, space Space) ([]int64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, &ParseError{Token: spec, Message: "empty range"}
	}

	if strings.Contains(spec, ",") {
		var ids []int64
		for _, part := range strings.Split(spec, ",") {
			id, err := r.parseID(strings.TrimSpace(part), kind, space)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	if lo, hi, ok := splitRange(spec); ok {
		start, err := r.parseID(lo, kind, space)
		if err != nil {
			return nil, err
		}
		end, err := r.parseID(hi, kind, space)
		if err != nil {
			return nil, err
		}
		step := int64(1)
		if end < start {
			step = -1
		}
		ids := make([]int64, 0, abs64(end-start)+1)
		for id := start; ; id += step {
			ids = append(ids, id)
			if id == end {
				break
			}
		}
		return ids, nil
	}

	id, err := r.parseID(spec, kind, space)
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

// parseID parses one token and normalizes it to the navigation space.
func (r *Reconciler) parseID(token string, kind Kind, space Space) (int64, error) {
	if token == "" {
		return 0, &ParseError{Token: token, Message: "empty id"}
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, &ParseError{Token: token, Message: "not a numeric id"}
	}
	if n <= 0 {
		return 0, &ParseError{Token: token, Message: "id must be positive"}
	}

	switch space {
	case SpaceNavigation:
		return n, nil
	case SpaceCanonical:
		nav := r.ToNavigation(n, kind)
		if nav <= 0 {
			return 0, &ParseError{Token: token, Message: "canonical id below kind offset"}
		}
		return nav, nil
	case SpaceAuto:
		if off := r.offsets[kind]; off > 0 && n > off {
			return r.ToNavigation(n, kind), nil
		}
		return n, nil
	default:
		return 0, &ParseError{Token: token, Message: fmt.Sprintf("unknown id space %q", space)}
	}
}

// splitRange splits "a-b" into its bounds. Only a single dash between two
// non-empty halves counts; anything else falls through to single-id parsing.
func splitRange(spec string) (string, string, bool) {
	i := strings.Index(spec, "-")
	if i <= 0 || i == len(spec)-1 {
		return "", "", false
	}
	return spec[:i], spec[i+1:], true
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
