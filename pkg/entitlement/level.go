package entitlement

import "fmt"

// Level is a hierarchical entitlement tier. Levels are strictly ordered;
// a principal holding level L satisfies any requirement at or below L.
type Level uint8

const (
	None    Level = 0
	Basic   Level = 1
	Premium Level = 2
	VIP     Level = 3
)

// MaxLevel is the highest defined tier.
const MaxLevel = VIP

// Satisfies reports whether the level meets the required tier under integer
// ordering.
func (l Level) Satisfies(required Level) bool {
	return l >= required
}

// Valid reports whether the level is one of the defined tiers.
func (l Level) Valid() bool {
	return l <= MaxLevel
}

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Basic:
		return "basic"
	case Premium:
		return "premium"
	case VIP:
		return "vip"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel maps a tier name or numeric string to its Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "none", "0":
		return None, nil
	case "basic", "1":
		return Basic, nil
	case "premium", "2":
		return Premium, nil
	case "vip", "3":
		return VIP, nil
	}
	return None, fmt.Errorf("unknown entitlement level %q", s)
}
