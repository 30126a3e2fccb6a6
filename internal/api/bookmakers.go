package api

import "strings"

// Tier classifies a bookmaker's market reputation.
type Tier int

const (
	TierUnknown Tier = iota
	TierSharp
	TierSoft
)

func (t Tier) String() string {
	switch t {
	case TierSharp:
		return "sharp"
	case TierSoft:
		return "soft"
	default:
		return "unknown"
	}
}

var (
	sharpBooks = []string{"pinnacle", "betfair", "circa", "bookmaker"}
	softBooks  = []string{"draftkings", "fanduel", "betmgm", "caesars"}
)

// bookRatings scores bookmaker reliability on a 1-10 scale. Unlisted books get defaultBookRating.
var bookRatings = []struct {
	fragment string
	rating   float64
}{
	{"pinnacle", 10},
	{"betfair", 10},
	{"bet365", 9},
	{"william", 9},
	{"draftkings", 8},
	{"fanduel", 8},
	{"betmgm", 8},
	{"caesars", 8},
	{"unibet", 8},
	{"pointsbet", 7},
	{"barstool", 7},
	{"betrivers", 7},
}

const defaultBookRating = 5.0

// BookTier classifies a bookmaker by key or title. Matching is by substring so
// "betfair_ex_eu" and "Pinnacle Sports" resolve like their base names.
func BookTier(name string) Tier {
	n := strings.ToLower(name)
	for _, s := range sharpBooks {
		if strings.Contains(n, s) {
			return TierSharp
		}
	}
	for _, s := range softBooks {
		if strings.Contains(n, s) {
			return TierSoft
		}
	}
	return TierUnknown
}

// IsSharpBook reports whether a bookmaker is in the sharp tier.
func IsSharpBook(name string) bool {
	return BookTier(name) == TierSharp
}

// BookRating returns the reliability rating for a bookmaker.
func BookRating(name string) float64 {
	n := strings.ToLower(name)
	for _, r := range bookRatings {
		if strings.Contains(n, r.fragment) {
			return r.rating
		}
	}
	return defaultBookRating
}
