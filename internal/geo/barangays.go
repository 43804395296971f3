package geo

import "strings"

// SearchBarangays returns catalogue entries containing q, case-insensitive,
// in catalogue order. An empty query returns the whole catalogue.
func SearchBarangays(q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]string, 0, len(Barangays))
	for _, b := range Barangays {
		if q == "" || strings.Contains(strings.ToLower(b), q) {
			out = append(out, b)
		}
	}
	return out
}

// MatchBarangay maps a geocoder suburb onto the catalogue. An entry matches
// when it contains the suburb, or when the suburb contains the entry's name
// up to any parenthesised alias.
func MatchBarangay(suburb string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(suburb))
	if s == "" {
		return "", false
	}
	for _, b := range Barangays {
		lower := strings.ToLower(b)
		if strings.Contains(lower, s) {
			return b, true
		}
		name := strings.TrimSpace(strings.SplitN(lower, "(", 2)[0])
		if name != "" && strings.Contains(s, name) {
			return b, true
		}
	}
	return "", false
}
