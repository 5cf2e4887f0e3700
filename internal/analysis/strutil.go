package analysis

import (
	"net/mail"
	"net/url"
	"strings"
)

// hostOf returns the lowercase host of a URL, or "" when it cannot be parsed
func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// extractDomain returns the lowercase domain of an email address
func extractDomain(address string) string {
	parts := strings.Split(address, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}

// parseSender splits a raw From value into display name and address.
// Handles both `"Display Name" <addr>` and bare-address forms.
func parseSender(from string) (displayName, address string) {
	addr, err := mail.ParseAddress(strings.TrimSpace(from))
	if err == nil {
		return addr.Name, strings.ToLower(addr.Address)
	}
	// Fall back to a manual split for sloppy values like `Name <addr`
	if open := strings.LastIndex(from, "<"); open >= 0 {
		name := strings.Trim(strings.TrimSpace(from[:open]), `"`)
		rest := strings.Trim(from[open+1:], "<> \t")
		if strings.Contains(rest, "@") {
			return name, strings.ToLower(rest)
		}
	}
	if strings.Contains(from, "@") {
		return "", strings.ToLower(strings.TrimSpace(from))
	}
	return "", ""
}

// damerauLevenshtein computes the edit distance between two strings,
// counting adjacent transpositions as a single edit. Transpositions matter
// for lookalike domains: "microsfot.com" is one edit from "microsoft.com"
// here, but two under plain Levenshtein.
func damerauLevenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	d := make([][]int, len(s1)+1)
	for i := range d {
		d[i] = make([]int, len(s2)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			d[i][j] = minInt(
				d[i-1][j]+1,
				d[i][j-1]+1,
				d[i-1][j-1]+cost,
			)
			if i > 1 && j > 1 && s1[i-1] == s2[j-2] && s1[i-2] == s2[j-1] {
				if t := d[i-2][j-2] + 1; t < d[i][j] {
					d[i][j] = t
				}
			}
		}
	}
	return d[len(s1)][len(s2)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
