package domain

import (
	"strings"

	"musafir/internal/domain/models"
)

// NormalizeMembers splits raw member input on whitespace, comma and semicolon,
// lowercases, drops blanks, the registrant's own email and duplicates, and
// caps partner trips at one entry. Solo trips carry no members.
func NormalizeMembers(tripType models.TripType, raw []string, selfEmail string) []string {
	if !tripType.RequiresLinking() {
		return []string{}
	}
	self := strings.ToLower(strings.TrimSpace(selfEmail))
	out := []string{}
	seen := map[string]struct{}{}
	for _, chunk := range raw {
		parts := strings.FieldsFunc(chunk, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
		for _, p := range parts {
			email := strings.ToLower(strings.TrimSpace(p))
			if email == "" || email == self {
				continue
			}
			if _, ok := seen[email]; ok {
				continue
			}
			seen[email] = struct{}{}
			out = append(out, email)
		}
	}
	if tripType == models.TripTypePartner && len(out) > 1 {
		out = out[:1]
	}
	return out
}

// EffectiveGroupSize counts the registrant plus members not in conflict.
func EffectiveGroupSize(members []string, conflicts []models.LinkConflict) int {
	bad := make(map[string]struct{}, len(conflicts))
	for _, c := range conflicts {
		bad[c.Email] = struct{}{}
	}
	n := 1
	for _, m := range members {
		if _, ok := bad[m]; !ok {
			n++
		}
	}
	return n
}
