// Package phone normalises user-entered phone numbers to E.164.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers without a country code.
const DefaultRegion = "US"

// NormalizeToE164 returns raw in E.164 form, or "" when it is not a valid
// number in region.
func NormalizeToE164(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// NormalizeAll normalises numbers, dropping invalid entries and duplicates
// while keeping first-seen order.
func NormalizeAll(numbers []string, region string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		e := NormalizeToE164(n, region)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
