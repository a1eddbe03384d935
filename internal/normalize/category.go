package normalize

import (
	"regexp"
	"strings"
)

// Category is a user-facing category label and its slug
type Category struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// Categories lists the labels offered to users, in display order
var Categories = []Category{
	{"Construction & Civil", "construction-civil"},
	{"Distribution", "distribution"},
	{"Generation", "generation"},
	{"Corporate", "corporate"},
	{"Engineering", "engineering"},
	{"IT & Software", "it-software"},
	{"Security", "security"},
	{"Cleaning & Hygiene", "cleaning-hygiene"},
	{"Medical & Healthcare", "medical-healthcare"},
	{"Consulting & Training", "consulting-training"},
	{"Transport & Fleet", "transport-fleet"},
	{"Facilities & Maintenance", "facilities-maintenance"},
	{"Electrical & Energy", "electrical-energy"},
}

// Rules run against Norm output, first match wins. Short tokens are
// anchored on word boundaries so "security" does not hit "it".
var categoryRules = []struct {
	re   *regexp.Regexp
	slug string
}{
	{regexp.MustCompile(`construction|civil|building`), "construction-civil"},
	{regexp.MustCompile(`distribution`), "distribution"},
	{regexp.MustCompile(`generation`), "generation"},
	{regexp.MustCompile(`corporate|\badmin`), "corporate"},
	{regexp.MustCompile(`engineering`), "engineering"},
	{regexp.MustCompile(`\b(it|ict)\b|software|\btech`), "it-software"},
	{regexp.MustCompile(`security`), "security"},
	{regexp.MustCompile(`clean|hygiene|janitorial`), "cleaning-hygiene"},
	{regexp.MustCompile(`medical|health|hospital`), "medical-healthcare"},
	{regexp.MustCompile(`consult|training|advisory`), "consulting-training"},
	{regexp.MustCompile(`transport|fleet|vehicle`), "transport-fleet"},
	{regexp.MustCompile(`facilit|maint|upkeep`), "facilities-maintenance"},
	{regexp.MustCompile(`electrical|energy|power`), "electrical-energy"},
}

// CategorySlug reduces free-text category labels to a stable slug. Text no
// rule recognises becomes its own hyphenated cleaned form.
func CategorySlug(s string) string {
	n := Norm(s)
	if n == "" {
		return ""
	}
	for _, rule := range categoryRules {
		if rule.re.MatchString(n) {
			return rule.slug
		}
	}
	return strings.ReplaceAll(n, " ", "-")
}

// PrettyCategory capitalises a meaningful category, or returns ""
func PrettyCategory(s string) string {
	if !IsMeaningful(s) {
		return ""
	}
	return capitalize(strings.ToLower(strings.TrimSpace(s)))
}
