package autoresponder

import (
	"slices"
	"sort"
	"strings"
)

// ExclusionSet lists conditions that unconditionally disqualify a message
// from any auto-response. A single match overrides every inclusion rule.
type ExclusionSet struct {
	FromAddresses   []string `yaml:"from_addresses"`
	SubjectContains []string `yaml:"subject_contains"`
	FromDomains     []string `yaml:"from_domain"`
}

// RuleConditions is the condition set of one inclusion rule. All present
// condition kinds must pass; the keyword list inside SubjectContains is
// OR-matched. An empty condition set matches every non-excluded message.
type RuleConditions struct {
	SubjectContains []string `yaml:"subject_contains"`
	FromDomainNot   []string `yaml:"from_domain_not"`
	HasAttachments  *bool    `yaml:"has_attachments"`
}

func (c RuleConditions) empty() bool {
	return len(c.SubjectContains) == 0 &&
		len(c.FromDomainNot) == 0 &&
		c.HasAttachments == nil
}

// Rule selects a response template for matching messages. Lower priority
// values evaluate first.
type Rule struct {
	Name             string         `yaml:"name"`
	Priority         int            `yaml:"priority"`
	Conditions       RuleConditions `yaml:"conditions"`
	ResponseTemplate string         `yaml:"response_template"`
}

// Verdict is the outcome of evaluating one message: either no match, or the
// first matching rule with its response template.
type Verdict struct {
	Matched  bool
	RuleName string
	Template string
}

var noMatch = Verdict{}

// Evaluate decides whether a message gets an auto-response and which
// template governs it. Exclusions are checked first and short-circuit;
// inclusion rules then run in ascending priority order, declaration order
// breaking ties, and the first fully-passing rule wins. Pure function of
// its arguments.
func Evaluate(msg *NormalizedMessage, exclusions ExclusionSet, rules []Rule) Verdict {
	if isExcluded(msg, exclusions) {
		return noMatch
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	for _, rule := range sorted {
		if matchesRule(msg, rule) {
			return Verdict{Matched: true, RuleName: rule.Name, Template: rule.ResponseTemplate}
		}
	}
	return noMatch
}

// isExcluded checks the message against the global exclusion lists. Address
// and subject fragments match case-insensitively as substrings; domains
// match exactly.
func isExcluded(msg *NormalizedMessage, exclusions ExclusionSet) bool {
	from := strings.ToLower(msg.From)
	for _, fragment := range exclusions.FromAddresses {
		if strings.Contains(from, strings.ToLower(fragment)) {
			return true
		}
	}

	subject := strings.ToLower(msg.Subject)
	for _, fragment := range exclusions.SubjectContains {
		if strings.Contains(subject, strings.ToLower(fragment)) {
			return true
		}
	}

	domain := senderDomain(msg.From)
	return domain != "" && slices.Contains(exclusions.FromDomains, domain)
}

func matchesRule(msg *NormalizedMessage, rule Rule) bool {
	c := rule.Conditions
	if c.empty() {
		return true
	}

	if len(c.SubjectContains) > 0 {
		subject := strings.ToLower(msg.Subject)
		matched := false
		for _, keyword := range c.SubjectContains {
			if strings.Contains(subject, strings.ToLower(keyword)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(c.FromDomainNot) > 0 {
		domain := senderDomain(msg.From)
		if domain != "" && slices.Contains(c.FromDomainNot, domain) {
			return false
		}
	}

	if c.HasAttachments != nil && msg.HasAttachments != *c.HasAttachments {
		return false
	}

	return true
}

// senderDomain extracts the domain from a From header value.
//
// Grammar: when the field contains an angle-bracketed address, the candidate
// is the text between the last '<' and the following '>'; otherwise it is the
// whole field. The domain is the text after the last '@' in the candidate,
// trimmed of whitespace and a trailing '>'. Quoted display names may legally
// contain '@', which is why the last occurrence is taken. A field without
// '@' has no domain and yields the empty string.
func senderDomain(from string) string {
	s := from
	if i := strings.LastIndexByte(s, '<'); i >= 0 {
		s = s[i+1:]
		if j := strings.IndexByte(s, '>'); j >= 0 {
			s = s[:j]
		}
	}
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s[at+1:]), ">"))
}
