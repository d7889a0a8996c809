package policy

import (
	"fmt"
	"regexp"
)

// TagRule maps a tracker URL pattern to a tag.
type TagRule struct {
	Tag     string
	Pattern string
}

// Tagger assigns tags to torrents based on their tracker URL. Rules are
// evaluated in order; the first match wins.
type Tagger struct {
	rules []compiledRule
}

type compiledRule struct {
	tag string
	re  *regexp.Regexp
}

// NewTagger compiles the given rules. A rule with an empty tag or an
// invalid pattern is an error.
func NewTagger(rules []TagRule) (*Tagger, error) {
	tagger := &Tagger{rules: make([]compiledRule, 0, len(rules))}

	for _, rule := range rules {
		if rule.Tag == "" {
			return nil, fmt.Errorf("tag rule with pattern %q has no tag", rule.Pattern)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for tag %q: %w", rule.Tag, err)
		}
		tagger.rules = append(tagger.rules, compiledRule{tag: rule.Tag, re: re})
	}

	return tagger, nil
}

// TagFor returns the tag for the given tracker URL, or "" when no rule
// matches or the URL is empty.
func (g *Tagger) TagFor(trackerURL string) string {
	if trackerURL == "" {
		return ""
	}
	for _, rule := range g.rules {
		if rule.re.MatchString(trackerURL) {
			return rule.tag
		}
	}
	return ""
}

// Tags returns every tag known to the tagger, in rule order.
func (g *Tagger) Tags() []string {
	tags := make([]string, 0, len(g.rules))
	seen := make(map[string]struct{}, len(g.rules))
	for _, rule := range g.rules {
		if _, ok := seen[rule.tag]; ok {
			continue
		}
		seen[rule.tag] = struct{}{}
		tags = append(tags, rule.tag)
	}
	return tags
}
