package postprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sygic-travel/tkdocs/internal/config"
	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

// VersionPlaceholder in a configured replacement expands to the resolved module version.
const VersionPlaceholder = "{{version}}"

// Rule is one substitution. Replace returns a regexp template; $1 / ${1} refer to the
// pattern's capture groups.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace func(projectversion.Version) string
}

var groupRef = regexp.MustCompile(`\$\{?[0-9A-Za-z_]+\}?`)

// NewRule builds a rule and rejects replacements that would be matched again by their own
// pattern, which keeps re-running over an already processed tree a no-op.
func NewRule(name, pattern string, replace func(projectversion.Version) string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, errors.WrapError(err, errors.CategoryConfig, "compile substitution pattern").
			Fatal().WithContext("rule", name).Build()
	}
	r := Rule{Name: name, Pattern: re, Replace: replace}
	for _, sample := range []projectversion.Version{"1.2.3", projectversion.Fallback} {
		literal := groupRef.ReplaceAllString(replace(sample), "")
		literal = strings.ReplaceAll(literal, "$$", "$")
		if re.MatchString(literal) {
			return Rule{}, errors.ConfigError(fmt.Sprintf("substitution %q re-matches its own replacement", name)).
				WithContext("pattern", pattern).Build()
		}
	}
	return r, nil
}

// Constant returns a replacement producer ignoring the version.
func Constant(template string) func(projectversion.Version) string {
	return func(projectversion.Version) string { return template }
}

// Apply rewrites content and reports the number of matches.
func (r Rule) Apply(content []byte, v projectversion.Version) ([]byte, int) {
	n := len(r.Pattern.FindAllIndex(content, -1))
	if n == 0 {
		return content, 0
	}
	return r.Pattern.ReplaceAll(content, []byte(r.Replace(v))), n
}

// Branding holds the tokens and names used by the built-in rules.
type Branding struct {
	TitleToken         string
	Title              string
	ProductName        string
	BrandedProductName string
	VersionToken       string
}

// DefaultRules returns the built-in rules in their fixed order: title placeholder,
// product name rebranding, version placeholder.
func DefaultRules(b Branding) ([]Rule, error) {
	var rules []Rule

	title, err := NewRule("title",
		regexp.QuoteMeta(b.TitleToken)+`(\s+(?:Docs|Reference))?`,
		Constant(escapeTemplate(b.Title)+"${1}"))
	if err != nil {
		return nil, err
	}
	rules = append(rules, title)

	if b.ProductName != "" && b.BrandedProductName != "" {
		product, err := NewRule("product",
			regexp.QuoteMeta(b.ProductName)+`\s+(Docs|Reference)`,
			Constant(escapeTemplate(b.BrandedProductName)+" ${1}"))
		if err != nil {
			return nil, err
		}
		rules = append(rules, product)
	}

	version, err := NewRule("version",
		regexp.QuoteMeta(b.VersionToken),
		func(v projectversion.Version) string { return escapeTemplate(v.String()) })
	if err != nil {
		return nil, err
	}
	return append(rules, version), nil
}

// RulesFromConfig returns the built-in rules followed by the configured extra rules.
func RulesFromConfig(pp config.PostProcessConfig) ([]Rule, error) {
	rules, err := DefaultRules(Branding{
		TitleToken:         pp.TitleToken,
		Title:              pp.Title,
		ProductName:        pp.ProductName,
		BrandedProductName: pp.BrandedProductName,
		VersionToken:       pp.VersionToken,
	})
	if err != nil {
		return nil, err
	}
	for i, rc := range pp.Rules {
		name := rc.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		replacement := rc.Replacement
		rule, err := NewRule(name, rc.Pattern, func(v projectversion.Version) string {
			return strings.ReplaceAll(replacement, VersionPlaceholder, escapeTemplate(v.String()))
		})
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func escapeTemplate(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
