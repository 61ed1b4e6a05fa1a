package runlist

import (
	"regexp"

	"bosco/internal/manifest"
)

// MatchMode selects the repositories a resolution starts from: either by tag
// membership or by a name pattern, never both.
type MatchMode struct {
	tag string
	re  *regexp.Regexp
}

// ByTag matches repositories carrying tag.
func ByTag(tag string) MatchMode {
	return MatchMode{tag: tag}
}

// ByRegex matches repositories whose name matches re. A nil re matches everything.
func ByRegex(re *regexp.Regexp) MatchMode {
	return MatchMode{re: re}
}

// MatchAll matches every repository.
func MatchAll() MatchMode {
	return MatchMode{}
}

// Tag returns the tag and whether the mode matches by tag.
func (m MatchMode) Tag() (string, bool) {
	return m.tag, m.tag != ""
}

// needsDescriptor reports whether matching has to look at the descriptor.
func (m MatchMode) needsDescriptor() bool {
	return m.tag != ""
}

func (m MatchMode) matchesName(name string) bool {
	return m.re == nil || m.re.MatchString(name)
}

// Matches applies the mode to a resolved descriptor.
func (m MatchMode) Matches(desc manifest.ServiceDescriptor) bool {
	if tag, ok := m.Tag(); ok {
		return desc.HasTag(tag)
	}
	return m.matchesName(desc.Name)
}

func (m MatchMode) String() string {
	if tag, ok := m.Tag(); ok {
		return "tag " + tag
	}
	if m.re == nil {
		return "all repositories"
	}
	return "pattern " + m.re.String()
}
