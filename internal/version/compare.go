package version

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var numericPrefix = regexp.MustCompile(`^\d+(\.\d+)*`)

// IsNewer reports whether candidate is a later version than current. Semantic versions
// compare with pre-releases ordering below their release (4.0.0-alpha < 4.0.0-beta.2 <
// 4.0.0-rc.1 < 4.0.0). Versions semver cannot parse, such as four-part WordPress versions,
// compare by their leading dotted numbers. An empty current version is older than anything.
func IsNewer(candidate string, current string) bool {
	candidate = strings.TrimSpace(candidate)
	current = strings.TrimSpace(current)
	if candidate == "" {
		return false
	}
	if current == "" {
		return true
	}
	a, errA := semver.NewVersion(strings.ToLower(candidate))
	b, errB := semver.NewVersion(strings.ToLower(current))
	if errA == nil && errB == nil {
		return a.GreaterThan(b)
	}
	pa := numericPrefix.FindString(strings.TrimPrefix(candidate, "v"))
	pb := numericPrefix.FindString(strings.TrimPrefix(current, "v"))
	if pa == "" || pb == "" {
		return candidate != current
	}
	return compareDotted(pa, pb) > 0
}

// compareDotted compares dotted numeric versions segment by segment; missing segments are zero.
func compareDotted(a string, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}
