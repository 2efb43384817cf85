package bus

import "strings"

// topicMatches reports whether topic (a concrete `/`-separated name) is
// matched by pattern, which may contain two wildcards: `+` matches exactly
// one segment, `#` matches zero or more remaining segments and must be the
// last segment in the pattern (spec.md §4.5 "Topic matching").
func topicMatches(pattern, topic string) bool {
	pSegs := strings.Split(pattern, "/")
	tSegs := strings.Split(topic, "/")

	i := 0
	for i < len(pSegs) {
		seg := pSegs[i]
		if seg == "#" {
			return true
		}
		if i >= len(tSegs) {
			return false
		}
		if seg != "+" && seg != tSegs[i] {
			return false
		}
		i++
	}
	return i == len(tSegs)
}
