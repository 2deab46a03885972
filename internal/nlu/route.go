package nlu

import (
	"regexp"
	"strings"
)

var routePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+(?:to|till|until)\s+(.+)$`),
	regexp.MustCompile(`(?i)\bmin\s+(.+?)\s+(?:ila|ela)\s+(.+)$`),
	regexp.MustCompile(`(?i)^(.+?)\s+se\s+(.+?)\s+(?:tak|jana|jaana)\b`),
}

// SplitRoute finds "from A to B" style phrasing and returns both ends.
func SplitRoute(text string) (from, to string, ok bool) {
	text = strings.TrimSpace(text)
	for _, re := range routePatterns {
		m := re.FindStringSubmatch(text)
		if len(m) != 3 {
			continue
		}
		from, to = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if from != "" && to != "" {
			return from, to, true
		}
	}
	return "", "", false
}
