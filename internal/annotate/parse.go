// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// minWellFormedLines is three keyword lines plus the label line.
const minWellFormedLines = 4

// ParseReply splits a model reply into keywords and a theme label.
//
// A reply of four or more non-blank lines is well formed: the last line is
// the label and the rest are keywords. Shorter replies are salvaged: the last
// line is taken as the label only if it occurs in vocabulary. The label of a
// well-formed reply is not checked against vocabulary.
func ParseReply(reply, vocabulary string) (keywords, label string, outcome types.AnnotationOutcome) {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	switch {
	case len(lines) >= minWellFormedLines:
		last := len(lines) - 1
		return strings.Join(lines[:last], "\n"), lines[last], types.OutcomeSuccess

	case len(lines) > 0:
		last := len(lines) - 1
		if strings.Contains(vocabulary, lines[last]) {
			if last == 0 {
				return KeywordsMalformed, lines[last], types.OutcomeMalformed
			}
			return strings.Join(lines[:last], "\n"), lines[last], types.OutcomeMalformed
		}
		return strings.Join(lines, "\n"), DefaultLabel, types.OutcomeMalformed

	default:
		return KeywordsEmptyReply, DefaultLabel, types.OutcomeMalformed
	}
}
