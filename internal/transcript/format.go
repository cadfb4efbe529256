package transcript

import (
	"fmt"
	"strings"
)

// Text joins the paragraph's words with single spaces.
func (p EnrichedParagraph) Text() string {
	parts := make([]string, len(p.Words))
	for i, w := range p.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// FormatClock renders seconds as m:ss. Negative input renders as 0:00.
func FormatClock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
