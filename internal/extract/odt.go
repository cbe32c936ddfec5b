package extract

import (
	"regexp"
	"strings"
)

// odtContentPath is the path to the main content inside an .odt zip (OpenDocument Text).
const odtContentPath = "content.xml"

// OpenDocument text elements, with optional attributes.
var (
	odtTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odtTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odtTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
)

// extractODT extracts text from .odt bytes. ODT is a ZIP containing
// content.xml; text is collected from text:p, text:span, and text:h elements.
func extractODT(content []byte) (string, error) {
	contentXML, err := readZipEntry(content, odtContentPath, "ODT")
	if err != nil {
		return "", err
	}
	s := string(contentXML)
	var b strings.Builder
	appendMatches := func(parts [][]string) {
		for _, p := range parts {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(p[1]))
		}
	}
	appendMatches(odtTextP.FindAllStringSubmatch(s, -1))
	appendMatches(odtTextSpan.FindAllStringSubmatch(s, -1))
	appendMatches(odtTextH.FindAllStringSubmatch(s, -1))
	return strings.TrimSpace(b.String()), nil
}
