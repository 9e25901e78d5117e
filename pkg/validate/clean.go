package validate

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Clean prepares raw gateway content for parsing: strips a leading BOM,
// trims surrounding whitespace, and removes embedded NUL bytes. Replacement
// characters are flagged by validation, not stripped here. The result must
// start with '<'.
func Clean(raw string) (string, error) {
	if raw == "" {
		return "", NewError(ErrTypeEmptyContent, "empty XML data provided for cleaning", raw, nil)
	}

	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "\uFEFF") {
		cleaned = strings.TrimPrefix(cleaned, "\uFEFF")
		log.Debug().Msg("Removed BOM from XML content")
	}
	cleaned = strings.TrimSpace(cleaned)

	if strings.Contains(cleaned, "\x00") {
		log.Warn().Msg("Removing null bytes from XML content")
		cleaned = strings.ReplaceAll(cleaned, "\x00", "")
	}

	if strings.Contains(cleaned, "\uFFFD") {
		log.Warn().Msg("XML content contains encoding errors (replacement characters)")
	}

	if !strings.HasPrefix(cleaned, "<") {
		return "", NewError(ErrTypeInvalidXMLStart,
			"cleaned XML does not start with '<'", cleaned, nil)
	}

	return cleaned, nil
}
