// Package validate rejects malformed TallyPrime gateway responses before
// they reach domain parsing. The gateway returns HTML error pages, JSON,
// truncated XML, and embedded error elements depending on its mood and
// version; each failure mode gets a specific, actionable error tag.
package validate

import (
	"fmt"
	"time"
)

// ErrorType tags a validation failure with its detection stage.
type ErrorType string

const (
	// ErrTypeEmptyResponse means the body was empty or whitespace-only.
	ErrTypeEmptyResponse ErrorType = "EMPTY_RESPONSE"

	// ErrTypeInsufficientContent means the body was too short to be a report.
	ErrTypeInsufficientContent ErrorType = "INSUFFICIENT_CONTENT"

	// ErrTypeHTMLResponse means the gateway returned an HTML error page.
	ErrTypeHTMLResponse ErrorType = "HTML_RESPONSE"

	// ErrTypeJSONResponse means the gateway returned JSON instead of XML.
	ErrTypeJSONResponse ErrorType = "JSON_RESPONSE"

	// ErrTypeNonXMLResponse means the body does not start with an XML tag.
	ErrTypeNonXMLResponse ErrorType = "NON_XML_RESPONSE"

	// ErrTypeTruncatedXML means the body has unbalanced angle brackets.
	ErrTypeTruncatedXML ErrorType = "TRUNCATED_XML"

	// ErrTypeEncodingError means the body contains NUL bytes or replacement
	// characters.
	ErrTypeEncodingError ErrorType = "ENCODING_ERROR"

	// ErrTypeParseError means the XML parser rejected the body.
	ErrTypeParseError ErrorType = "PARSE_ERROR"

	// ErrTypeNullRoot means parsing yielded no root element.
	ErrTypeNullRoot ErrorType = "NULL_ROOT"

	// ErrTypeEmptyStructure means the root element carries no content at all.
	ErrTypeEmptyStructure ErrorType = "EMPTY_STRUCTURE"

	// ErrTypeTallyError means the response embeds TallyPrime error elements.
	ErrTypeTallyError ErrorType = "TALLY_ERROR_RESPONSE"

	// ErrTypeAuthError means the gateway reported an authentication failure.
	ErrTypeAuthError ErrorType = "AUTH_ERROR"

	// ErrTypeMissingCompanyData means a company-info response carried no
	// company elements.
	ErrTypeMissingCompanyData ErrorType = "MISSING_COMPANY_DATA"

	// ErrTypeInvalidXMLStart means the cleaned content does not begin with '<'.
	ErrTypeInvalidXMLStart ErrorType = "INVALID_XML_START"

	// ErrTypeEmptyContent means empty input was handed to content cleaning.
	ErrTypeEmptyContent ErrorType = "EMPTY_CONTENT"

	// ErrTypeValidation wraps unexpected failures inside the validator.
	ErrTypeValidation ErrorType = "VALIDATION_ERROR"

	// ErrTypeUnexpected wraps unexpected failures outside the validator.
	ErrTypeUnexpected ErrorType = "UNEXPECTED_ERROR"

	// ErrTypeUnexpectedParse wraps unexpected failures during standalone parsing.
	ErrTypeUnexpectedParse ErrorType = "UNEXPECTED_PARSE_ERROR"
)

// maxSnippetLen bounds the offending-content snippet kept on an Error.
const maxSnippetLen = 1000

// Error is a tagged validation failure. It carries enough detail for a
// diagnostics panel: the tag, a truncated snippet of the offending content,
// the root cause, and when it was detected.
type Error struct {
	Type       ErrorType
	Message    string
	XMLSnippet string
	Cause      error
	Timestamp  time.Time
}

// NewError creates a tagged validation error, truncating the content snippet.
func NewError(errType ErrorType, message, xmlContent string, cause error) *Error {
	snippet := xmlContent
	if len(snippet) > maxSnippetLen {
		snippet = snippet[:maxSnippetLen]
	}
	return &Error{
		Type:       errType,
		Message:    message,
		XMLSnippet: snippet,
		Cause:      cause,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// DebugInfo returns a structured view of the error for diagnostics.
func (e *Error) DebugInfo() DebugInfo {
	var cause string
	if e.Cause != nil {
		cause = e.Cause.Error()
	}
	return DebugInfo{
		ErrorType:  string(e.Type),
		Message:    e.Message,
		Timestamp:  e.Timestamp,
		Cause:      cause,
		XMLSnippet: e.XMLSnippet,
		XMLLength:  len(e.XMLSnippet),
	}
}

// DebugInfo is the serializable form of a validation error.
type DebugInfo struct {
	ErrorType  string    `json:"error_type"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Cause      string    `json:"cause,omitempty"`
	XMLSnippet string    `json:"xml_snippet,omitempty"`
	XMLLength  int       `json:"xml_length"`
}

// category groups error tags for the validator's three failure counters.
type category int

const (
	categoryParse category = iota
	categoryMalformed
	categoryValidation
)

func (t ErrorType) category() category {
	switch t {
	case ErrTypeParseError, ErrTypeUnexpectedParse:
		return categoryParse
	case ErrTypeEmptyResponse, ErrTypeInsufficientContent, ErrTypeHTMLResponse,
		ErrTypeJSONResponse, ErrTypeNonXMLResponse, ErrTypeTruncatedXML,
		ErrTypeEncodingError, ErrTypeInvalidXMLStart, ErrTypeEmptyContent:
		return categoryMalformed
	default:
		return categoryValidation
	}
}
