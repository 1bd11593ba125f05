package controller

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Tharun-raj-u/WebScrapper/models"
)

// User-facing messages for failures that carry no usable text.
const (
	MsgEmptyURL         = "Please enter a URL"
	MsgScrapingFailed   = "Scraping failed"
	MsgTransportDefault = "An error occurred while scraping"
)

// ShapeKind tags which error encoding a payload uses.
type ShapeKind int

const (
	ShapeNone ShapeKind = iota
	ShapeErrorsList
	ShapeErrorsScalar
	ShapeErrorObject
	ShapeErrorScalar
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeErrorsList:
		return "errors-list"
	case ShapeErrorsScalar:
		return "errors-scalar"
	case ShapeErrorObject:
		return "error-object"
	case ShapeErrorScalar:
		return "error-scalar"
	default:
		return "none"
	}
}

// ErrorShape is one classified error encoding together with the message
// it resolves to.
type ErrorShape struct {
	Kind    ShapeKind
	Message string
}

// errorPayload is the subset of a failure body we inspect.
type errorPayload struct {
	Errors json.RawMessage `json:"errors"`
	Error  json.RawMessage `json:"error"`
}

// shapeRule turns a payload into a shape, or reports ok=false to defer to
// the next rule.
type shapeRule func(p errorPayload) (ErrorShape, bool)

// transportRules is the precedence chain for transport failures.
// Order matters: errors beats error.
var transportRules = []shapeRule{
	errorsRule,
	errorRule,
}

// ClassifyTransport resolves a transport failure payload through the
// ordered rules. ShapeNone means no rule produced a message.
func ClassifyTransport(payload json.RawMessage) ErrorShape {
	var p errorPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return ErrorShape{Kind: ShapeNone}
		}
	}
	for _, rule := range transportRules {
		if shape, ok := rule(p); ok {
			return shape
		}
	}
	return ErrorShape{Kind: ShapeNone}
}

// TransportMessage derives the message for a failed transport call.
func TransportMessage(te *models.TransportError) string {
	if te == nil {
		return MsgTransportDefault
	}
	if shape := ClassifyTransport(te.Payload); shape.Kind != ShapeNone {
		return shape.Message
	}
	if d := te.Description(); d != "" {
		return d
	}
	return MsgTransportDefault
}

// BusinessMessage derives the message for a well-formed response whose
// success flag is not true.
func BusinessMessage(env *models.Envelope) string {
	if env == nil {
		return MsgScrapingFailed
	}
	if shape, ok := errorsRule(errorPayload{Errors: env.Errors}); ok {
		return shape.Message
	}
	return MsgScrapingFailed
}

func errorsRule(p errorPayload) (ErrorShape, bool) {
	if !truthy(p.Errors) {
		return ErrorShape{}, false
	}

	var list []json.RawMessage
	if err := json.Unmarshal(p.Errors, &list); err == nil {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = stringify(item)
		}
		msg := strings.Join(parts, ", ")
		return ErrorShape{Kind: ShapeErrorsList, Message: msg}, msg != ""
	}

	msg := stringify(p.Errors)
	return ErrorShape{Kind: ShapeErrorsScalar, Message: msg}, msg != ""
}

func errorRule(p errorPayload) (ErrorShape, bool) {
	if !truthy(p.Error) {
		return ErrorShape{}, false
	}

	raw := bytes.TrimSpace(p.Error)
	switch raw[0] {
	case '{':
		var obj struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && truthy(obj.Message) {
			return ErrorShape{Kind: ShapeErrorObject, Message: stringify(obj.Message)}, true
		}
		return ErrorShape{Kind: ShapeErrorObject, Message: stringify(raw)}, true
	case '[':
		return ErrorShape{Kind: ShapeErrorObject, Message: stringify(raw)}, true
	default:
		msg := stringify(raw)
		return ErrorShape{Kind: ShapeErrorScalar, Message: msg}, msg != ""
	}
}

// truthy reports whether a raw JSON value is present and not one of
// null, false, 0 or "".
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil && f == 0 {
			return false
		}
	}
	return true
}

// stringify renders a JSON value as display text: strings unquoted, null
// as empty, anything else as its compact JSON.
func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}
