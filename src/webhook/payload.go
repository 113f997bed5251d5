package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"errorcollector/src/model"
)

// Shape identifies which webhook payload schema a body was sent in.
// Sentry-compatible platforms have shipped (at least) two of them: a legacy
// flat format with top-level exception/message fields, and a newer format
// nesting issue/event data under "data" with an "action" discriminator.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeLegacy
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeNested:
		return "nested"
	default:
		return "unrecognized"
	}
}

// Result is the outcome of normalizing one parsed webhook payload.
// Either Record is set, or Skip is true and SkipReason says why.
type Result struct {
	Shape      Shape
	Skip       bool
	SkipReason string
	Record     *model.ErrorEvent
}

// DetectShape probes the structure of a parsed payload. The shape is decided
// structurally, never from a version flag: an "action" key or a data.issue /
// data.event object means the nested format, top-level exception/message
// means the legacy flat format.
func DetectShape(payload map[string]any) Shape {
	if _, ok := payload["action"]; ok {
		return ShapeNested
	}

	data := getMap(payload, "data")
	if getMap(data, "issue") != nil || getMap(data, "event") != nil {
		return ShapeNested
	}

	if _, ok := payload["exception"]; ok {
		return ShapeLegacy
	}
	if _, ok := payload["message"]; ok {
		return ShapeLegacy
	}

	return ShapeUnrecognized
}

// Normalize maps one parsed webhook payload to a canonical record, or to a
// skip decision for nested-format events whose action is not "created".
// Missing or wrong-typed fields degrade to empty strings; Normalize never
// fails for a payload that parsed as JSON.
//
// The caller owns RawPayload and ReceivedAt on the returned record.
func Normalize(payload map[string]any) Result {
	shape := DetectShape(payload)

	switch shape {
	case ShapeNested:
		if raw, ok := payload["action"]; ok {
			if action, _ := raw.(string); action != "created" {
				return Result{
					Shape:      shape,
					Skip:       true,
					SkipReason: fmt.Sprintf("action %q ignored, only 'created' actions are processed", action),
				}
			}
		}
		return Result{Shape: shape, Record: extractNested(payload)}
	default:
		// Unrecognized payloads go through the legacy extractor too: every
		// field degrades to empty and the raw body is still worth keeping.
		return Result{Shape: shape, Record: extractLegacy(payload)}
	}
}

func extractNested(payload map[string]any) *model.ErrorEvent {
	data := getMap(payload, "data")
	issue := getMap(data, "issue")
	event := getMap(data, "event")

	project := firstNonEmpty(
		getString(getMap(data, "project"), "slug"),
		getString(getMap(issue, "project"), "slug"),
		getString(event, "project"),
	)

	message := firstNonEmpty(
		getString(event, "title"),
		getString(issue, "title"),
		getString(event, "message"),
	)

	var excType, excValue string
	if exceptions := getSlice(event, "exceptions"); len(exceptions) > 0 {
		if first, ok := exceptions[0].(map[string]any); ok {
			excType = getString(first, "type")
			excValue = getString(first, "value")
		}
	}

	stacktrace := RenderFrames(getSlice(getMap(event, "stacktrace"), "frames"))

	return &model.ErrorEvent{
		EventID:        getString(event, "event_id"),
		Project:        project,
		Message:        message,
		ExceptionType:  excType,
		ExceptionValue: excValue,
		Stacktrace:     stacktrace,
		Level:          firstNonEmpty(getString(event, "level"), getString(issue, "level")),
	}
}

func extractLegacy(payload map[string]any) *model.ErrorEvent {
	exception := getMap(payload, "exception")

	return &model.ErrorEvent{
		EventID:        getString(payload, "event_id"),
		Project:        getString(payload, "project"),
		Message:        getString(payload, "message"),
		ExceptionType:  getString(exception, "type"),
		ExceptionValue: getString(exception, "value"),
		Stacktrace:     getString(exception, "stacktrace"),
		Level:          getString(payload, "level"),
	}
}

// RenderFrames flattens a stacktrace frame list to a readable text form,
// one "filename:function:lineno" entry per line.
func RenderFrames(frames []any) string {
	if len(frames) == 0 {
		return ""
	}

	lines := make([]string, 0, len(frames))
	for _, raw := range frames {
		frame, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		lineno := getInt(frame, "lineno")
		if lineno == 0 {
			// GlitchTip API responses camel-case the key.
			lineno = getInt(frame, "lineNo")
		}
		lines = append(lines, fmt.Sprintf("%s:%s:%d",
			getString(frame, "filename"),
			getString(frame, "function"),
			lineno,
		))
	}
	return strings.Join(lines, "\n")
}

// getMap reads a nested object field, returning nil for absent or
// non-object values.
func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

func getSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	s, _ := m[key].([]any)
	return s
}

// getString reads a field as text. Numbers are stringified since some
// payload versions send ids and project references as numbers.
func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func getInt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
