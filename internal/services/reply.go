package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// FallbackReply is shown when the workflow answered with nothing usable.
const FallbackReply = "I apologize, but I encountered an error processing your request."

// replyFields are tried in this order. Workflow runners disagree on where
// they put the answer, so the order is part of the public contract.
var replyFields = []string{"response", "output", "message", "content"}

// Payload is an upstream response body whose shape this service does not
// control. Raw is the compacted body, Value the decoded form.
type Payload struct {
	Raw   json.RawMessage
	Value interface{}
}

// NewPayload decodes a JSON body. Numbers stay json.Number so re-encoding is
// lossless.
func NewPayload(raw []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, err
	}

	return &Payload{Raw: compact.Bytes(), Value: value}, nil
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil || len(p.Raw) == 0 {
		return []byte("null"), nil
	}
	return p.Raw, nil
}

// ExtractReply turns a workflow payload into the single string shown in the
// chat. A string payload is used as is. Otherwise the first truthy field of
// response, output, message, content wins, and failing that the whole
// payload is returned as JSON text.
func ExtractReply(p *Payload) string {
	if p == nil || !truthy(p.Value) {
		return FallbackReply
	}

	if s, ok := p.Value.(string); ok {
		return s
	}

	if obj, ok := p.Value.(map[string]interface{}); ok {
		for _, field := range replyFields {
			if v, ok := obj[field]; ok && truthy(v) {
				return display(v)
			}
		}
	}

	return string(p.Raw)
}

func display(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return FallbackReply
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// truthy follows the usual JSON-consumer notion: null, false, 0 and "" are
// empty; objects and arrays always count, even when empty.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
