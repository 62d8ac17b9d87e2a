package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nao1215/portalwatch/internal/model"
)

// RecordList unwraps a JSONP body of the form callback({...}) and returns the
// records stored as an array under field.
//
// The callback name must not be the tail of a longer identifier, so "xcb(" does
// not satisfy callback "cb". The payload runs from the opening parenthesis to
// the last closing one and must hold exactly one well-formed object. Each
// record keeps the key order of the upstream JSON object. String values are
// unquoted, null becomes the empty string and other values keep their literal
// JSON text.
//
// Every failure wraps ErrInvalidEnvelope.
func RecordList(callback, body, field string) ([]model.Record, error) {
	payload, err := unwrapCallback(callback, body)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var records []model.Record
	found := false
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != field || found {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
			}
			continue
		}
		if records, err = recordArray(dec, field); err != nil {
			return nil, err
		}
		found = true
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
		}
		return nil, fmt.Errorf("%w: unexpected %v after payload", ErrInvalidEnvelope, tok)
	}
	if !found {
		return nil, fmt.Errorf("%w: field %q not found", ErrInvalidEnvelope, field)
	}
	return records, nil
}

func unwrapCallback(callback, body string) (string, error) {
	call := regexp.MustCompile(`(?:^|[^\w$.])` + regexp.QuoteMeta(callback) + `\s*\(`)
	loc := call.FindStringIndex(body)
	if loc == nil {
		return "", fmt.Errorf("%w: callback %q not found", ErrInvalidEnvelope, callback)
	}
	rest := body[loc[1]:]
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated call to %q", ErrInvalidEnvelope, callback)
	}
	return rest[:end], nil
}

func recordArray(dec *json.Decoder, field string) ([]model.Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: field %q is not an array", ErrInvalidEnvelope, field)
	}

	records := []model.Record{}
	for dec.More() {
		rec, err := record(dec)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return records, nil
}

func record(dec *json.Decoder) (model.Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	rec := model.Record{}
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
		}
		rec = append(rec, model.Field{Name: key, Value: scalarText(raw)})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return rec, nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected token %v", ErrInvalidEnvelope, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of payload", ErrInvalidEnvelope)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidEnvelope, want, tok)
	}
	return nil
}

// scalarText renders a raw JSON value as record text.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return ""
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
	case len(raw) > 0 && (raw[0] == '{' || raw[0] == '['):
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}
