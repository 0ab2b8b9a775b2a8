package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The backend wraps payloads in several ways depending on the endpoint:
//
//	[...]                          bare array
//	{"data": [...]}                resource collection
//	{"data": {"data": [...]}}      paginated collection, possibly nested again
//	{"success": true, "data": ...} status envelope
//	{"schools": [...]}             named collection
//	{"id": 1, ...}                 single object where a list was expected
//
// DecodeList and DecodeObject are the only places that know about these
// shapes.

const maxEnvelopeDepth = 4

// DecodeList extracts the items of a collection response. keys are the
// named collections to look for besides "data". Unknown shapes yield an
// empty list.
func DecodeList(raw json.RawMessage, keys ...string) []json.RawMessage {
	return decodeList(bytes.TrimSpace(raw), keys, 0)
}

func decodeList(raw json.RawMessage, keys []string, depth int) []json.RawMessage {
	if len(raw) == 0 || depth > maxEnvelopeDepth {
		return nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		return items
	case '{':
	default:
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	if data, ok := nonNull(obj, "data"); ok {
		if items := decodeList(data, keys, depth+1); items != nil {
			return items
		}
	}
	for _, k := range keys {
		if v, ok := nonNull(obj, k); ok && v[0] == '[' {
			return decodeList(v, nil, depth+1)
		}
	}
	if _, ok := nonNull(obj, "id"); ok {
		return []json.RawMessage{raw}
	}
	return nil
}

// DecodeObject extracts a single resource from an object response.
func DecodeObject(raw json.RawMessage, keys ...string) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	for depth := 0; depth <= maxEnvelopeDepth; depth++ {
		if len(raw) == 0 || raw[0] != '{' {
			return nil, fmt.Errorf("%w: expected an object", ErrUnexpectedResponse)
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		if _, ok := nonNull(obj, "id"); ok {
			return raw, nil
		}

		next, found := nonNull(obj, "data")
		if !found || next[0] != '{' {
			next, found = nil, false
			for _, k := range keys {
				if v, ok := nonNull(obj, k); ok && v[0] == '{' {
					next, found = v, true
					break
				}
			}
		}
		if !found {
			return raw, nil
		}
		raw = next
	}
	return nil, fmt.Errorf("%w: envelope nested too deep", ErrUnexpectedResponse)
}

// DecodeRoleCatalog splits the {"data": [roles, permissions]} answer of the
// role index. A plain role collection yields no permissions.
func DecodeRoleCatalog(raw json.RawMessage) (roles, permissions []json.RawMessage) {
	raw = bytes.TrimSpace(raw)

	var named struct {
		Roles       []json.RawMessage `json:"roles"`
		Permissions []json.RawMessage `json:"permissions"`
	}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &named); err == nil && named.Roles != nil {
			return named.Roles, named.Permissions
		}
	}

	items := DecodeList(raw, "roles")
	if len(items) == 2 && isArray(items[0]) && isArray(items[1]) {
		return DecodeList(items[0]), DecodeList(items[1])
	}
	if len(items) == 1 && isArray(items[0]) {
		return DecodeList(items[0]), nil
	}
	return items, nil
}

func decodeItems[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	items := DecodeList(raw, keys...)
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne[T any](raw json.RawMessage, keys ...string) (*T, error) {
	obj, err := DecodeObject(raw, keys...)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(obj, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return &v, nil
}

func nonNull(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := obj[key]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
