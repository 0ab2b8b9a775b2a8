package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a backend identifier. The backend sends numbers, but some
// endpoints quote them.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	s := strings.Trim(string(data), `"`)
	if s == "" {
		*id = 0
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid id %s", string(data))
		}
		n = int64(f)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}

// rawFields is a decoded JSON object whose values are resolved lazily,
// trying alternative key names in order.
type rawFields map[string]json.RawMessage

func decodeFields(data []byte) (rawFields, error) {
	var f rawFields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f rawFields) present(key string) (json.RawMessage, bool) {
	v, ok := f[key]
	if !ok {
		return nil, false
	}
	t := bytes.TrimSpace(v)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil, false
	}
	return t, true
}

func (f rawFields) str(keys ...string) string {
	for _, k := range keys {
		v, ok := f.present(k)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		// numbers and booleans are rendered verbatim
		if v[0] != '{' && v[0] != '[' {
			return string(v)
		}
	}
	return ""
}

func (f rawFields) id(keys ...string) ID {
	for _, k := range keys {
		v, ok := f.present(k)
		if !ok {
			continue
		}
		var id ID
		if err := id.UnmarshalJSON(v); err == nil && id != 0 {
			return id
		}
	}
	return 0
}

func (f rawFields) integer(keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := f.present(k)
		if !ok {
			continue
		}
		n, err := parseNumber(v)
		if err == nil {
			return int(n), true
		}
	}
	return 0, false
}

func (f rawFields) number(keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := f.present(k)
		if !ok {
			continue
		}
		n, err := parseNumber(v)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func (f rawFields) object(key string) (rawFields, bool) {
	v, ok := f.present(key)
	if !ok || v[0] != '{' {
		return nil, false
	}
	sub, err := decodeFields(v)
	if err != nil {
		return nil, false
	}
	return sub, true
}

func (f rawFields) list(keys ...string) []json.RawMessage {
	for _, k := range keys {
		v, ok := f.present(k)
		if !ok || v[0] != '[' {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			return items
		}
	}
	return nil
}

func parseNumber(v json.RawMessage) (float64, error) {
	s := strings.Trim(string(v), `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}
