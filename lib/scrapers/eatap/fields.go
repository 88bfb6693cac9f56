package eatap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single name/value pair out of a portal form.
type Field struct {
	Name  string
	Value string
}

// FormFields is an ordered name -> value mapping mirroring the controls
// of a portal form. The portal's forms have no contractually stable
// schema, so nothing here assumes a fixed shape; order is preserved
// because the portal's endpoints are sensitive to submission order.
type FormFields struct {
	entries []Field
}

func NewFormFields(entries ...Field) FormFields {
	f := FormFields{}
	for _, e := range entries {
		f.Set(e.Name, e.Value)
	}
	return f
}

// Set updates an existing field in place or appends a new one at the
// end.
func (f *FormFields) Set(name, value string) {
	for i, e := range f.entries {
		if e.Name == name {
			f.entries[i].Value = value
			return
		}
	}
	f.entries = append(f.entries, Field{Name: name, Value: value})
}

func (f FormFields) Get(name string) (string, bool) {
	for _, e := range f.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

func (f FormFields) Len() int {
	return len(f.entries)
}

// Entries returns the fields in insertion order. The returned slice is
// shared, callers must not mutate it.
func (f FormFields) Entries() []Field {
	return f.entries
}

// MarshalJSON renders an object with keys in insertion order.
func (f FormFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a flat JSON object and keeps the key order it
// appeared in. Scalar values are coerced to strings since the portal
// only ever deals in form-encoded text.
func (f *FormFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("form fields must be a JSON object")
	}

	f.entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in form fields", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case string:
			f.entries = append(f.entries, Field{Name: key, Value: v})
		case json.Number:
			f.entries = append(f.entries, Field{Name: key, Value: v.String()})
		case bool:
			f.entries = append(f.entries, Field{Name: key, Value: fmt.Sprintf("%t", v)})
		case nil:
			f.entries = append(f.entries, Field{Name: key, Value: ""})
		default:
			return fmt.Errorf("form field %q must be a scalar value", key)
		}
	}

	// consume the closing brace
	_, err = dec.Token()
	return err
}
