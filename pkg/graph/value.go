package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Kind is the kind of an attribute value.
type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindStringList
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindStringList:
		return "string_list"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a typed attribute value. Only the field matching Kind is set.
type Value struct {
	Kind Kind
	str  string
	num  float64
	list []string
	b    bool
}

// Helper functions to create typed values
func StringValue(s string) Value { return Value{Kind: KindString, str: s} }

func NumberValue(f float64) Value { return Value{Kind: KindNumber, num: f} }

func ListValue(items ...string) Value {
	return Value{Kind: KindStringList, list: slices.Clone(items)}
}

func BoolValue(b bool) Value { return Value{Kind: KindBool, b: b} }

// ValueOf converts a decoded codec value into a Value. Integers and floats
// become numbers; []any is accepted when every element is a string.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case float64:
		return NumberValue(x), nil
	case float32:
		return NumberValue(float64(x)), nil
	case int:
		return NumberValue(float64(x)), nil
	case int32:
		return NumberValue(float64(x)), nil
	case int64:
		return NumberValue(float64(x)), nil
	case uint32:
		return NumberValue(float64(x)), nil
	case uint64:
		return NumberValue(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return NumberValue(f), nil
	case []string:
		return ListValue(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return Value{}, fmt.Errorf("%w: list element of type %T", ErrInvalidValue, e)
			}
			items = append(items, s)
		}
		return ListValue(items...), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Kind != KindString {
		return "", fmt.Errorf("value is not a string")
	}
	return v.str, nil
}

func (v Value) AsNumber() (float64, error) {
	if v.Kind != KindNumber {
		return 0, fmt.Errorf("value is not a number")
	}
	return v.num, nil
}

func (v Value) AsList() ([]string, error) {
	if v.Kind != KindStringList {
		return nil, fmt.Errorf("value is not a string list")
	}
	return slices.Clone(v.list), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.b, nil
}

// Strings views strings and string lists uniformly. Other kinds return nil.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindString:
		return []string{v.str}
	case KindStringList:
		return slices.Clone(v.list)
	}
	return nil
}

// Contains reports whether v equals s or is a list holding s.
func (v Value) Contains(s string) bool {
	switch v.Kind {
	case KindString:
		return v.str == s
	case KindStringList:
		return slices.Contains(v.list, s)
	}
	return false
}

// Interface returns the plain Go value for codecs.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumber:
		return v.num
	case KindStringList:
		return slices.Clone(v.list)
	case KindBool:
		return v.b
	default:
		return v.str
	}
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.num == o.num
	case KindStringList:
		return slices.Equal(v.list, o.list)
	case KindBool:
		return v.b == o.b
	default:
		return v.str == o.str
	}
}

// String renders v for tabular output. Lists are joined with "|".
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindStringList:
		return strings.Join(v.list, "|")
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Attributes holds the free-form properties of a node or edge.
type Attributes map[string]Value

// AttributesOf converts a decoded record, skipping nil values.
func AttributesOf(m map[string]any) (Attributes, error) {
	out := make(Attributes, len(m))
	for k, raw := range m {
		if raw == nil {
			continue
		}
		v, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (Value, bool) {
	v, ok := a[key]
	return v, ok
}

// GetString returns the value under key rendered as text.
func (a Attributes) GetString(key string) string {
	if v, ok := a[key]; ok {
		return v.String()
	}
	return ""
}

// Clone returns a copy that shares no list storage with a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if v.Kind == KindStringList {
			v.list = slices.Clone(v.list)
		}
		out[k] = v
	}
	return out
}

// Update copies every entry of other into a, overwriting existing keys.
func (a Attributes) Update(other Attributes) {
	maps.Copy(a, other.Clone())
}

// Keys returns the keys in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap converts to plain Go values for codecs and drivers.
func (a Attributes) ToMap() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Interface()
	}
	return out
}
