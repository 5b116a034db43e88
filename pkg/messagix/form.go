package messagix

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// FormKey serializes a field path into the bracket syntax the mercury
// endpoints expect: FormKey("message_batch", 0, "author") is
// "message_batch[0][author]". This is the only place the syntax is defined.
func FormKey(root string, path ...any) string {
	var key strings.Builder
	key.WriteString(root)
	for _, part := range path {
		key.WriteByte('[')
		switch typed := part.(type) {
		case string:
			key.WriteString(typed)
		case int:
			key.WriteString(strconv.Itoa(typed))
		default:
			panic(fmt.Sprintf("messagix: unsupported form key part %T", part))
		}
		key.WriteByte(']')
	}
	return key.String()
}

// Form is an insertion-ordered set of form fields. Setting an existing key
// replaces its value but keeps its position.
type Form struct {
	keys   []string
	values map[string]string
}

func NewForm() *Form {
	return &Form{values: make(map[string]string)}
}

func (f *Form) Set(key, value string) *Form {
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

func (f *Form) SetInt(key string, value int64) *Form {
	return f.Set(key, strconv.FormatInt(value, 10))
}

func (f *Form) SetBool(key string, value bool) *Form {
	return f.Set(key, strconv.FormatBool(value))
}

func (f *Form) Get(key string) string {
	return f.values[key]
}

func (f *Form) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *Form) Keys() []string {
	return slices.Clone(f.keys)
}

// SetStruct merges a struct with url tags into the form. Keys coming from
// the same struct are added in sorted order.
func (f *Form) SetStruct(data any) error {
	values, err := query.Values(data)
	if err != nil {
		return fmt.Errorf("failed to encode %T: %w", data, err)
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		f.Set(key, values.Get(key))
	}
	return nil
}

func (f *Form) Values() url.Values {
	values := make(url.Values, len(f.keys))
	for _, key := range f.keys {
		values.Set(key, f.values[key])
	}
	return values
}

// Encode serializes the form as application/x-www-form-urlencoded in
// insertion order.
func (f *Form) Encode() string {
	var buf strings.Builder
	for i, key := range f.keys {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(f.values[key]))
	}
	return buf.String()
}
