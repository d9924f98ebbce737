package value

import (
	"cmp"
	"reflect"
	"slices"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// FromGo converts a Go value into a Value.
//
// Conversion rules:
//   - integer and float kinds become numbers
//   - string and []byte become text
//   - slices and arrays become composites with positional keys 1..n
//   - orderedmap.OrderedMap[string, any] keeps its insertion order
//   - maps with string or numeric keys are sorted by key, since Go maps have
//     no native order
//   - structs become composites of exported fields in declaration order,
//     named by their json tag when present
//   - Value, Composite and *Table pass through unchanged
//
// Anything else (bool, nil, funcs, channels, cycles) becomes Unsupported.
func FromGo(v any) Value {
	c := goConverter{visited: make(map[uintptr]bool)}
	return c.convert(v)
}

type goConverter struct {
	visited map[uintptr]bool
}

func (c *goConverter) convert(v any) Value {
	switch val := v.(type) {
	case nil:
		return Unsupported("nil")
	case Value:
		return val
	case *Table:
		return Of(val)
	case Composite:
		return Of(val)
	case string:
		return Text(val)
	case []byte:
		return Text(string(val))
	case float64:
		return Number(val)
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case bool:
		return Unsupported("bool")
	case []any:
		return c.sliceToTable(reflect.ValueOf(val))
	case map[string]any:
		return c.mapToTable(reflect.ValueOf(val))
	case *orderedmap.OrderedMap[string, any]:
		return c.orderedToTable(val)
	default:
		return c.reflectToValue(reflect.ValueOf(v))
	}
}

func (c *goConverter) reflectToValue(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Unsupported("nil")
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.String:
		return Text(rv.String())

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Unsupported("nil")
		}
		if rv.Kind() == reflect.Ptr {
			if c.visited[rv.Pointer()] {
				return Unsupported("cycle")
			}
			c.visited[rv.Pointer()] = true
			defer delete(c.visited, rv.Pointer())
		}
		return c.convert(rv.Elem().Interface())

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Text(string(rv.Bytes()))
		}
		return c.sliceToTable(rv)

	case reflect.Array:
		return c.sliceToTable(rv)

	case reflect.Map:
		return c.mapToTable(rv)

	case reflect.Struct:
		return c.structToTable(rv)

	default:
		return Unsupported(rv.Kind().String())
	}
}

func (c *goConverter) sliceToTable(rv reflect.Value) Value {
	if rv.Kind() == reflect.Slice {
		if rv.IsNil() {
			return Unsupported("nil")
		}
		if rv.Len() > 0 {
			p := rv.Pointer()
			if c.visited[p] {
				return Unsupported("cycle")
			}
			c.visited[p] = true
			defer delete(c.visited, p)
		}
	}

	t := NewTable()
	for i := 0; i < rv.Len(); i++ {
		t.Append(c.convert(rv.Index(i).Interface()))
	}
	return Of(t)
}

func (c *goConverter) mapToTable(rv reflect.Value) Value {
	if rv.IsNil() {
		return Unsupported("nil")
	}
	p := rv.Pointer()
	if c.visited[p] {
		return Unsupported("cycle")
	}
	c.visited[p] = true
	defer delete(c.visited, p)

	type kv struct {
		key Key
		val reflect.Value
	}
	entries := make([]kv, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, kv{key: goKey(iter.Key()), val: iter.Value()})
	}

	// Numbers first, then text, then invalid keys; each group ascending.
	slices.SortFunc(entries, func(a, b kv) int {
		if a.key.Kind() != b.key.Kind() {
			return cmp.Compare(keyRank(a.key), keyRank(b.key))
		}
		if an, ok := a.key.Number(); ok {
			bn, _ := b.key.Number()
			return cmp.Compare(an, bn)
		}
		return strings.Compare(a.key.text, b.key.text)
	})

	t := NewTable()
	for _, e := range entries {
		t.Set(e.key, c.convert(e.val.Interface()))
	}
	return Of(t)
}

func keyRank(k Key) int {
	switch k.Kind() {
	case KeyNumeric:
		return 0
	case KeyText:
		return 1
	default:
		return 2
	}
}

func goKey(rv reflect.Value) Key {
	switch rv.Kind() {
	case reflect.String:
		return TextKey(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumericKey(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumericKey(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NumericKey(rv.Float())
	case reflect.Interface:
		if rv.IsNil() {
			return InvalidKey("nil")
		}
		return goKey(rv.Elem())
	default:
		return InvalidKey(rv.Kind().String())
	}
}

func (c *goConverter) orderedToTable(m *orderedmap.OrderedMap[string, any]) Value {
	if m == nil {
		return Unsupported("nil")
	}
	t := NewTable()
	for el := m.Front(); el != nil; el = el.Next() {
		t.SetText(el.Key, c.convert(el.Value))
	}
	return Of(t)
}

func (c *goConverter) structToTable(rv reflect.Value) Value {
	t := NewTable()
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if tag == "-" {
				continue
			}
			if j := strings.IndexByte(tag, ','); j >= 0 {
				tag = tag[:j]
			}
			if tag != "" {
				name = tag
			}
		}

		t.SetText(name, c.convert(rv.Field(i).Interface()))
	}

	return Of(t)
}
