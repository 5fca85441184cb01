// Package layering composes configuration snapshots ordered from strongest to
// weakest. A stronger layer only overrides what it sets: nil pointers, nil
// maps, nil slices and zero scalars fall through to the weaker layers.
package layering

import (
	"fmt"
	"reflect"
	"strings"
)

// Merge composes snapshots ordered from strongest to weakest. The result
// shares no memory with the inputs, which are never modified.
func Merge[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	target := reflect.TypeOf(&zero).Elem()

	acc := deepCopy(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		acc = overlay(reflect.ValueOf(layers[i]), acc)
	}
	if !acc.IsValid() {
		return zero
	}
	out := reflect.New(target).Elem()
	out.Set(acc.Convert(target))
	return out.Interface().(T)
}

// overlay returns top laid over bottom. bottom may be invalid.
func overlay(top, bottom reflect.Value) reflect.Value {
	if !top.IsValid() {
		return deepCopy(bottom)
	}
	if bottom.IsValid() && bottom.Type() != top.Type() {
		bottom = reflect.Value{}
	}

	switch top.Kind() {
	case reflect.Pointer, reflect.Interface:
		if top.IsNil() {
			return deepCopy(bottom)
		}
		var inner reflect.Value
		if bottom.IsValid() && !bottom.IsNil() {
			inner = bottom.Elem()
		}
		merged := overlay(top.Elem(), inner)
		if top.Kind() == reflect.Interface {
			return merged.Convert(top.Type())
		}
		ptr := reflect.New(top.Type().Elem())
		ptr.Elem().Set(merged)
		return ptr

	case reflect.Struct:
		out := reflect.New(top.Type()).Elem()
		for i := range top.NumField() {
			if !out.Field(i).CanSet() {
				continue
			}
			var under reflect.Value
			if bottom.IsValid() {
				under = bottom.Field(i)
			}
			out.Field(i).Set(overlay(top.Field(i), under))
		}
		return out

	case reflect.Map:
		if top.IsNil() {
			return deepCopy(bottom)
		}
		out := deepCopy(bottom)
		if !out.IsValid() || out.IsNil() {
			out = reflect.MakeMapWithSize(top.Type(), top.Len())
		}
		for iter := top.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), overlay(iter.Value(), out.MapIndex(iter.Key())))
		}
		return out

	case reflect.Slice:
		// slices replace as a whole
		if top.IsNil() {
			return deepCopy(bottom)
		}
		return deepCopy(top)

	case reflect.Array:
		out := reflect.New(top.Type()).Elem()
		for i := range top.Len() {
			var under reflect.Value
			if bottom.IsValid() {
				under = bottom.Index(i)
			}
			out.Index(i).Set(overlay(top.Index(i), under))
		}
		return out

	default:
		if top.IsZero() && bottom.IsValid() {
			return deepCopy(bottom)
		}
		return deepCopy(top)
	}
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		ptr := reflect.New(v.Type().Elem())
		ptr.Elem().Set(deepCopy(v.Elem()))
		return ptr
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		return deepCopy(v.Elem()).Convert(v.Type())
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := range v.NumField() {
			if out.Field(i).CanSet() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		for iter := v.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}

// setPaths calls visit with the dotted path of every value v sets, in the
// sense Merge uses: non-nil slices, non-zero scalars and map entries. Struct
// fields are named after their yaml tag, then json tag, then Go name.
func setPaths(v reflect.Value, prefix string, visit func(path string)) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			setPaths(v.Elem(), prefix, visit)
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			setPaths(v.Field(i), joinPath(prefix, fieldName(field)), visit)
		}
	case reflect.Map:
		for iter := v.MapRange(); iter.Next(); {
			setPaths(iter.Value(), joinPath(prefix, fmt.Sprint(iter.Key().Interface())), visit)
		}
	case reflect.Slice:
		if !v.IsNil() {
			visit(prefix)
		}
	default:
		if !v.IsZero() {
			visit(prefix)
		}
	}
}

func fieldName(field reflect.StructField) string {
	for _, key := range []string{"yaml", "json"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
