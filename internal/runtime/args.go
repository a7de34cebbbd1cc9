package runtime

import (
	"fmt"

	"github.com/risor-io/risor/object"
)

// fields is a Risor map argument, read key by key. Absent keys read as zero
// values; present keys of the wrong type are errors.
type fields map[string]object.Object

func mapArg(obj object.Object) (fields, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return fields(m.Value()), nil
}

func (m fields) str(key string) (string, error) {
	v, ok := m[key]
	if !ok || v == object.Nil {
		return "", nil
	}
	s, ok := v.(*object.String)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %s", key, v.Type())
	}
	return s.Value(), nil
}

func (m fields) offset(key string) (int, error) {
	v, ok := m[key]
	if !ok || v == object.Nil {
		return 0, nil
	}
	switch n := v.(type) {
	case *object.Int:
		return int(n.Value()), nil
	case *object.Float:
		return int(n.Value()), nil
	}
	return 0, fmt.Errorf("%s: expected int, got %s", key, v.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
