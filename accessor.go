package mapx

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// StructTag names the struct tag used to bind struct fields to schema fields.
const StructTag = "mapx"

// AttributeGetter lets a domain object expose its attributes without reflection.
type AttributeGetter interface {
	GetAttribute(name string) (any, bool)
}

// AttributeSetter lets a domain object receive marshaled attributes without reflection.
// Writes are applied after every field succeeded. A setter that fails while
// they are applied may leave earlier attributes written; implement
// AttributeChecker to reject values before any write happens.
type AttributeSetter interface {
	SetAttribute(name string, value any) error
}

// AttributeChecker is an optional AttributeSetter extension. CanSetAttribute
// runs while fields are processed and its error is reported for the field.
type AttributeChecker interface {
	CanSetAttribute(name string, value any) error
}

// TypeOf returns a target constructor allocating a new T.
func TypeOf[T any]() func() any {
	return func() any { return new(T) }
}

// getAttribute reads a named attribute from obj. ok is false when obj has no
// such attribute.
func getAttribute(obj any, name string) (value any, ok bool, err error) {
	switch o := obj.(type) {
	case nil:
		return nil, false, nil
	case AttributeGetter:
		value, ok = o.GetAttribute(name)
		return value, ok, nil
	case map[string]any:
		value, ok = o[name]
		return value, ok, nil
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false, fmt.Errorf("%w: cannot read attribute '%s' from %T", ErrConfiguration, name, obj)
	}

	index, found := lookupStructField(v.Type(), name)
	if !found {
		return nil, false, nil
	}
	fv, ferr := v.FieldByIndexErr(index)
	if ferr != nil {
		// nil embedded pointer
		return nil, false, nil
	}
	return fv.Interface(), true, nil
}

// checkWritable verifies that marshal can write into obj.
func checkWritable(obj any) error {
	switch obj.(type) {
	case AttributeSetter, map[string]any:
		return nil
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: marshal target must be a map, an AttributeSetter or a pointer to a struct, got %T",
			ErrConfiguration, obj)
	}
	return nil
}

// stagedWriter buffers marshaled values and applies them once the whole call
// succeeded, so a failed call leaves the object untouched.
type stagedWriter struct {
	target  any
	pending []func() error
}

func newStagedWriter(target any) *stagedWriter {
	return &stagedWriter{target: target}
}

// Set checks that value can be written to the named attribute and queues the write.
func (w *stagedWriter) Set(name string, value any) error {
	switch t := w.target.(type) {
	case AttributeSetter:
		if c, ok := t.(AttributeChecker); ok {
			if err := c.CanSetAttribute(name, value); err != nil {
				return err
			}
		}
		w.pending = append(w.pending, func() error { return t.SetAttribute(name, value) })
		return nil
	case map[string]any:
		w.pending = append(w.pending, func() error {
			t[name] = value
			return nil
		})
		return nil
	}

	v := reflect.ValueOf(w.target).Elem()
	index, found := lookupStructField(v.Type(), name)
	if !found {
		return fmt.Errorf("%s has no attribute '%s'", v.Type(), name)
	}
	if _, err := fieldForWrite(v, index, false); err != nil {
		return err
	}
	ft := v.Type().FieldByIndex(index).Type
	converted, err := convertValue(value, ft)
	if err != nil {
		return err
	}
	w.pending = append(w.pending, func() error {
		fv, err := fieldForWrite(v, index, true)
		if err != nil {
			return err
		}
		fv.Set(converted)
		return nil
	})
	return nil
}

// Commit applies every queued write in order.
func (w *stagedWriter) Commit() error {
	for _, apply := range w.pending {
		if err := apply(); err != nil {
			return err
		}
	}
	w.pending = nil
	return nil
}

// mapWriter writes straight into a map. It backs the single key carriers of
// collection fields.
type mapWriter map[string]any

func (m mapWriter) Set(name string, value any) error {
	m[name] = value
	return nil
}

// fieldForWrite walks index through embedded structs. Nil embedded pointers
// are allocated when allocate is set and only probed otherwise.
func fieldForWrite(v reflect.Value, index []int, allocate bool) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			switch {
			case !v.IsNil():
				v = v.Elem()
			case !v.CanSet():
				return reflect.Value{}, fmt.Errorf("cannot allocate embedded pointer to unexported struct %s", v.Type().Elem())
			case allocate:
				v.Set(reflect.New(v.Type().Elem()))
				v = v.Elem()
			default:
				v = reflect.New(v.Type().Elem()).Elem()
			}
		}
		v = v.Field(x)
	}
	return v, nil
}

type structInfo struct {
	byTag  map[string][]int
	byName map[string][]int
	folded map[string][]int
}

var structCache sync.Map // map[reflect.Type]*structInfo

func lookupStructField(t reflect.Type, name string) ([]int, bool) {
	info := structInfoFor(t)
	if index, ok := info.byTag[name]; ok {
		return index, true
	}
	if index, ok := info.byName[name]; ok {
		return index, true
	}
	index, ok := info.folded[foldName(name)]
	return index, ok
}

func structInfoFor(t reflect.Type) *structInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}
	info := &structInfo{
		byTag:  make(map[string][]int),
		byName: make(map[string][]int),
		folded: make(map[string][]int),
	}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(StructTag)
		if tag == "-" {
			continue
		}
		if tag != "" {
			info.byTag[tag] = sf.Index
		}
		if _, exists := info.byName[sf.Name]; !exists {
			info.byName[sf.Name] = sf.Index
		}
		if _, exists := info.folded[foldName(sf.Name)]; !exists {
			info.folded[foldName(sf.Name)] = sf.Index
		}
	}
	actual, _ := structCache.LoadOrStore(t, info)
	return actual.(*structInfo)
}

// foldName makes object_type, ObjectType and objectType compare equal.
func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// convertValue adapts a pipeline value to a struct field type.
func convertValue(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	return convertReflect(v, t)
}

func convertReflect(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		v = v.Elem()
	}
	vt := v.Type()
	switch {
	case vt.AssignableTo(t):
		return v, nil
	case t.Kind() == reflect.Pointer && vt.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	case vt.Kind() == reflect.Pointer && vt.Elem().AssignableTo(t):
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		return v.Elem(), nil
	case isNumberKind(vt.Kind()) && isNumberKind(t.Kind()):
		return convertNumber(v, t)
	case vt.Kind() == reflect.String && t.Kind() == reflect.String:
		return v.Convert(t), nil
	case (vt.Kind() == reflect.Slice || vt.Kind() == reflect.Array) && t.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertReflect(v.Index(i), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", vt, t)
}

func convertNumber(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f := toFloat(v)
		if f != float64(int64(f)) {
			return reflect.Value{}, fmt.Errorf("cannot assign %v to %s without losing precision", v.Interface(), t)
		}
		if reflect.Zero(t).OverflowInt(int64(f)) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v.Interface(), t)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := toFloat(v)
		if f < 0 || f != float64(uint64(f)) {
			return reflect.Value{}, fmt.Errorf("cannot assign %v to %s", v.Interface(), t)
		}
		if reflect.Zero(t).OverflowUint(uint64(f)) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v.Interface(), t)
		}
	}
	return v.Convert(t), nil
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return 0
	}
}

// isNil reports nil interfaces and nil pointers, maps and slices.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
