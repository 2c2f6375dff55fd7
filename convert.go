package xref

import (
	"encoding"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// Preprocessor is implemented by target types that rewrite their raw object
// before its fields are converted. The type's layer is active.
type Preprocessor interface {
	Preprocess(c *Context, raw map[string]any) (map[string]any, error)
}

// Postprocessor is implemented by target types that finish their own
// conversion once every field is set. The type's layer is still active.
type Postprocessor interface {
	Postprocess(c *Context) error
}

// Validator is implemented by target types that check their converted value.
type Validator interface {
	Validate() error
}

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Convert converts raw into a new T. See ConvertInto.
func Convert[T any](c *Context, raw any) (T, error) {
	var out T
	if err := c.ConvertInto(raw, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// ConvertInto converts the raw tree into target, which must be a non-nil
// pointer. raw is the generic decoded form of a document: map[string]any,
// []any and scalars.
//
// Every struct value is converted inside its own layer and every handle field
// inside a layer of the handle type, so declarations, references and imports
// follow the nesting of the document. Fields are converted in declaration
// order and map entries in sorted key order; references must come after the
// declarations they name.
func (c *Context) ConvertInto(raw any, target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &ConversionError{Err: fmt.Errorf("%w: target must be a non-nil pointer, got %T", ErrInvalidRaw, target)}
	}
	c.kinds.walk(rv.Elem().Type())
	return wrapConversionError("", c.convert(rv.Elem(), raw, fieldOptions{}, ""))
}

func (c *Context) convert(v reflect.Value, raw any, opts fieldOptions, path string) error {
	t := v.Type()
	if opts.preserve {
		return wrapConversionError(path, assignRaw(v, raw))
	}
	if reflect.PointerTo(t).Implements(identifierFieldType) {
		return c.convertIdentifier(v.Addr().Interface().(identifierField), t, raw, opts, path)
	}

	switch t.Kind() {
	case reflect.Pointer:
		if raw == nil {
			v.SetZero()
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := c.convert(elem.Elem(), raw, opts, path); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Interface:
		return wrapConversionError(path, assignRaw(v, raw))
	}

	if raw != nil && t == timeType {
		if value, ok := raw.(time.Time); ok {
			v.Set(reflect.ValueOf(value))
			return nil
		}
	}
	if t == durationType {
		return wrapConversionError(path, setDuration(v, raw))
	}
	if text, ok := raw.(string); ok && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return wrapConversionError(path, fmt.Errorf("%w: %w", ErrInvalidRaw, err))
		}
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		return c.convertStruct(v, raw, path)
	case reflect.Slice, reflect.Array:
		return c.convertList(v, raw, opts, path)
	case reflect.Map:
		return c.convertMap(v, raw, opts, path)
	default:
		return wrapConversionError(path, setScalar(v, raw))
	}
}

func (c *Context) convertIdentifier(field identifierField, t reflect.Type, raw any, opts fieldOptions, path string) error {
	name, ok := raw.(string)
	if !ok {
		return wrapConversionError(path, fmt.Errorf("%w: identifier of %s must be a string, got %T", ErrInvalidRaw, KindName(field.identifierKind()), raw))
	}
	imports, err := c.kinds.lookupAll(opts.imports)
	if err != nil {
		return wrapConversionError(path, err)
	}

	scope := c.Push(t)
	defer c.Pop(scope)
	if opts.declare {
		err = field.declareFrom(c, name, opts.track)
	} else {
		err = field.resolveFrom(c, name, imports)
	}
	return wrapConversionError(path, err)
}

func (c *Context) convertStruct(v reflect.Value, raw any, path string) error {
	t := v.Type()
	var fields map[string]any
	switch typed := raw.(type) {
	case nil:
		fields = map[string]any{}
	case map[string]any:
		fields = typed
	default:
		return wrapConversionError(path, fmt.Errorf("%w: expected object for %s, got %T", ErrInvalidRaw, KindName(t), raw))
	}
	plan, err := planFor(t, c.cfg.tagName)
	if err != nil {
		return wrapConversionError(path, err)
	}

	scope := c.Push(t)
	defer c.Pop(scope)

	target := v.Addr().Interface()
	if pre, ok := target.(Preprocessor); ok {
		if fields, err = pre.Preprocess(c, maps.Clone(fields)); err != nil {
			return wrapConversionError(path, err)
		}
	}
	if c.cfg.disallowUnknown {
		for _, key := range slices.Sorted(maps.Keys(fields)) {
			if _, ok := plan.known[key]; !ok {
				return wrapConversionError(childPath(path, key), ErrUnknownField)
			}
		}
	}

	var names []fieldPlan
	for _, field := range plan.fields {
		if field.isName {
			names = append(names, field)
			continue
		}
		if err := c.convertField(v, t, fields, field, childPath(path, field.name)); err != nil {
			return err
		}
	}
	// Names are filled once the declaring field of this object has run.
	for _, field := range names {
		holder := v.FieldByIndex(field.index).Addr().Interface().(nameField)
		if err := holder.fillFrom(c); err != nil {
			return wrapConversionError(childPath(path, field.name), err)
		}
	}

	if post, ok := target.(Postprocessor); ok {
		if err := post.Postprocess(c); err != nil {
			return wrapConversionError(path, err)
		}
	}
	if validator, ok := target.(Validator); ok {
		if err := validator.Validate(); err != nil {
			return wrapConversionError(path, err)
		}
	}
	return nil
}

func (c *Context) convertField(v reflect.Value, t reflect.Type, fields map[string]any, field fieldPlan, path string) error {
	value, present := fields[field.name]
	if field.expr != "" {
		var input any
		if present {
			input = value
		}
		evaluated, err := c.Evaluate(EvalContext{Raw: fields, Value: input, Path: path, Kind: KindName(t)}, field.expr)
		if err != nil {
			return wrapConversionError(path, err)
		}
		value, present = evaluated, evaluated != nil
	}
	if !present {
		if field.required {
			return wrapConversionError(path, fmt.Errorf("%w %q", ErrMissingField, field.name))
		}
		return nil
	}
	return c.convert(v.FieldByIndex(field.index), value, field.opts, path)
}

func (c *Context) convertList(v reflect.Value, raw any, opts fieldOptions, path string) error {
	t := v.Type()
	if raw == nil {
		v.SetZero()
		return nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return wrapConversionError(path, fmt.Errorf("%w: expected list, got %T", ErrInvalidRaw, raw))
	}
	out := v
	if t.Kind() == reflect.Array {
		if rv.Len() != t.Len() {
			return wrapConversionError(path, fmt.Errorf("%w: expected %d elements, got %d", ErrInvalidRaw, t.Len(), rv.Len()))
		}
	} else {
		out = reflect.MakeSlice(t, rv.Len(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		if err := c.convert(out.Index(i), rv.Index(i).Interface(), opts, indexPath(path, i)); err != nil {
			return err
		}
	}
	if t.Kind() == reflect.Slice {
		v.Set(out)
	}
	return nil
}

func (c *Context) convertMap(v reflect.Value, raw any, opts fieldOptions, path string) error {
	t := v.Type()
	if raw == nil {
		v.SetZero()
		return nil
	}
	if t.Key().Kind() != reflect.String {
		return wrapConversionError(path, fmt.Errorf("%w: map keys of %s must be strings", ErrInvalidRaw, t))
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return wrapConversionError(path, fmt.Errorf("%w: expected object, got %T", ErrInvalidRaw, raw))
	}
	keys := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		keys = append(keys, key.String())
	}
	slices.Sort(keys)

	out := reflect.MakeMapWithSize(t, len(keys))
	for _, key := range keys {
		elem := reflect.New(t.Elem()).Elem()
		rawElem := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface()
		if err := c.convert(elem, rawElem, opts, childPath(path, key)); err != nil {
			return err
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
	}
	v.Set(out)
	return nil
}

func assignRaw(v reflect.Value, raw any) error {
	if raw == nil {
		v.SetZero()
		return nil
	}
	rv := reflect.ValueOf(raw)
	if !rv.Type().AssignableTo(v.Type()) {
		return fmt.Errorf("%w: cannot keep %T as %s", ErrInvalidRaw, raw, v.Type())
	}
	v.Set(rv)
	return nil
}

func setDuration(v reflect.Value, raw any) error {
	switch typed := raw.(type) {
	case nil:
		v.SetZero()
	case time.Duration:
		v.SetInt(int64(typed))
	case string:
		d, err := time.ParseDuration(typed)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRaw, err)
		}
		v.SetInt(int64(d))
	default:
		return fmt.Errorf("%w: expected duration string, got %T", ErrInvalidRaw, raw)
	}
	return nil
}

func setScalar(v reflect.Value, raw any) error {
	if raw == nil {
		v.SetZero()
		return nil
	}
	t := v.Type()
	rv := reflect.ValueOf(raw)
	switch t.Kind() {
	case reflect.String:
		if rv.Kind() != reflect.String {
			break
		}
		v.SetString(rv.String())
		return nil
	case reflect.Bool:
		if rv.Kind() != reflect.Bool {
			break
		}
		v.SetBool(rv.Bool())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrInvalidRaw, n, t)
		}
		v.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if n < 0 || v.OverflowUint(uint64(n)) {
			return fmt.Errorf("%w: %d overflows %s", ErrInvalidRaw, n, t)
		}
		v.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return err
		}
		if v.OverflowFloat(f) {
			return fmt.Errorf("%w: %g overflows %s", ErrInvalidRaw, f, t)
		}
		v.SetFloat(f)
		return nil
	default:
		return fmt.Errorf("%w: unsupported target type %s", ErrInvalidRaw, t)
	}
	return fmt.Errorf("%w: expected %s, got %T", ErrInvalidRaw, t.Kind(), raw)
}

func toInt64(raw any) (int64, error) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d out of range", ErrInvalidRaw, rv.Uint())
		}
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %g is not an integer", ErrInvalidRaw, f)
		}
		return int64(f), nil
	}
	if number, ok := raw.(json.Number); ok {
		n, err := strconv.ParseInt(number.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidRaw, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalidRaw, raw)
}

func toFloat64(raw any) (float64, error) {
	if number, ok := raw.(json.Number); ok {
		f, err := number.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidRaw, err)
		}
		return f, nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidRaw, raw)
}

func childPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

func indexPath(prefix string, index int) string {
	return prefix + "[" + strconv.Itoa(index) + "]"
}
