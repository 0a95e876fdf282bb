// Package ctyconv converts between cty values and their natural Go
// representation. Layer parameters travel as cty objects; YAML sessions and
// layer outputs need them as plain Go values.
package ctyconv

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToNative recursively converts a cty.Value to its most natural Go
// counterpart: string, float64, bool, []any or map[string]any.
func ToNative(v cty.Value) (any, error) {
	// A nil or unknown value becomes a nil interface{}.
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type for native conversion: %s", ty.FriendlyName())
	}
}

// FromNative converts a value decoded from YAML (or built by hand) into a
// cty.Value. Maps become objects and slices become tuples.
func FromNative(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return val, nil
	case string:
		return cty.StringVal(val), nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case uint64:
		return cty.NumberUIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case *big.Float:
		return cty.NumberVal(val), nil
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(val))
		for i, e := range val {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("at index %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(val) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(val))
		for k, e := range val {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("in attribute '%s': %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		ty, err := gocty.ImpliedType(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
		}
		return gocty.ToCtyValue(v, ty)
	}
}

// Merge overlays the attributes of update onto current, converting each
// to the attribute type declared by current. Attributes unknown to current
// are rejected. A null update returns current unchanged.
func Merge(current, update cty.Value) (cty.Value, error) {
	if update.IsNull() {
		return current, nil
	}
	uty := update.Type()
	if !uty.IsObjectType() && !uty.IsMapType() {
		return cty.NilVal, fmt.Errorf("parameters must be an object, got %s", uty.FriendlyName())
	}
	curTy := current.Type()
	if !curTy.IsObjectType() {
		return cty.NilVal, fmt.Errorf("current parameters must be an object, got %s", curTy.FriendlyName())
	}

	merged := current.AsValueMap()
	if merged == nil {
		merged = make(map[string]cty.Value)
	}
	for name, val := range update.AsValueMap() {
		if !curTy.HasAttribute(name) {
			return cty.NilVal, fmt.Errorf("unsupported parameter %q (supported: %v)", name, AttributeNames(current))
		}
		conv, err := convert.Convert(val, curTy.AttributeType(name))
		if err != nil {
			return cty.NilVal, fmt.Errorf("parameter %q: %w", name, err)
		}
		merged[name] = conv
	}
	if len(merged) == 0 {
		return current, nil
	}
	return cty.ObjectVal(merged), nil
}

// AttributeNames lists the attribute names of an object value in sorted
// order.
func AttributeNames(v cty.Value) []string {
	if !v.Type().IsObjectType() {
		return nil
	}
	names := make([]string, 0, len(v.Type().AttributeTypes()))
	for name := range v.Type().AttributeTypes() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
