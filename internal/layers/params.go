package layers

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/recongraph/internal/ctyconv"
)

// paramsValue encodes a params struct with cty tags as a cty object.
func paramsValue[T any](p T) cty.Value {
	ty, err := gocty.ImpliedType(p)
	if err != nil {
		panic(fmt.Sprintf("layers: params type %T is not cty-compatible: %v", p, err))
	}
	v, err := gocty.ToCtyValue(p, ty)
	if err != nil {
		panic(fmt.Sprintf("layers: encoding params %T: %v", p, err))
	}
	return v
}

// decodeParams overlays update onto current and decodes the result.
func decodeParams[T any](current T, update cty.Value) (T, error) {
	merged, err := ctyconv.Merge(paramsValue(current), update)
	if err != nil {
		return current, err
	}
	var out T
	if err := gocty.FromCtyValue(merged, &out); err != nil {
		return current, fmt.Errorf("decoding parameters: %w", err)
	}
	return out, nil
}

// nativeParams is the plain Go form stored in Output.Params.
func nativeParams(v cty.Value) map[string]any {
	native, err := ctyconv.ToNative(v)
	if err != nil {
		return nil
	}
	m, _ := native.(map[string]any)
	return m
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("parameter %q: %q is not one of %q", name, value, allowed)
}
