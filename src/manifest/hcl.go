package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decodeHCL reads top-level attributes only. A bare two-part traversal such
// as flutter.versionCode becomes a Ref instead of being evaluated.
func decodeHCL(data []byte) (Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, "manifest.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: %s", diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: %s", diags.Error())
	}

	m := make(Manifest, len(attrs))
	for name, attr := range attrs {
		if ref, ok := traversalRef(attr.Expr); ok {
			m[name] = ref
			continue
		}

		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("manifest: %s", diags.Error())
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("manifest: attribute %s: %w", name, err)
		}
		m[name] = native
	}
	return m, nil
}

func traversalRef(expr hcl.Expression) (Ref, bool) {
	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(trav) != 2 {
		return Ref{}, false
	}
	attr, ok := trav[1].(hcl.TraverseAttr)
	if !ok {
		return Ref{}, false
	}
	return Ref{Host: trav.RootName(), Key: attr.Name}, true
}

// ctyToNative converts a cty value to plain Go values. Integral numbers
// become int so they compare equal to values decoded from other formats.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			var i int
			if err := gocty.FromCtyValue(v, &i); err == nil {
				return i, nil
			}
		}
		return Number(bf.Text('f', -1)), nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			k, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", k.AsString(), err)
			}
			out[k.AsString()] = n
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
