package shell

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

const inputName = "<input>"

// literals are the names a right-hand side may use besides HCL's own true, false and
// null.
var literals = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"None":  cty.NullVal(cty.DynamicPseudoType),
		"True":  cty.True,
		"False": cty.False,
	},
}

// splitAssignment splits "lhs = rhs" at the first top-level equals sign. Signs inside
// strings, brackets or heredocs and comparison operators do not count.
func splitAssignment(line string) (lhs, rhs string, ok bool) {
	depth := 0
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '<':
			if strings.HasPrefix(line[i:], "<<") {
				return "", "", false
			}
		case '=':
			if depth != 0 {
				continue
			}
			if i+1 < len(line) && line[i+1] == '=' {
				return "", "", false
			}
			if i > 0 && strings.ContainsRune("!<>", rune(line[i-1])) {
				return "", "", false
			}
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
		}
	}
	return "", "", false
}

// parseExpression parses one HCL expression.
func parseExpression(src string) (hclsyntax.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), inputName, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	return expr, nil
}

// parseTarget parses the left-hand side of an assignment.
func parseTarget(src string) (hcl.Traversal, error) {
	trav, diags := hclsyntax.ParseTraversalAbs([]byte(src), inputName, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	return trav, nil
}

// literalValue evaluates a right-hand side. It may not refer to bound networks.
func literalValue(expr hcl.Expression) (any, error) {
	val, diags := expr.Value(literals)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	return ctyToNative(val)
}

// ctyToNative converts a cty value to its natural Go counterpart. Numbers become
// float64.
func ctyToNative(v cty.Value) (any, error) {
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
			return nil, fmt.Errorf("convert number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

// indexOf reads an integer index key.
func indexOf(key cty.Value) (int, error) {
	if key.IsNull() || key.Type() != cty.Number {
		return 0, fmt.Errorf("index must be a number")
	}
	bf := key.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("index %s is not an integer", bf.Text('f', -1))
	}
	i, _ := bf.Int64()
	return int(i), nil
}

// formatTraversal renders a traversal for error messages.
func formatTraversal(t hcl.Traversal) string {
	var sb strings.Builder
	for _, part := range t {
		switch p := part.(type) {
		case hcl.TraverseRoot:
			sb.WriteString(p.Name)
		case hcl.TraverseAttr:
			sb.WriteRune('.')
			sb.WriteString(p.Name)
		case hcl.TraverseIndex:
			sb.WriteRune('[')
			if p.Key.Type() == cty.Number {
				sb.WriteString(p.Key.AsBigFloat().Text('f', -1))
			} else if p.Key.Type() == cty.String {
				sb.WriteString(fmt.Sprintf("%q", p.Key.AsString()))
			} else {
				sb.WriteString("...")
			}
			sb.WriteRune(']')
		}
	}
	return sb.String()
}

func diagError(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if d.Detail != "" {
			return fmt.Errorf("syntax error: %s: %s", d.Summary, d.Detail)
		}
		return fmt.Errorf("syntax error: %s", d.Summary)
	}
	return fmt.Errorf("syntax error")
}
