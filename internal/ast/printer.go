package ast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Print renders an expression in canonical source form. Every binary,
// logical and assignment node is wrapped in parentheses and groupings are
// dropped, so the output parses back to a tree that prints identically.
func Print(e Expr) string {
	switch n := e.(type) {
	case nil:
		return "nil"
	case *NumberLit:
		return FormatNumber(n.Value)
	case *PercentLit:
		return FormatNumber(n.Raw) + "%"
	case *DurationLit:
		return strconv.FormatInt(n.Seconds, 10) + "s"
	case *StringLit:
		return `"` + n.Value + `"`
	case *BoolLit:
		return strconv.FormatBool(n.Value)
	case *NilLit:
		return "nil"
	case *Ident:
		return n.Name
	case *ContextRef:
		return n.Kind.String()
	case *Grouping:
		return Print(n.Inner)
	case *UnaryExpr:
		operand := Print(n.Operand)
		if _, nested := unwrap(n.Operand).(*UnaryExpr); nested {
			operand = "(" + operand + ")"
		}
		return n.Op.String() + operand
	case *BinaryExpr:
		return "(" + Print(n.Left) + " " + n.Op.String() + " " + Print(n.Right) + ")"
	case *LogicalExpr:
		return "(" + Print(n.Left) + " " + n.Op.String() + " " + Print(n.Right) + ")"
	case *AssignExpr:
		return "(" + n.Name + " = " + Print(n.Value) + ")"
	case *CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			if a.Name != "" {
				args[i] = a.Name + ": " + Print(a.Value)
			} else {
				args[i] = Print(a.Value)
			}
		}
		return n.Callee + "(" + strings.Join(args, ", ") + ")"
	case *MemberExpr:
		return Print(n.Object) + "." + n.Field
	case *ListLit:
		elems := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = Print(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func unwrap(e Expr) Expr {
	for {
		g, ok := e.(*Grouping)
		if !ok {
			return e
		}
		e = g.Inner
	}
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Tree renders any node as an indented outline, one node per line.
func Tree(node Node) string {
	var sb strings.Builder
	writeTree(&sb, NodeToMap(node), 0)
	return sb.String()
}

func writeTree(sb *strings.Builder, v interface{}, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := v.(type) {
	case map[string]interface{}:
		kind, _ := n["kind"].(string)
		if kind == "" {
			kind = "-"
		}
		sb.WriteString(indent + kind)

		keys := make([]string, 0, len(n))
		for k := range n {
			if k != "kind" && k != "line" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var nested []string
		for _, k := range keys {
			switch n[k].(type) {
			case map[string]interface{}, []interface{}:
				nested = append(nested, k)
			default:
				fmt.Fprintf(sb, " %s=%v", k, n[k])
			}
		}
		if line, ok := n["line"]; ok {
			fmt.Fprintf(sb, " @%v", line)
		}
		sb.WriteString("\n")
		for _, k := range nested {
			sb.WriteString(indent + "  ." + k + "\n")
			writeTree(sb, n[k], depth+2)
		}
	case []interface{}:
		for _, el := range n {
			writeTree(sb, el, depth)
		}
	default:
		fmt.Fprintf(sb, "%s%v\n", indent, n)
	}
}
