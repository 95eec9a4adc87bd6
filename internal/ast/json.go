package ast

import (
	"moba-lang/internal/span"
)

// NodeToMap converts an AST node to a map suitable for JSON or YAML output.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		imports := make([]interface{}, len(n.Imports))
		for i, imp := range n.Imports {
			imports[i] = NodeToMap(imp)
		}
		decls := make([]interface{}, len(n.Decls))
		for i, d := range n.Decls {
			decls[i] = NodeToMap(d)
		}
		result := m("Program", n.Span, "imports", imports, "decls", decls)
		if n.Game != "" {
			result["game"] = n.Game
		}
		return result

	// ---- Declarations ----
	case *ImportDecl:
		return m("ImportDecl", n.Span, "name", n.Name)
	case *VarDecl:
		result := m("VarDecl", n.Span, "name", n.Name, "value", NodeToMap(n.Value))
		if n.Const {
			result["const"] = true
		}
		if n.TypeName != "" {
			result["type"] = n.TypeName
		}
		if n.Reassign {
			result["reassign"] = true
		}
		return result
	case *StmtDecl:
		return m("StmtDecl", n.Span, "stmt", NodeToMap(n.Stmt))
	case *FuncDecl:
		result := m("FuncDecl", n.Span, "name", n.Name, "params", n.Params, "body", NodeToMap(n.Body))
		if n.ReturnType != "" {
			result["returnType"] = n.ReturnType
		}
		return result
	case *HeroDecl:
		members := make([]interface{}, len(n.Members))
		for i, mem := range n.Members {
			members[i] = NodeToMap(mem)
		}
		return m("HeroDecl", n.Span, "name", n.Name, "members", members)
	case *ArenaDecl:
		items := make([]interface{}, len(n.Items))
		for i, it := range n.Items {
			items[i] = NodeToMap(it)
		}
		return m("ArenaDecl", n.Span, "items", items)
	case *StatusEffectDecl:
		return m("StatusEffectDecl", n.Span, "name", n.Name, "fields", fieldSlice(n.Fields))
	case *ItemDecl:
		result := m("ItemDecl", n.Span, "name", n.Name, "props", statSlice(n.Props))
		if n.Passive != nil {
			result["passive"] = NodeToMap(n.Passive)
		}
		return result
	case *CreepDecl:
		return m("CreepDecl", n.Span, "name", n.Name, "stats", statSlice(n.Stats))

	// ---- Hero members ----
	case *HeroSet:
		return m("HeroSet", n.Span, "name", n.Name, "value", NodeToMap(n.Value))
	case *HeroStats:
		return m("HeroStats", n.Span, "entries", statSlice(n.Entries))
	case *HeroAbilities:
		abilities := make([]interface{}, len(n.Abilities))
		for i, a := range n.Abilities {
			abilities[i] = NodeToMap(a)
		}
		return m("HeroAbilities", n.Span, "abilities", abilities)
	case *AbilityDecl:
		return m("AbilityDecl", n.Span, "name", n.Name, "fields", fieldSlice(n.Fields))
	case *Field:
		result := m("Field", n.Span, "key", n.Name())
		switch {
		case n.Body != nil:
			result["body"] = NodeToMap(n.Body)
		case n.Value != nil:
			result["value"] = NodeToMap(n.Value)
		default:
			result["word"] = n.Word
		}
		return result

	// ---- Arena items ----
	case *TeamDecl:
		turrets := make([]interface{}, len(n.Turrets))
		for i, t := range n.Turrets {
			turrets[i] = NodeToMap(t)
		}
		return m("TeamDecl", n.Span, "name", n.Name, "core", n.Core, "turrets", turrets)
	case *TurretDecl:
		return m("TurretDecl", n.Span, "name", n.Name, "stats", statSlice(n.Stats))
	case *CoreDecl:
		return m("CoreDecl", n.Span, "name", n.Name, "stats", statSlice(n.Stats))

	// ---- Statements ----
	case *Block:
		return m("Block", n.Span, "stmts", stmtSlice(n.Stmts))
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *CallStmt:
		return m("CallStmt", n.Span, "call", NodeToMap(n.Call))
	case *SetStmt:
		result := m("SetStmt", n.Span, "name", n.Name, "value", NodeToMap(n.Value))
		if n.Const {
			result["const"] = true
		}
		if n.TypeName != "" {
			result["type"] = n.TypeName
		}
		return result
	case *AssignStmt:
		return m("AssignStmt", n.Span, "name", n.Name, "op", n.Op.String(), "value", NodeToMap(n.Value))
	case *StatEntry:
		return m("StatEntry", n.Span, "name", n.Name, "value", NodeToMap(n.Value))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then))
		if len(n.ElseIfs) > 0 {
			arms := make([]interface{}, len(n.ElseIfs))
			for i, arm := range n.ElseIfs {
				arms[i] = map[string]interface{}{
					"condition": NodeToMap(arm.Condition),
					"body":      NodeToMap(arm.Body),
				}
			}
			result["elseIfs"] = arms
		}
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span, "condition", NodeToMap(n.Condition), "body", NodeToMap(n.Body))
	case *ForStmt:
		return m("ForStmt", n.Span,
			"var", n.Var,
			"collection", NodeToMap(n.Collection),
			"body", NodeToMap(n.Body))
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *BreakStmt:
		return m("BreakStmt", n.Span)
	case *ContinueStmt:
		return m("ContinueStmt", n.Span)
	case *ApplyStmt:
		target := map[string]interface{}{"kind": n.Target.Kind.String()}
		if n.Target.Kind == TargetNamed {
			target["name"] = n.Target.Name
		}
		return m("ApplyStmt", n.Span, "call", NodeToMap(n.Call), "target", target)

	// ---- Expressions ----
	case *NumberLit:
		return m("NumberLit", n.Span, "value", n.Value)
	case *PercentLit:
		return m("PercentLit", n.Span, "raw", n.Raw, "value", n.Value)
	case *DurationLit:
		return m("DurationLit", n.Span, "seconds", n.Seconds)
	case *StringLit:
		return m("StringLit", n.Span, "value", n.Value)
	case *BoolLit:
		return m("BoolLit", n.Span, "value", n.Value)
	case *NilLit:
		return m("NilLit", n.Span)
	case *Ident:
		return m("Ident", n.Span, "name", n.Name)
	case *ContextRef:
		return m("ContextRef", n.Span, "target", n.Kind.String())
	case *Grouping:
		return m("Grouping", n.Span, "inner", NodeToMap(n.Inner))
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", n.Op.String(), "operand", NodeToMap(n.Operand))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", n.Op.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *LogicalExpr:
		return m("LogicalExpr", n.Span,
			"op", n.Op.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *AssignExpr:
		return m("AssignExpr", n.Span, "name", n.Name, "value", NodeToMap(n.Value))
	case *CallExpr:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			arg := map[string]interface{}{"value": NodeToMap(a.Value)}
			if a.Name != "" {
				arg["name"] = a.Name
			}
			args[i] = arg
		}
		return m("CallExpr", n.Span, "callee", n.Callee, "args", args)
	case *MemberExpr:
		return m("MemberExpr", n.Span, "object", NodeToMap(n.Object), "field", n.Field)
	case *ListLit:
		elems := make([]interface{}, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = NodeToMap(e)
		}
		return m("ListLit", n.Span, "elements", elems)

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with "kind", "line" and alternating key/value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"line": s.Start.Line,
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if ok {
			result[key] = kvs[i+1]
		}
	}
	return result
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func statSlice(entries []*StatEntry) []interface{} {
	result := make([]interface{}, len(entries))
	for i, e := range entries {
		result[i] = NodeToMap(e)
	}
	return result
}

func fieldSlice(fields []*Field) []interface{} {
	result := make([]interface{}, len(fields))
	for i, f := range fields {
		result[i] = NodeToMap(f)
	}
	return result
}
