// Package ast: pretty-printing of the tree for --dump-ast and debugging.
package ast

import "strings"

// PrettyPrint renders n and its descendants as an indented tree, one node
// per line.
func PrettyPrint(n Node) string {
	var sb strings.Builder
	prettyPrintNode(&sb, n, 0)
	return sb.String()
}

func prettyPrintNode(sb *strings.Builder, n Node, indent int) {
	if n == nil || (func() bool {
		// guard against a typed-nil interface (e.g. a nil *Block stored in
		// an Expr field), which n == nil would miss.
		switch v := n.(type) {
		case *Block:
			return v == nil
		}
		return false
	}()) {
		return
	}

	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(n.String())
	sb.WriteString("\n")

	switch node := n.(type) {
	case *Crate:
		for _, item := range node.Items {
			prettyPrintNode(sb, item, indent+1)
		}
	case *Function:
		for _, param := range node.Params {
			prettyPrintNode(sb, param, indent+1)
		}
		if node.Body != nil {
			prettyPrintNode(sb, node.Body, indent+1)
		}
	case *Struct:
		for _, field := range node.Fields {
			prettyPrintNode(sb, field, indent+1)
		}
	case *ExternBlock:
		for _, fn := range node.Items {
			prettyPrintNode(sb, fn, indent+1)
		}
	case *ConstItem:
		prettyPrintNode(sb, node.Value, indent+1)
	case *StaticItem:
		prettyPrintNode(sb, node.Value, indent+1)
	case *Block:
		for _, stmt := range node.Stmts {
			prettyPrintNode(sb, stmt, indent+1)
		}
		if node.Tail != nil {
			prettyPrintNode(sb, node.Tail, indent+1)
		}
	case *ItemStmt:
		prettyPrintNode(sb, node.Item, indent+1)
	case *LetStmt:
		if node.Init != nil {
			prettyPrintNode(sb, node.Init, indent+1)
		}
	case *ExprStmt:
		prettyPrintNode(sb, node.X, indent+1)
	case *UnaryExpr:
		prettyPrintNode(sb, node.X, indent+1)
	case *BinaryExpr:
		prettyPrintNode(sb, node.Left, indent+1)
		prettyPrintNode(sb, node.Right, indent+1)
	case *GroupedExpr:
		prettyPrintNode(sb, node.X, indent+1)
	case *CastExpr:
		prettyPrintNode(sb, node.X, indent+1)
	case *AssignExpr:
		prettyPrintNode(sb, node.LHS, indent+1)
		prettyPrintNode(sb, node.RHS, indent+1)
	case *RangeExpr:
		if node.Low != nil {
			prettyPrintNode(sb, node.Low, indent+1)
		}
		if node.High != nil {
			prettyPrintNode(sb, node.High, indent+1)
		}
	case *ArrayExpr:
		for _, e := range node.Elems {
			prettyPrintNode(sb, e, indent+1)
		}
	case *ArrayIndexExpr:
		prettyPrintNode(sb, node.Arr, indent+1)
		prettyPrintNode(sb, node.Index, indent+1)
	case *TupleExpr:
		for _, e := range node.Elems {
			prettyPrintNode(sb, e, indent+1)
		}
	case *TupleIndexExpr:
		prettyPrintNode(sb, node.X, indent+1)
	case *StructLitExpr:
		for _, f := range node.Fields {
			prettyPrintNode(sb, f.Value, indent+1)
		}
	case *CallExpr:
		prettyPrintNode(sb, node.Callee, indent+1)
		for _, arg := range node.Args {
			prettyPrintNode(sb, arg, indent+1)
		}
	case *MethodCallExpr:
		prettyPrintNode(sb, node.Receiver, indent+1)
		for _, arg := range node.Args {
			prettyPrintNode(sb, arg, indent+1)
		}
	case *FieldAccessExpr:
		prettyPrintNode(sb, node.X, indent+1)
	case *IfExpr:
		prettyPrintNode(sb, node.Cond, indent+1)
		prettyPrintNode(sb, node.Then, indent+1)
		if node.Else != nil {
			prettyPrintNode(sb, node.Else, indent+1)
		}
	case *WhileExpr:
		prettyPrintNode(sb, node.Cond, indent+1)
		prettyPrintNode(sb, node.Body, indent+1)
	case *LoopExpr:
		prettyPrintNode(sb, node.Body, indent+1)
	case *ForExpr:
		prettyPrintNode(sb, node.Iter, indent+1)
		prettyPrintNode(sb, node.Body, indent+1)
	case *MatchExpr:
		prettyPrintNode(sb, node.Scrutinee, indent+1)
		for _, arm := range node.Arms {
			prettyPrintNode(sb, arm.Body, indent+1)
		}
	case *ReturnExpr:
		if node.Value != nil {
			prettyPrintNode(sb, node.Value, indent+1)
		}
	case *BreakExpr:
		if node.Value != nil {
			prettyPrintNode(sb, node.Value, indent+1)
		}
	}
}
