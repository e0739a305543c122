package ast

// Walk traverses a node depth-first, calling visit on each node it
// reaches. If visit returns false, Walk does not descend into that
// node's children.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch n := n.(type) {
	case *Program:
		for _, im := range n.Imports {
			Walk(im, visit)
		}
		for _, f := range n.Formats {
			Walk(f, visit)
		}
		for _, e := range n.Enums {
			Walk(e, visit)
		}
		for _, fn := range n.Funcs {
			Walk(fn, visit)
		}
	case *Format:
		Walk(n.Ident, visit)
		for _, f := range n.Fields {
			Walk(f, visit)
		}
		for _, fn := range n.Funcs {
			Walk(fn, visit)
		}
	case *State:
		Walk(n.Ident, visit)
		for _, f := range n.Fields {
			Walk(f, visit)
		}
	case *Enum:
		Walk(n.Ident, visit)
		if n.Underlying != nil {
			Walk(n.Underlying, visit)
		}
		for _, m := range n.Members {
			Walk(m, visit)
		}
	case *EnumMember:
		Walk(n.Ident, visit)
		Walk(n.Value, visit)
	case *Field:
		Walk(n.Ident, visit)
		Walk(n.FieldType, visit)
		if n.Arguments.DirectMatch != nil {
			Walk(n.Arguments.DirectMatch, visit)
		}
		if n.Arguments.SubRange != nil {
			if n.Arguments.SubRange.Begin != nil {
				Walk(n.Arguments.SubRange.Begin, visit)
			}
			if n.Arguments.SubRange.Length != nil {
				Walk(n.Arguments.SubRange.Length, visit)
			}
		}
		if n.Next != nil {
			Walk(n.Next, visit)
		}
		if n.Condition != nil {
			Walk(n.Condition, visit)
		}
	case *Function:
		Walk(n.Ident, visit)
		for _, p := range n.Params {
			Walk(p, visit)
		}
		if n.Result != nil {
			Walk(n.Result, visit)
		}
		for _, s := range n.Body {
			Walk(s, visit)
		}
	case *Param:
		Walk(n.Ident, visit)
		Walk(n.ParamType, visit)
	case *Identity:
		Walk(n.Target, visit)

	// Statements.
	case *ExprStmt:
		Walk(n.X, visit)
	case *Block:
		for _, s := range n.Elements {
			Walk(s, visit)
		}
	case *If:
		Walk(n.Cond, visit)
		Walk(n.Then, visit)
		for _, e := range n.Elif {
			Walk(e.Cond, visit)
			Walk(e.Then, visit)
		}
		if n.Else != nil {
			Walk(n.Else, visit)
		}
	case *Match:
		if n.Cond != nil {
			Walk(n.Cond, visit)
		}
		for _, c := range n.Cases {
			if c.Pattern != nil {
				Walk(c.Pattern, visit)
			}
			Walk(c.Body, visit)
		}
	case *Loop:
		if n.Init != nil {
			Walk(n.Init, visit)
		}
		if n.Cond != nil {
			Walk(n.Cond, visit)
		}
		if n.Step != nil {
			Walk(n.Step, visit)
		}
		if n.Var != nil {
			Walk(n.Var, visit)
		}
		if n.Source != nil {
			Walk(n.Source, visit)
		}
		Walk(n.Body, visit)
	case *Return:
		if n.Value != nil {
			Walk(n.Value, visit)
		}
	case *Assert:
		Walk(n.Cond, visit)
	case *ExplicitError:
		Walk(n.Message, visit)
	case *Break, *Continue:
		// no children

	// Expressions.
	case *IOOperation:
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Paren:
		Walk(n.X, visit)
	case *MemberAccess:
		Walk(n.Base, visit)
		Walk(n.Member, visit)
	case *Index:
		Walk(n.Base, visit)
		Walk(n.Index, visit)
	case *Unary:
		Walk(n.X, visit)
	case *Binary:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Cond:
		Walk(n.Cond, visit)
		Walk(n.Then, visit)
		Walk(n.Else, visit)
	case *Cast:
		Walk(n.Target, visit)
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Call:
		Walk(n.Callee, visit)
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Available:
		Walk(n.Target, visit)
	case *ImplicitYield:
		Walk(n.X, visit)
	case *IdentExpr:
		Walk(n.Name, visit)
	case *TypeLiteral:
		Walk(n.Of, visit)
	case *IntLiteral, *BoolLiteral, *CharLiteral, *StrLiteral, *Ident:
		// leaves

	// Types.
	case *IdentType:
		if n.Base != nil {
			Walk(n.Base, visit)
		}
	case *StructType:
		// Format is walked from Program/containing scope, not here,
		// to avoid infinite recursion through recursive structs.
	case *EnumType:
		// Enum is walked from Program, not here.
	case *ArrayType:
		Walk(n.Elem, visit)
		if n.Length != nil {
			Walk(n.Length, visit)
		}
	case *OptionalType:
		Walk(n.Inner, visit)
	case *PtrType:
		Walk(n.Inner, visit)
	case *StructUnionType:
		for _, m := range n.Members {
			Walk(m, visit)
		}
	case *UnionType:
		if n.Base != nil {
			Walk(n.Base, visit)
		}
		if n.Common != nil {
			Walk(n.Common, visit)
		}
		for _, c := range n.Candidates {
			if c.Cond != nil {
				Walk(c.Cond, visit)
			}
			Walk(c.Field, visit)
		}
	case *RangeType, *BoolType, *IntType, *FloatType:
		// leaves
	}
}
