package compiler

import (
	"encoding/json"
	"io"
	"strings"
)

// Tree is the serialisable shape of an AST node.
type Tree struct {
	Kind     string   `json:"kind"`
	Value    string   `json:"value,omitempty"`
	Children []Tree   `json:"children,omitempty"`
	Params   []string `json:"params,omitempty"`
}

// Describe converts n into a Tree. Single-child wrappers produced by level
// promotion are kept, so the dump mirrors the reductions that built it.
func Describe(n Node) Tree {
	t := Tree{Kind: n.Kind()}
	switch n := n.(type) {
	case *Statement:
		for _, it := range n.Items {
			t.Children = append(t.Children, Describe(it))
		}
	case *Block:
		if n.Body != nil {
			t.Children = []Tree{Describe(n.Body)}
		}
	case *VariableType:
		t.Value = n.Type.String()
	case *VariableDecl:
		t.Value = n.Type.String() + " " + n.Name
	case *PreAssign:
		t.Children = []Tree{Describe(n.Decl)}
	case *Assign:
		t.Value = n.Decl.Type.String() + " " + n.Decl.Name
		t.Children = []Tree{Describe(n.Value)}
	case *PreReAssign:
		t.Value = n.Name
	case *ReAssign:
		t.Value = n.Name
		t.Children = []Tree{Describe(n.Value)}
	case *If:
		t.Children = []Tree{Describe(n.Cond), Describe(n.Body)}
	case *PreIfElse:
		t.Children = []Tree{Describe(n.If)}
	case *IfElse:
		t.Children = []Tree{Describe(n.Cond), Describe(n.Then), Describe(n.Else)}
	case *While:
		t.Children = []Tree{Describe(n.Cond), Describe(n.Body)}
	case *Return:
		t.Children = []Tree{Describe(n.Value)}
	case *FunctionDecl:
		t.Value = n.Name
		for _, p := range n.Params {
			t.Params = append(t.Params, p.Name+": "+p.Type.String())
		}
		t.Children = []Tree{Describe(n.Body)}
	case *CallFunction:
		t.Value = n.Name + "(" + strings.Join(n.Args, ", ") + ")"
	case *Print:
		t.Value = strings.Join(n.Args, ", ")
	case *PrintString:
		t.Value = n.Text
	case *Factor:
		t.Value = n.Form.String()
		if n.Inner != nil {
			t.Children = []Tree{Describe(n.Inner)}
		} else {
			t.Value += " " + n.Text
		}
	case *PreTerm:
		t.Value = n.Op
		t.Children = []Tree{Describe(n.Left)}
	case *PreAdd:
		t.Value = n.Op
		t.Children = []Tree{Describe(n.Left)}
	case *PreComparing:
		t.Value = n.Op
		t.Children = []Tree{Describe(n.Left)}
	case *PreLogical:
		t.Value = n.Op
		t.Children = []Tree{Describe(n.Left)}
	case *Term:
		t.Value, t.Children = describeBinary(n.Left, n.Op, n.Right)
	case *Add:
		t.Value, t.Children = describeBinary(n.Left, n.Op, n.Right)
	case *Comparing:
		t.Value, t.Children = describeBinary(n.Left, n.Op, n.Right)
	case *LogicalOperator:
		t.Value, t.Children = describeBinary(n.Left, n.Op, n.Right)
	case *Expression:
		t.Children = []Tree{Describe(n.Inner)}
	}
	return t
}

func describeBinary(left Node, op string, right Node) (string, []Tree) {
	if right == nil {
		return "", []Tree{Describe(left)}
	}
	return op, []Tree{Describe(left), Describe(right)}
}

// DumpAST writes root as indented JSON.
func DumpAST(w io.Writer, root Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Describe(root))
}
