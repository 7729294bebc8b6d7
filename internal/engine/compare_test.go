package engine

import (
	"testing"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/severity"
	"semdiff/internal/surface"
)

func baseSurface() *surface.Surface {
	return &surface.Surface{
		Name:       "Lib",
		Version:    "1.0.0",
		References: []surface.Reference{{Name: "Json", Version: "13.0.1"}},
		Types: []surface.Type{
			{
				Name:        "Lib.Client",
				Kind:        "class",
				Declaration: "public class Client",
				Members: []surface.Member{
					{Name: "Send()", Kind: "method", Signature: "void Send(string)"},
					{Name: "Name", Kind: "property", Signature: "string Name { get; }"},
					{Name: "Write()", Kind: "method", Signature: "void Write(int)"},
					{Name: "Write()", Kind: "method", Signature: "void Write(string)"},
				},
			},
			{Name: "Lib.Options", Kind: "class", Declaration: "public class Options"},
		},
	}
}

func TestCompare_Identical(t *testing.T) {
	if root := Compare(baseSurface(), baseSurface()); root != nil {
		t.Errorf("Compare() = %+v, want nil", root)
	}
}

func TestCompare_AddedType(t *testing.T) {
	next := baseSurface()
	next.Types = append(next.Types, surface.Type{Name: "Lib.Widget", Kind: "class"})

	root := Compare(baseSurface(), next)
	if root == nil {
		t.Fatal("expected a diff")
	}
	if root.Breaking {
		t.Error("an addition is not breaking")
	}
	if len(root.Children) != 1 || root.Children[0].Kind != difftree.KindNew || root.Children[0].Name != "Lib.Widget" {
		t.Errorf("children = %+v", root.Children)
	}
	if got := breaking.Classify(root); got != severity.Minor {
		t.Errorf("Classify() = %s, want minor", got)
	}
}

func TestCompare_DeletedMember(t *testing.T) {
	next := baseSurface()
	next.Types[0].Members = next.Types[0].Members[1:]

	root := Compare(baseSurface(), next)
	if root == nil || !root.Breaking {
		t.Fatalf("root = %+v, want breaking diff", root)
	}
	typ := root.Children[0]
	if typ.Kind != difftree.KindModified || typ.Element != difftree.ElementType || !typ.Breaking {
		t.Errorf("type node = %+v", typ)
	}
	if len(typ.Children) != 1 {
		t.Fatalf("member changes = %+v", typ.Children)
	}
	m := typ.Children[0]
	if m.Kind != difftree.KindDeleted || !m.Breaking || m.Element != difftree.ElementMethod || m.Name != "Send()" {
		t.Errorf("member = %+v", m)
	}

	r := breaking.Visit(root, breaking.DefaultPolicy(severity.Major))
	if r.Deleted != 1 || r.Modified != 0 {
		t.Errorf("counts = %d deleted, %d modified", r.Deleted, r.Modified)
	}
	if got := breaking.Classify(root); got != severity.Major {
		t.Errorf("Classify() = %s, want major", got)
	}
}

func TestCompare_SignatureChange(t *testing.T) {
	next := baseSurface()
	next.Types[0].Members[1].Signature = "string Name { get; set; }"

	root := Compare(baseSurface(), next)
	if root == nil {
		t.Fatal("expected a diff")
	}
	m := root.Children[0].Children[0]
	if m.Kind != difftree.KindModified || !m.Breaking || m.Element != difftree.ElementProperty {
		t.Errorf("member = %+v", m)
	}
	if len(m.DeclarationChanges) != 1 || m.DeclarationChanges[0].Element != difftree.ElementDetail {
		t.Errorf("declaration changes = %+v", m.DeclarationChanges)
	}
}

func TestCompare_Overloads(t *testing.T) {
	next := baseSurface()
	next.Types[0].Members[3].Signature = "void Write(bytes)"

	root := Compare(baseSurface(), next)
	if root == nil {
		t.Fatal("expected a diff")
	}
	changes := root.Children[0].Children
	if len(changes) != 2 {
		t.Fatalf("changes = %+v", changes)
	}
	if changes[0].Kind != difftree.KindDeleted || changes[1].Kind != difftree.KindNew {
		t.Errorf("kinds = %s, %s", changes[0].Kind, changes[1].Kind)
	}
}

func TestCompare_TypeDeclaration(t *testing.T) {
	next := baseSurface()
	next.Types[1].Kind = "struct"
	next.Types[1].Declaration = "public struct Options"
	next.Types[1].Attributes = []string{"Obsolete"}

	root := Compare(baseSurface(), next)
	if root == nil {
		t.Fatal("expected a diff")
	}
	typ := root.Children[0]
	if typ.Name != "Lib.Options" || !typ.Breaking {
		t.Errorf("type = %+v", typ)
	}
	if len(typ.DeclarationChanges) != 3 {
		t.Fatalf("declaration changes = %+v", typ.DeclarationChanges)
	}
	if a := typ.DeclarationChanges[2]; a.Kind != difftree.KindNew || a.Element != difftree.ElementAttribute {
		t.Errorf("attribute change = %+v", a)
	}
}

func TestCompare_DeletedType(t *testing.T) {
	next := baseSurface()
	next.Types = next.Types[:1]

	root := Compare(baseSurface(), next)
	if root == nil || !root.Breaking {
		t.Fatalf("root = %+v", root)
	}
	if c := root.Children[0]; c.Kind != difftree.KindDeleted || c.Name != "Lib.Options" {
		t.Errorf("child = %+v", c)
	}
}

func TestCompare_References(t *testing.T) {
	tests := []struct {
		name     string
		refs     []surface.Reference
		wantKind difftree.Kind
		want     severity.Level
	}{
		{"removed", nil, difftree.KindDeleted, severity.Major},
		{"version bump", []surface.Reference{{Name: "json", Version: "13.0.3"}}, difftree.KindModified, severity.Major},
		{"added", []surface.Reference{{Name: "Json", Version: "13.0.1"}, {Name: "Http"}}, difftree.KindNew, severity.Minor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := baseSurface()
			next.References = tt.refs

			root := Compare(baseSurface(), next)
			if root == nil {
				t.Fatal("expected a diff")
			}
			if len(root.Children) != 0 || len(root.DeclarationChanges) != 1 {
				t.Fatalf("root = %+v", root)
			}
			ref := root.DeclarationChanges[0]
			if ref.Kind != tt.wantKind || ref.Element != difftree.ElementReference {
				t.Errorf("reference change = %+v", ref)
			}
			if root.Breaking {
				t.Error("reference changes do not flag the root")
			}
			if got := breaking.Classify(root); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
			if r := breaking.Visit(root, breaking.DefaultPolicy(severity.Patch)); len(r.Changes) != 0 {
				t.Errorf("reference changes should be excluded by default, got %d", len(r.Changes))
			}
		})
	}
}
