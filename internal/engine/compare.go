package engine

import (
	"fmt"
	"strings"

	"semdiff/internal/difftree"
	"semdiff/internal/surface"
)

// Compare diffs two surfaces. It returns nil when the public surfaces are
// identical.
//
// Deletions are breaking. Additions are not. A changed member signature, type
// kind or type declaration is a breaking Modified node carrying a detail
// declaration change. Reference changes are declaration changes of the root.
func Compare(old, new *surface.Surface) *difftree.Node {
	root := &difftree.Node{
		Kind:    difftree.KindModified,
		Element: difftree.ElementAssembly,
		Name:    new.Name,
	}
	root.DeclarationChanges = compareReferences(old.References, new.References)
	root.Children = compareTypes(old.Types, new.Types)

	if len(root.Children) == 0 && len(root.DeclarationChanges) == 0 {
		return nil
	}
	for _, c := range root.Children {
		if c.Breaking {
			root.Breaking = true
			break
		}
	}
	return root
}

func compareReferences(old, new []surface.Reference) []*difftree.Node {
	newByName := make(map[string]surface.Reference, len(new))
	for _, r := range new {
		newByName[strings.ToLower(r.Name)] = r
	}
	oldNames := make(map[string]bool, len(old))

	var out []*difftree.Node
	for _, o := range old {
		key := strings.ToLower(o.Name)
		oldNames[key] = true
		n, ok := newByName[key]
		switch {
		case !ok:
			out = append(out, &difftree.Node{
				Kind:     difftree.KindDeleted,
				Breaking: true,
				Element:  difftree.ElementReference,
				Name:     o.Name,
			})
		case o.Version != n.Version:
			out = append(out, &difftree.Node{
				Kind:    difftree.KindModified,
				Element: difftree.ElementReference,
				Name:    o.Name,
				Text:    fmt.Sprintf("reference `%s` changed from %s to %s", o.Name, orNone(o.Version), orNone(n.Version)),
			})
		}
	}
	for _, n := range new {
		if !oldNames[strings.ToLower(n.Name)] {
			out = append(out, &difftree.Node{
				Kind:    difftree.KindNew,
				Element: difftree.ElementReference,
				Name:    n.Name,
			})
		}
	}
	return out
}

func compareTypes(old, new []surface.Type) []*difftree.Node {
	newByName := make(map[string]*surface.Type, len(new))
	for i := range new {
		newByName[new[i].Name] = &new[i]
	}
	seen := make(map[string]bool, len(old))

	var out []*difftree.Node
	for i := range old {
		o := &old[i]
		seen[o.Name] = true
		n, ok := newByName[o.Name]
		if !ok {
			out = append(out, &difftree.Node{
				Kind:     difftree.KindDeleted,
				Breaking: true,
				Element:  difftree.ElementType,
				Name:     o.Name,
			})
			continue
		}
		if node := compareType(o, n); node != nil {
			out = append(out, node)
		}
	}
	for i := range new {
		if !seen[new[i].Name] {
			out = append(out, &difftree.Node{
				Kind:    difftree.KindNew,
				Element: difftree.ElementType,
				Name:    new[i].Name,
			})
		}
	}
	return out
}

func compareType(old, new *surface.Type) *difftree.Node {
	node := &difftree.Node{
		Kind:    difftree.KindModified,
		Element: difftree.ElementType,
		Name:    old.Name,
	}

	if !strings.EqualFold(old.Kind, new.Kind) {
		node.DeclarationChanges = append(node.DeclarationChanges, detail(
			fmt.Sprintf("kind changed from %s to %s", orNone(old.Kind), orNone(new.Kind)), true))
	}
	if old.Declaration != new.Declaration {
		node.DeclarationChanges = append(node.DeclarationChanges, detail(
			fmt.Sprintf("declaration changed from `%s` to `%s`", old.Declaration, new.Declaration), true))
	}
	node.DeclarationChanges = append(node.DeclarationChanges, compareAttributes(old.Attributes, new.Attributes)...)
	node.Children = compareMembers(old.Members, new.Members)

	if len(node.Children) == 0 && len(node.DeclarationChanges) == 0 {
		return nil
	}
	node.Breaking = anyBreaking(node.Children) || anyBreaking(node.DeclarationChanges)
	return node
}

func compareAttributes(old, new []string) []*difftree.Node {
	inNew := make(map[string]bool, len(new))
	for _, a := range new {
		inNew[a] = true
	}
	inOld := make(map[string]bool, len(old))

	var out []*difftree.Node
	for _, a := range old {
		inOld[a] = true
		if !inNew[a] {
			out = append(out, &difftree.Node{Kind: difftree.KindDeleted, Breaking: true, Element: difftree.ElementAttribute, Name: a})
		}
	}
	for _, a := range new {
		if !inOld[a] {
			out = append(out, &difftree.Node{Kind: difftree.KindNew, Element: difftree.ElementAttribute, Name: a})
		}
	}
	return out
}

// compareMembers matches members by kind and name. When a key holds a single
// member on both sides a signature change is a modification; overloads are
// matched by signature and reported as deletions and additions.
func compareMembers(old, new []surface.Member) []*difftree.Node {
	oldGroups, oldOrder := groupMembers(old)
	newGroups, newOrder := groupMembers(new)

	var out []*difftree.Node
	for _, key := range oldOrder {
		olds, news := oldGroups[key], newGroups[key]
		if len(olds) == 1 && len(news) == 1 {
			if olds[0].Signature != news[0].Signature {
				out = append(out, modifiedMember(olds[0], news[0]))
			}
			continue
		}

		remaining := make(map[string]int, len(news))
		for _, m := range news {
			remaining[m.Signature]++
		}
		for _, m := range olds {
			if remaining[m.Signature] > 0 {
				remaining[m.Signature]--
				continue
			}
			out = append(out, memberNode(m, difftree.KindDeleted))
		}
		for _, m := range news {
			if remaining[m.Signature] > 0 {
				remaining[m.Signature]--
				out = append(out, memberNode(m, difftree.KindNew))
			}
		}
	}
	for _, key := range newOrder {
		if _, ok := oldGroups[key]; ok {
			continue
		}
		for _, m := range newGroups[key] {
			out = append(out, memberNode(m, difftree.KindNew))
		}
	}
	return out
}

func groupMembers(members []surface.Member) (map[string][]surface.Member, []string) {
	groups := make(map[string][]surface.Member, len(members))
	var order []string
	for _, m := range members {
		key := m.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}
	return groups, order
}

func memberNode(m surface.Member, kind difftree.Kind) *difftree.Node {
	return &difftree.Node{
		Kind:     kind,
		Breaking: kind == difftree.KindDeleted,
		Element:  m.Element(),
		Name:     m.Name,
	}
}

func modifiedMember(old, new surface.Member) *difftree.Node {
	return &difftree.Node{
		Kind:     difftree.KindModified,
		Breaking: true,
		Element:  old.Element(),
		Name:     old.Name,
		DeclarationChanges: []*difftree.Node{
			detail(fmt.Sprintf("signature changed from `%s` to `%s`", old.Signature, new.Signature), true),
		},
	}
}

func detail(text string, breaking bool) *difftree.Node {
	return &difftree.Node{
		Kind:     difftree.KindModified,
		Breaking: breaking,
		Element:  difftree.ElementDetail,
		Text:     text,
	}
}

func anyBreaking(nodes []*difftree.Node) bool {
	for _, n := range nodes {
		if n.Breaking {
			return true
		}
	}
	return false
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
