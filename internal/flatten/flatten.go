// Package flatten combines the per-file trees of one library entry into a
// single tree, applying the source language's declaration-merging rules.
package flatten

import (
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/transform"
)

// Flatten reduces an ordered list of per-file trees into one tree. Comments
// concatenate, directive sets union, the first present declaration-location
// wins, and members merge per kind-specific rules.
func Flatten(files []*decltree.SourceFile) *decltree.SourceFile {
	if len(files) == 0 {
		return &decltree.SourceFile{DeclInfo: &decltree.DeclInfo{}}
	}

	combined := &decltree.SourceFile{
		DeclInfo: &decltree.DeclInfo{},
		Library:  files[0].Library,
		FileName: files[0].FileName,
	}
	seenDirectives := make(map[string]bool)
	for _, f := range files {
		combined.Comments = append(combined.Comments, f.Info().Comments...)
		for _, dir := range f.Directives {
			if !seenDirectives[dir] {
				seenDirectives[dir] = true
				combined.Directives = append(combined.Directives, dir)
			}
		}
		if !combined.Location.IsPresent() && f.Info().Location.IsPresent() {
			combined.Location = f.Info().Location
		}
		combined.Members = append(combined.Members, f.Members...)
	}

	merged := transform.Apply[struct{}](merger{}, struct{}{}, combined)
	return merged.(*decltree.SourceFile)
}

// merger replaces every container's member list with its merged form. The
// traversal descends into merged containers, so nested namespaces merge
// recursively.
type merger struct {
	transform.Identity[struct{}]
}

func (merger) RewriteMembers(_ struct{}, _ decltree.Container, members []decltree.Declaration) []decltree.Declaration {
	return MergeMembers(members)
}

// MergeMembers applies the declaration-merging rules to one ordered member
// list. Global blocks merge regardless of name; named members merge per
// kind-pair; unmergeable pairs stay as separate siblings under one name.
func MergeMembers(members []decltree.Declaration) []decltree.Declaration {
	var out []decltree.Declaration
	emittedBucket := make(map[string]bool)
	globalAt := -1

	for _, m := range members {
		if g, isGlobal := m.(*decltree.GlobalBlock); isGlobal {
			if globalAt == -1 {
				globalAt = len(out)
				out = append(out, g)
			} else {
				prev := out[globalAt].(*decltree.GlobalBlock)
				cp := *prev
				cp.Members = append(append([]decltree.Declaration(nil), prev.Members...), g.Members...)
				out[globalAt] = &cp
			}
			continue
		}

		name := m.DeclName()
		if name == "" {
			out = append(out, m)
			continue
		}
		if emittedBucket[name] {
			continue
		}
		emittedBucket[name] = true
		out = append(out, mergeBucket(collectNamed(members, name))...)
	}
	return out
}

func collectNamed(members []decltree.Declaration, name string) []decltree.Declaration {
	var bucket []decltree.Declaration
	for _, m := range members {
		if _, isGlobal := m.(*decltree.GlobalBlock); isGlobal {
			continue
		}
		if m.DeclName() == name {
			bucket = append(bucket, m)
		}
	}
	return bucket
}

// mergeBucket reduces same-named declarations pairwise, left to right. Each
// incoming declaration merges into the first accumulated sibling its kind
// pairs with, or stays a sibling of its own.
func mergeBucket(bucket []decltree.Declaration) []decltree.Declaration {
	var out []decltree.Declaration
	for _, next := range bucket {
		merged := false
		for i, prev := range out {
			if combined, ok := combine(prev, next); ok {
				out[i] = combined
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, next)
		}
	}
	return out
}

// combine merges two same-named declarations when their kind pair allows it.
func combine(a, b decltree.Declaration) (decltree.Declaration, bool) {
	switch av := a.(type) {
	case *decltree.Namespace:
		switch bv := b.(type) {
		case *decltree.Namespace:
			cp := *av
			cp.DeclInfo = mergedInfo(av.DeclInfo, bv.DeclInfo)
			cp.Members = append(append([]decltree.Declaration(nil), av.Members...), bv.Members...)
			return &cp, true
		case *decltree.Function, *decltree.Variable:
			// The value declaration nests inside the namespace; the
			// namespace remains the one declaration under the name.
			cp := *av
			cp.Members = append(append([]decltree.Declaration(nil), av.Members...), b)
			return &cp, true
		}
	case *decltree.Function:
		if bv, ok := b.(*decltree.Namespace); ok {
			return nestValueInNamespace(bv, av), true
		}
	case *decltree.Variable:
		if bv, ok := b.(*decltree.Namespace); ok {
			return nestValueInNamespace(bv, av), true
		}
	case *decltree.Module:
		if bv, ok := b.(*decltree.Module); ok {
			cp := *av
			cp.DeclInfo = mergedInfo(av.DeclInfo, bv.DeclInfo)
			cp.Members = append(append([]decltree.Declaration(nil), av.Members...), bv.Members...)
			return &cp, true
		}
	case *decltree.AugmentedModule:
		if bv, ok := b.(*decltree.AugmentedModule); ok {
			cp := *av
			cp.Members = append(append([]decltree.Declaration(nil), av.Members...), bv.Members...)
			return &cp, true
		}
	case *decltree.Class:
		if bv, ok := b.(*decltree.Class); ok {
			cp := *av
			cp.Members = append(append([]decltree.Member(nil), av.Members...), bv.Members...)
			return &cp, true
		}
	case *decltree.Interface:
		if bv, ok := b.(*decltree.Interface); ok {
			cp := *av
			cp.Members = append(append([]decltree.Member(nil), av.Members...), bv.Members...)
			return &cp, true
		}
	case *decltree.Enum:
		if _, ok := b.(*decltree.Enum); ok {
			// Source parity: the second enum's entries are discarded.
			return av, true
		}
	case *decltree.TypeAlias:
		if bv, ok := b.(*decltree.TypeAlias); ok {
			if decltree.TypeEqual(av.Target, bv.Target) {
				return av, true
			}
			cp := *av
			cp.Target = intersect(av.Target, bv.Target)
			return &cp, true
		}
	}
	return nil, false
}

// nestValueInNamespace handles the value-first ordering of the
// namespace/value merge: the namespace still survives, with the value nested.
func nestValueInNamespace(ns *decltree.Namespace, value decltree.Declaration) decltree.Declaration {
	cp := *ns
	cp.Members = append([]decltree.Declaration{value}, ns.Members...)
	return &cp
}

func intersect(a, b decltree.Type) decltree.Type {
	members := []decltree.Type{}
	if ai, ok := a.(decltree.Intersection); ok {
		members = append(members, ai.Members...)
	} else {
		members = append(members, a)
	}
	if bi, ok := b.(decltree.Intersection); ok {
		members = append(members, bi.Members...)
	} else {
		members = append(members, b)
	}
	return decltree.Intersection{Members: members}
}

func mergedInfo(a, b *decltree.DeclInfo) *decltree.DeclInfo {
	cp := a.CloneInfo()
	cp.Comments = append(cp.Comments, b.Comments...)
	if !cp.Location.IsPresent() && b.Location.IsPresent() {
		cp.Location = b.Location
	}
	return cp
}
