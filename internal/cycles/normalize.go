package cycles

import (
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/transform"
)

// AliasesToInterfaces converts every alias-over-object-type into an
// interface, except aliases that are part of a cycle group (those are
// handled by the break instructions, which also leave a comment).
func AliasesToInterfaces(root decltree.Container, groups []Group) decltree.Container {
	inCycle := cycleSet(groups)
	rw := &aliasNormalizer{inCycle: inCycle}
	return transform.Apply[declpath.QName](rw, declpath.NewQName(), root).(decltree.Container)
}

type aliasNormalizer struct {
	transform.Identity[declpath.QName]
	inCycle map[string]bool
}

func (a *aliasNormalizer) ChildContext(path declpath.QName, c decltree.Container) declpath.QName {
	return containerPath(path, c)
}

func (a *aliasNormalizer) Enter(path declpath.QName, d decltree.Declaration) decltree.Declaration {
	alias, ok := d.(*decltree.TypeAlias)
	if !ok {
		return d
	}
	if a.inCycle[path.Add(alias.Name).Key()] {
		return d
	}
	if _, isObject := alias.Target.(decltree.Object); !isObject {
		return d
	}
	if rewritten, ok := aliasToInterface(alias); ok {
		return rewritten
	}
	return d
}

// InterfacesToAliases converts interfaces the structural direction: an
// interface containing only call signatures becomes a function-type alias
// (or an object alias for several overloads); one with only plain property
// and method members and no inheritance becomes an object-type alias.
func InterfacesToAliases(root decltree.Container) decltree.Container {
	return transform.Apply[struct{}](&ifaceNormalizer{}, struct{}{}, root).(decltree.Container)
}

type ifaceNormalizer struct {
	transform.Identity[struct{}]
}

func (n *ifaceNormalizer) Enter(_ struct{}, d decltree.Declaration) decltree.Declaration {
	iface, ok := d.(*decltree.Interface)
	if !ok || len(iface.Extends) > 0 || len(iface.Members) == 0 {
		return d
	}

	onlyCalls := true
	onlyPlain := true
	for _, m := range iface.Members {
		switch mm := m.(type) {
		case decltree.Call:
			onlyPlain = false
		case decltree.Property:
			onlyCalls = false
			if mm.Static {
				onlyPlain = false
			}
		case decltree.Method:
			onlyCalls = false
			if mm.Static {
				onlyPlain = false
			}
		default:
			onlyCalls = false
			onlyPlain = false
		}
	}

	switch {
	case onlyCalls && len(iface.Members) == 1:
		call := iface.Members[0].(decltree.Call)
		return &decltree.TypeAlias{
			DeclInfo:   iface.CloneInfo(),
			Name:       iface.Name,
			TypeParams: iface.TypeParams,
			Target:     decltree.Func{Signature: call.Signature},
		}
	case onlyCalls || onlyPlain:
		return &decltree.TypeAlias{
			DeclInfo:   iface.CloneInfo(),
			Name:       iface.Name,
			TypeParams: iface.TypeParams,
			Target:     decltree.Object{Members: iface.Members},
		}
	default:
		return d
	}
}

func cycleSet(groups []Group) map[string]bool {
	set := make(map[string]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			set[m.Key()] = true
		}
	}
	return set
}
