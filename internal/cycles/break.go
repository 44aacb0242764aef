package cycles

import (
	"fmt"
	"strings"

	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/transform"
)

// Instruction names one declaration to rewrite and the full cycle it breaks.
// One instruction is emitted per strongly-connected component.
type Instruction struct {
	Target   declpath.QName
	Circular []declpath.QName
}

// BreakCircularGroups picks one representative per group: a caller-supplied
// preferred target when the group contains one, else the most-referenced
// member, else the first.
func BreakCircularGroups(g *Graph, groups []Group, preferred []declpath.QName) []Instruction {
	var out []Instruction
	for _, grp := range groups {
		out = append(out, Instruction{Target: pickTarget(g, grp, preferred), Circular: grp.Members})
	}
	return out
}

func pickTarget(g *Graph, grp Group, preferred []declpath.QName) declpath.QName {
	for _, p := range preferred {
		if grp.Contains(p) {
			return p
		}
	}
	best := grp.Members[0]
	bestCount := g.RefCount(best)
	for _, m := range grp.Members[1:] {
		if count := g.RefCount(m); count > bestCount {
			best, bestCount = m, count
		}
	}
	return best
}

// Rewrite applies the cycle-break instructions to a tree: every matched
// type alias is realized as an interface so the nominal target can close the
// cycle through inheritance instead of aliasing. Each rewritten declaration
// gains a comment naming the cycle it broke.
func Rewrite(root decltree.Container, instructions []Instruction) decltree.Container {
	byTarget := make(map[string]Instruction, len(instructions))
	for _, ins := range instructions {
		byTarget[ins.Target.Key()] = ins
	}
	rw := &breaker{byTarget: byTarget}
	return transform.Apply[declpath.QName](rw, declpath.NewQName(), root).(decltree.Container)
}

type breaker struct {
	transform.Identity[declpath.QName]
	byTarget map[string]Instruction
}

func (b *breaker) ChildContext(path declpath.QName, c decltree.Container) declpath.QName {
	return containerPath(path, c)
}

func (b *breaker) Enter(path declpath.QName, d decltree.Declaration) decltree.Declaration {
	alias, ok := d.(*decltree.TypeAlias)
	if !ok {
		return d
	}
	ins, matched := b.byTarget[path.Add(alias.Name).Key()]
	if !matched {
		return d
	}
	if rewritten, ok := aliasToInterface(alias); ok {
		info := rewritten.Info()
		info.Comments = append(info.Comments, cycleComment(ins))
		return rewritten
	}
	return d
}

// aliasToInterface realizes an alias as an interface, by target shape:
// object keeps its members, a function type becomes one call signature, a
// named reference becomes zero-member inheritance, an intersection of
// references becomes multiple inheritance.
func aliasToInterface(alias *decltree.TypeAlias) (*decltree.Interface, bool) {
	iface := &decltree.Interface{
		DeclInfo:   alias.CloneInfo(),
		Name:       alias.Name,
		TypeParams: alias.TypeParams,
	}
	switch target := alias.Target.(type) {
	case decltree.Object:
		iface.Members = target.Members
		return iface, true
	case decltree.Func:
		iface.Members = []decltree.Member{decltree.Call{Signature: target.Signature}}
		return iface, true
	case decltree.Named:
		iface.Extends = []decltree.Type{target}
		return iface, true
	case decltree.Intersection:
		for _, m := range target.Members {
			named, ok := m.(decltree.Named)
			if !ok {
				return nil, false
			}
			iface.Extends = append(iface.Extends, named)
		}
		return iface, true
	default:
		return nil, false
	}
}

func cycleComment(ins Instruction) string {
	names := make([]string, len(ins.Circular))
	for i, n := range ins.Circular {
		names[i] = n.String()
	}
	return fmt.Sprintf("Realized as an interface to break the reference cycle %s.", strings.Join(names, " -> "))
}
