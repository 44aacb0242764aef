package transform

import (
	"github.com/declbridge/declbridge/internal/decltree"
)

// Transform is a tree transformation parameterized by a per-node context C.
// Enter runs before a node's children are visited, Leave after. ChildContext
// derives the context children are visited under; scoped transforms push the
// container there, stateless ones return the context unchanged.
type Transform[C any] interface {
	Enter(ctx C, d decltree.Declaration) decltree.Declaration
	Leave(ctx C, d decltree.Declaration) decltree.Declaration
	ChildContext(ctx C, container decltree.Container) C
}

// MemberListRewriter is an optional specialization: a transform implementing
// it gets the whole member list of each container at once, replacing it in a
// single step instead of rewriting members individually. Flattening and
// generic expansion use this.
type MemberListRewriter[C any] interface {
	RewriteMembers(ctx C, container decltree.Container, members []decltree.Declaration) []decltree.Declaration
}

// Identity is a no-op Transform for embedding; override what you need.
type Identity[C any] struct{}

func (Identity[C]) Enter(_ C, d decltree.Declaration) decltree.Declaration { return d }
func (Identity[C]) Leave(_ C, d decltree.Declaration) decltree.Declaration { return d }
func (Identity[C]) ChildContext(ctx C, _ decltree.Container) C             { return ctx }

// Apply runs one transform over a declaration tree: depth-first, pre-order
// Enter, post-order Leave, single pass, synchronous.
func Apply[C any](t Transform[C], ctx C, d decltree.Declaration) decltree.Declaration {
	d = t.Enter(ctx, d)
	if container, ok := d.(decltree.Container); ok {
		childCtx := t.ChildContext(ctx, container)
		members := container.ContainerMembers()

		if rewriter, ok := t.(MemberListRewriter[C]); ok {
			members = rewriter.RewriteMembers(childCtx, container, members)
		}

		changed := false
		out := make([]decltree.Declaration, len(members))
		for i, m := range members {
			out[i] = Apply(t, childCtx, m)
			if out[i] != m {
				changed = true
			}
		}
		if changed || len(out) != len(container.ContainerMembers()) {
			d = container.WithMembers(out)
		} else if _, isRewriter := t.(MemberListRewriter[C]); isRewriter {
			d = container.WithMembers(out)
		}
	}
	return t.Leave(ctx, d)
}

// composed applies both transforms' hooks in order. Sequential composition
// must run first's hook then second's at every point; running only the
// first is a subtle and historically easy mistake.
type composed[C any] struct {
	first, second Transform[C]
}

// Compose chains two transforms into one.
func Compose[C any](first, second Transform[C]) Transform[C] {
	return composed[C]{first: first, second: second}
}

func (c composed[C]) Enter(ctx C, d decltree.Declaration) decltree.Declaration {
	return c.second.Enter(ctx, c.first.Enter(ctx, d))
}

func (c composed[C]) Leave(ctx C, d decltree.Declaration) decltree.Declaration {
	return c.second.Leave(ctx, c.first.Leave(ctx, d))
}

func (c composed[C]) ChildContext(ctx C, container decltree.Container) C {
	return c.second.ChildContext(c.first.ChildContext(ctx, container), container)
}

func (c composed[C]) RewriteMembers(ctx C, container decltree.Container, members []decltree.Declaration) []decltree.Declaration {
	if r, ok := c.first.(MemberListRewriter[C]); ok {
		members = r.RewriteMembers(ctx, container, members)
	}
	if r, ok := c.second.(MemberListRewriter[C]); ok {
		members = r.RewriteMembers(ctx, container, members)
	}
	return members
}
