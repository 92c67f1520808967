package render

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/strata/terminal"
)

// Handle is a stable index into a stack's plane arena. Handles are
// non-owning; the stack owns every plane's lifetime.
type Handle int32

// InvalidHandle is the nil handle. The root plane's parent.
const InvalidHandle Handle = -1

// RootHandle identifies the always-present root plane.
const RootHandle Handle = 0

// Stack owns all planes of one rendering context and their back-to-
// front draw order. The root plane is always present, always spans the
// full frame, and is always bottommost.
//
// Planes are stored in an arena indexed by handle; tree links are
// handles, not pointers, so destroying a plane cannot leave dangling
// references and cycle checks are a plain ancestor walk.
type Stack struct {
	planes []*Plane
	free   []Handle
	order  []Handle // back-to-front, order[0] == RootHandle
}

// NewStack creates a stack whose root plane has the given size.
func NewStack(rows, cols int) *Stack {
	s := &Stack{}
	root := &Plane{
		stack:  s,
		handle: RootHandle,
		parent: InvalidHandle,
		rows:   rows,
		cols:   cols,
		cells:  make([]terminal.Cell, rows*cols),
		base:   terminal.EmptyCell(),
		wrap:   true,
	}
	s.planes = []*Plane{root}
	s.order = []Handle{RootHandle}
	return s
}

// Root returns the root plane.
func (s *Stack) Root() *Plane {
	return s.planes[RootHandle]
}

// Plane resolves a handle, nil if the handle is invalid or the plane
// was destroyed.
func (s *Stack) Plane(h Handle) *Plane {
	if h < 0 || int(h) >= len(s.planes) {
		return nil
	}
	return s.planes[h]
}

// Len returns the number of live planes including the root.
func (s *Stack) Len() int {
	return len(s.order)
}

// Order returns the back-to-front draw order. The returned slice is
// owned by the stack and valid until the next mutation.
func (s *Stack) Order() []Handle {
	return s.order
}

// Create allocates a plane of the given size at (y, x) relative to
// parent and inserts it into the draw order immediately above the
// parent. Fails with ErrInvalidGeometry for a non-positive or
// unrepresentable size.
func (s *Stack) Create(parent Handle, y, x, rows, cols int) (*Plane, error) {
	pp := s.Plane(parent)
	if pp == nil {
		return nil, errors.Wrapf(ErrInvalidGeometry, "parent handle %d", parent)
	}
	if err := checkGeometry(y, x, rows, cols); err != nil {
		return nil, err
	}

	h := s.alloc()
	p := &Plane{
		stack:  s,
		handle: h,
		parent: parent,
		y:      y,
		x:      x,
		rows:   rows,
		cols:   cols,
		cells:  make([]terminal.Cell, rows*cols),
		base:   terminal.EmptyCell(),
		wrap:   true,
	}
	s.planes[h] = p
	pp.children = append(pp.children, h)

	s.insertAfter(h, parent)
	return p, nil
}

// CreateTop is Create with a z-request for the top of the draw order.
func (s *Stack) CreateTop(parent Handle, y, x, rows, cols int) (*Plane, error) {
	p, err := s.Create(parent, y, x, rows, cols)
	if err != nil {
		return nil, err
	}
	s.removeFromOrder(p.handle)
	s.order = append(s.order, p.handle)
	return p, nil
}

// CreateAbove is Create with an explicit z-request: the new plane
// enters the draw order immediately above the given plane rather than
// above its parent.
func (s *Stack) CreateAbove(parent Handle, y, x, rows, cols int, above Handle) (*Plane, error) {
	if s.Plane(above) == nil {
		return nil, errors.Wrapf(ErrInvalidGeometry, "handle %d", above)
	}
	p, err := s.Create(parent, y, x, rows, cols)
	if err != nil {
		return nil, err
	}
	s.removeFromOrder(p.handle)
	s.insertAfter(p.handle, above)
	return p, nil
}

func (s *Stack) alloc() Handle {
	if n := len(s.free); n > 0 {
		h := s.free[n-1]
		s.free = s.free[:n-1]
		return h
	}
	s.planes = append(s.planes, nil)
	return Handle(len(s.planes) - 1)
}

func (s *Stack) orderIndex(h Handle) int {
	for i, o := range s.order {
		if o == h {
			return i
		}
	}
	return -1
}

func (s *Stack) removeFromOrder(h Handle) {
	if i := s.orderIndex(h); i >= 0 {
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
}

func (s *Stack) insertAfter(h, below Handle) {
	i := s.orderIndex(below)
	s.order = append(s.order, 0)
	copy(s.order[i+2:], s.order[i+1:])
	s.order[i+1] = h
}

// MoveTop raises the plane to the top of the draw order.
func (s *Stack) MoveTop(h Handle) error {
	if h == RootHandle {
		return ErrRootPlane
	}
	if s.Plane(h) == nil {
		return errors.Wrapf(ErrInvalidGeometry, "handle %d", h)
	}
	s.removeFromOrder(h)
	s.order = append(s.order, h)
	return nil
}

// MoveBottom lowers the plane to the bottom of the draw order,
// immediately above the root.
func (s *Stack) MoveBottom(h Handle) error {
	if h == RootHandle {
		return ErrRootPlane
	}
	if s.Plane(h) == nil {
		return errors.Wrapf(ErrInvalidGeometry, "handle %d", h)
	}
	s.removeFromOrder(h)
	s.insertAfter(h, RootHandle)
	return nil
}

// MoveAbove places the plane immediately above other in the draw order.
func (s *Stack) MoveAbove(h, other Handle) error {
	if h == RootHandle {
		return ErrRootPlane
	}
	if s.Plane(h) == nil || s.Plane(other) == nil || h == other {
		return errors.Wrapf(ErrInvalidGeometry, "handles %d, %d", h, other)
	}
	s.removeFromOrder(h)
	s.insertAfter(h, other)
	return nil
}

// MoveBelow places the plane immediately below other in the draw
// order. Nothing ever goes below the root.
func (s *Stack) MoveBelow(h, other Handle) error {
	if h == RootHandle {
		return ErrRootPlane
	}
	if s.Plane(h) == nil || s.Plane(other) == nil || h == other {
		return errors.Wrapf(ErrInvalidGeometry, "handles %d, %d", h, other)
	}
	if other == RootHandle {
		return s.MoveBottom(h)
	}
	s.removeFromOrder(h)
	i := s.orderIndex(other)
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = h
	return nil
}

// Reparent moves the plane under a new parent, keeping its origin
// relative to that parent. Fails with ErrCycleDetected when newParent
// is the plane itself or one of its descendants.
func (s *Stack) Reparent(h, newParent Handle) error {
	if h == RootHandle {
		return ErrRootPlane
	}
	p := s.Plane(h)
	np := s.Plane(newParent)
	if p == nil || np == nil {
		return errors.Wrapf(ErrInvalidGeometry, "handles %d, %d", h, newParent)
	}
	for a := newParent; a != InvalidHandle; a = s.planes[a].parent {
		if a == h {
			return errors.Wrapf(ErrCycleDetected, "plane %d under its descendant %d", h, newParent)
		}
	}
	s.unlinkChild(p.parent, h)
	p.parent = newParent
	np.children = append(np.children, h)
	return nil
}

func (s *Stack) unlinkChild(parent, h Handle) {
	pp := s.Plane(parent)
	if pp == nil {
		return
	}
	for i, c := range pp.children {
		if c == h {
			pp.children = append(pp.children[:i], pp.children[i+1:]...)
			return
		}
	}
}

// Destroy removes the plane from the stack. With destroyChildren set
// the whole subtree is destroyed; otherwise children are reparented to
// the destroyed plane's parent with their absolute positions preserved.
// The root plane cannot be destroyed.
func (s *Stack) Destroy(h Handle, destroyChildren bool) error {
	if h == RootHandle {
		return ErrRootPlane
	}
	p := s.Plane(h)
	if p == nil {
		return errors.Wrapf(ErrInvalidGeometry, "handle %d", h)
	}

	if destroyChildren {
		for len(p.children) > 0 {
			s.Destroy(p.children[0], true)
		}
	} else {
		for _, c := range p.children {
			child := s.planes[c]
			child.parent = p.parent
			child.y += p.y
			child.x += p.x
			if pp := s.Plane(p.parent); pp != nil {
				pp.children = append(pp.children, c)
			}
		}
		p.children = nil
	}

	s.unlinkChild(p.parent, h)
	s.removeFromOrder(h)
	s.planes[h] = nil
	s.free = append(s.free, h)
	return nil
}
