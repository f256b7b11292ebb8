package mesh

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// axis returns the component of v along kd-tree dimension d.
func axis(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic("mesh: kd-tree dimension out of range")
}

// vertexPoint is a vertex position tagged with its arena index.
type vertexPoint struct {
	r3.Vec
	index int
}

func (p vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return axis(p.Vec, d) - axis(c.(vertexPoint).Vec, d)
}

func (p vertexPoint) Dims() int { return 3 }

// Distance is squared, as kdtree keepers expect.
func (p vertexPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.Vec, c.(vertexPoint).Vec))
}

// vertexSet is the kdtree.Interface over a slice of vertex points.
type vertexSet []vertexPoint

func (s vertexSet) Index(i int) kdtree.Comparable         { return s[i] }
func (s vertexSet) Len() int                              { return len(s) }
func (s vertexSet) Slice(start, end int) kdtree.Interface { return s[start:end] }

func (s vertexSet) Pivot(d kdtree.Dim) int {
	byAxis := axisOrder{set: s, dim: d}
	return kdtree.Partition(byAxis, kdtree.MedianOfRandoms(byAxis, 100))
}

// axisOrder sorts a vertex set along one dimension for pivot selection.
type axisOrder struct {
	set vertexSet
	dim kdtree.Dim
}

func (o axisOrder) Len() int { return len(o.set) }

func (o axisOrder) Less(i, j int) bool {
	return o.set[i].Compare(o.set[j], o.dim) < 0
}

func (o axisOrder) Swap(i, j int) { o.set[i], o.set[j] = o.set[j], o.set[i] }

func (o axisOrder) Slice(start, end int) kdtree.SortSlicer {
	return axisOrder{set: o.set[start:end], dim: o.dim}
}

// Locator answers nearest-vertex queries against a snapshot of a surface's
// vertex positions. It does not follow later edits to the surface.
type Locator struct {
	tree *kdtree.Tree
	n    int
}

// NewLocator indexes the vertex positions of s.
func NewLocator(s *Surface) *Locator {
	pts := make(vertexSet, len(s.Vertices))
	for i, v := range s.Vertices {
		pts[i] = vertexPoint{Vec: v.Position, index: i}
	}
	l := &Locator{n: len(pts)}
	if len(pts) > 0 {
		l.tree = kdtree.New(pts, true)
	}
	return l
}

// Len returns the number of indexed vertices.
func (l *Locator) Len() int { return l.n }

// Nearest returns the index of the vertex closest to p and its Euclidean
// distance. ok is false for an empty surface.
func (l *Locator) Nearest(p r3.Vec) (index int, dist float64, ok bool) {
	if l.tree == nil {
		return -1, math.Inf(1), false
	}
	c, d2 := l.tree.Nearest(vertexPoint{Vec: p})
	if c == nil {
		return -1, math.Inf(1), false
	}
	return c.(vertexPoint).index, math.Sqrt(d2), true
}

// KNearest returns up to k vertex indices ordered by increasing distance.
func (l *Locator) KNearest(p r3.Vec, k int) []int {
	if l.tree == nil || k <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(k)
	l.tree.NearestSet(keeper, vertexPoint{Vec: p})
	return collect(keeper.Heap)
}

// Within returns the indices of all vertices at distance at most radius
// from p, ordered by increasing distance.
func (l *Locator) Within(p r3.Vec, radius float64) []int {
	if l.tree == nil || radius < 0 {
		return nil
	}
	keeper := kdtree.NewDistKeeper(radius * radius)
	l.tree.NearestSet(keeper, vertexPoint{Vec: p})
	return collect(keeper.Heap)
}

func collect(h kdtree.Heap) []int {
	items := make([]kdtree.ComparableDist, 0, len(h))
	for _, item := range h {
		if item.Comparable == nil {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Dist != items[j].Dist {
			return items[i].Dist < items[j].Dist
		}
		return items[i].Comparable.(vertexPoint).index < items[j].Comparable.(vertexPoint).index
	})
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.Comparable.(vertexPoint).index
	}
	return out
}
