// SPDX-License-Identifier: Unlicense OR MIT

package scenepkg

import "github.com/mindbrix/Rasterizer-sub000/transform"

// SceneList is an ordered sequence of (scene, scene-transform, scene-clip-
// transform) with a root CTM and a UseCurves hint.
type SceneList struct {
	Scenes []*Scene
	CTMs   []transform.Transform
	Clips  []transform.Bounds

	CTM       transform.Transform
	UseCurves bool
}

// NewSceneList returns an empty SceneList with an identity root CTM.
func NewSceneList() *SceneList {
	return &SceneList{CTM: transform.Identity}
}

// Add appends a scene with its own transform and clip rectangle.
func (l *SceneList) Add(s *Scene, ctm transform.Transform, clip transform.Bounds) {
	l.Scenes = append(l.Scenes, s)
	l.CTMs = append(l.CTMs, ctm)
	l.Clips = append(l.Clips, clip)
}

// PathsCount returns the total item count across every scene.
func (l *SceneList) PathsCount() int {
	n := 0
	for _, s := range l.Scenes {
		n += s.Count
	}
	return n
}

// Bounds returns the aggregate bounds of every scene, mapped through the
// scene's own transform and the root CTM.
func (l *SceneList) Bounds() transform.Bounds {
	b := transform.EmptyBounds
	for i, s := range l.Scenes {
		sb := s.Bounds()
		if sb.Empty() {
			continue
		}
		q := sb.Quad(l.CTM.Concat(l.CTMs[i]))
		b = b.Extend(q.UnitSquareBounds())
	}
	return b
}

// ItemRef identifies one scene item by its owning scene and local index
// within that scene.
type ItemRef struct {
	Scene int
	Item  int
}

// Flatten returns, for every scene item in SceneList order, its
// (scene,item) ref and its geometry-opcode weight — the per-item data
// the Renderer's shard-boundary walk needs.
func (l *SceneList) Flatten() (refs []ItemRef, weights []int) {
	for si, s := range l.Scenes {
		for ii := 0; ii < s.Count; ii++ {
			refs = append(refs, ItemRef{Scene: si, Item: ii})
			weights = append(weights, len(s.Paths[ii].Types))
		}
	}
	return refs, weights
}

// Weight returns the aggregate path-opcode count used to balance parallel
// shard boundaries.
func (l *SceneList) Weight() int {
	w := 0
	for _, s := range l.Scenes {
		w += s.Weight
	}
	return w
}
