// SPDX-License-Identifier: Unlicense OR MIT

package raster

import (
	"image"
	"testing"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/render"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

func TestCompositePaintsFilledRectangle(t *testing.T) {
	canvas := transform.Bounds{Lx: 0, Ly: 0, Ux: 64, Uy: 64}
	scene := scenepkg.NewScene()
	g := geometry.New()
	g.AddBounds(transform.Bounds{Lx: 8, Ly: 8, Ux: 32, Uy: 32})
	red := colorant.RGBA(255, 0, 0, 255)
	scene.AddPath(g, transform.Identity, red, 0, 0, canvas)

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, canvas)

	buf := render.Render(list, render.Options{Width: 64, Height: 64})

	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	Composite(buf, dst)

	inside := dst.RGBAAt(20, 20)
	if inside.R == 0 && inside.A == 0 {
		t.Fatalf("pixel inside the filled rectangle is fully transparent: %+v", inside)
	}
	outside := dst.RGBAAt(1, 1)
	if outside.A != 0 {
		t.Fatalf("pixel outside the filled rectangle is not transparent: %+v", outside)
	}
}

func TestCompositeEmptyBufferLeavesDestinationUntouched(t *testing.T) {
	buf := render.NewBuffer(0)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	Composite(buf, dst)
	for _, px := range dst.Pix {
		if px != 0 {
			t.Fatalf("Composite of an empty Buffer modified the destination")
		}
	}
}
