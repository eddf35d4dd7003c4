// SPDX-License-Identifier: Unlicense OR MIT

// Command rasterize is a minimal smoke-test binary: it builds a small demo
// scene, runs it through render.Render and raster.Composite, and writes the
// result as a PNG. It exists to exercise SceneList -> Buffer -> image.RGBA
// end to end, not as a general-purpose rasterizing tool — there is no file
// format for describing scenes, only a few flags.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"

	"golang.org/x/image/draw"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/raster"
	"github.com/mindbrix/Rasterizer-sub000/render"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

func main() {
	width := flag.Int("w", 512, "canvas width")
	height := flag.Int("h", 512, "canvas height")
	previewW := flag.Int("preview-w", 256, "preview width")
	out := flag.String("o", "out.png", "output PNG path")
	flag.Parse()

	buf := render.Render(demoScene(*width, *height), render.Options{
		Width:  *width,
		Height: *height,
	})

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	raster.Composite(buf, img)

	preview := img
	if *previewW > 0 && *previewW != *width {
		previewH := *height * *previewW / *width
		scaled := image.NewRGBA(image.Rect(0, 0, *previewW, previewH))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		preview = scaled
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, preview); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%dx%d)\n", *out, preview.Bounds().Dx(), preview.Bounds().Dy())
}

// demoScene builds a handful of filled and stroked shapes sized to fill a
// w x h canvas, enough to exercise both the fill and stroke pipelines.
func demoScene(w, h int) *scenepkg.SceneList {
	canvas := transform.Bounds{Lx: 0, Ly: 0, Ux: float32(w), Uy: float32(h)}

	scene := scenepkg.NewScene()

	square := geometry.New()
	square.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: float32(w) / 3, Uy: float32(h) / 3})
	scene.AddPath(square, transform.Transform{A: 1, D: 1, TX: float32(w) / 8, TY: float32(h) / 8},
		colorant.RGBA(220, 60, 60, 255), 0, 0, canvas)

	circle := geometry.New()
	circle.AddEllipse(transform.Bounds{Lx: 0, Ly: 0, Ux: float32(w) / 3, Uy: float32(h) / 3})
	scene.AddPath(circle, transform.Transform{A: 1, D: 1, TX: float32(w) / 2, TY: float32(h) / 3},
		colorant.RGBA(60, 120, 220, 220), 0, 0, canvas)

	line := geometry.New()
	line.MoveTo(float32(w)/8, float32(h)*3/4)
	line.LineTo(float32(w)*7/8, float32(h)*3/4)
	scene.AddPath(line, transform.Identity, colorant.RGBA(40, 180, 90, 255), 6, 0, canvas)

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, canvas)
	return list
}
