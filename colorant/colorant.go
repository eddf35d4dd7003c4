// SPDX-License-Identifier: Unlicense OR MIT

// Package colorant provides the rasterizer's storage-order pixel color type.
// Colorant carries no premultiplied-alpha or linear-light conversion: it
// works in straight, storage-order BGRA octets and leaves blending
// semantics to the downstream consumer.
package colorant

// Colorant is four octets in BGRA storage order, with no
// premultiplication applied at this layer.
type Colorant struct {
	B, G, R, A uint8
}

// Opaque reports whether c is fully opaque.
func (c Colorant) Opaque() bool {
	return c.A == 255
}

// RGBA constructs a Colorant from separate red, green, blue and alpha
// octets.
func RGBA(r, g, b, a uint8) Colorant {
	return Colorant{B: b, G: g, R: r, A: a}
}
