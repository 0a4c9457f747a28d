package ebitensurf

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"skilltrainer/geom"
)

// debug 字体每个字符的宽高
const (
	glyphW     = 6
	glyphH     = 16
	maxTextLen = 96
	// 调试字体较小，整体放大一些
	textScale = 1.4
)

var whitePixel *ebiten.Image

func white() *ebiten.Image {
	if whitePixel == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whitePixel = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whitePixel
}

// Canvas 把渲染指令画到 ebiten 屏幕
type Canvas struct {
	screen *ebiten.Image
	w, h   float64
}

func NewCanvas(screen *ebiten.Image, w, h float64) *Canvas {
	return &Canvas{screen: screen, w: w, h: h}
}

func (c *Canvas) Size() (float64, float64) { return c.w, c.h }

func (c *Canvas) Clear(col color.RGBA) { c.screen.Fill(col) }

func (c *Canvas) FillRect(r geom.Rect, col color.RGBA) {
	vector.DrawFilledRect(c.screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), col, false)
}

func (c *Canvas) StrokeRect(r geom.Rect, width float64, col color.RGBA) {
	vector.StrokeRect(c.screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), float32(width), col, false)
}

func (c *Canvas) FillCircle(center geom.Vec2, radius float64, col color.RGBA) {
	vector.DrawFilledCircle(c.screen, float32(center.X), float32(center.Y), float32(radius), col, true)
}

func (c *Canvas) StrokeCircle(center geom.Vec2, radius, width float64, col color.RGBA) {
	vector.StrokeCircle(c.screen, float32(center.X), float32(center.Y), float32(radius), float32(width), col, true)
}

func (c *Canvas) Line(from, to geom.Vec2, width float64, col color.RGBA) {
	vector.StrokeLine(c.screen, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y), float32(width), col, true)
}

// FillSector 用路径三角化填充扇形
func (c *Canvas) FillSector(center geom.Vec2, radius, start, sweep float64, col color.RGBA) {
	if sweep <= 0 || radius <= 0 {
		return
	}
	if sweep >= 2*math.Pi {
		c.FillCircle(center, radius, col)
		return
	}
	var p vector.Path
	p.MoveTo(float32(center.X), float32(center.Y))
	p.Arc(float32(center.X), float32(center.Y), float32(radius), float32(start), float32(start+sweep), vector.Clockwise)
	p.Close()

	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	r, g, b, a := float32(col.R)/0xff, float32(col.G)/0xff, float32(col.B)/0xff, float32(col.A)/0xff
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = r, g, b, a
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	c.screen.DrawTriangles(vs, is, white(), op)
}

// Text 内置调试字体先画到暂存图，再按颜色着色、按字号缩放
func (c *Canvas) Text(at geom.Vec2, s string, size float64, col color.RGBA) {
	if s == "" {
		return
	}
	s = s[:min(len(s), maxTextLen)]
	scratch := textScratch()
	scratch.Clear()
	ebitenutil.DebugPrint(scratch, s)

	k := math.Max(size, 1) / glyphH * textScale
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(k, k)
	op.GeoM.Translate(at.X, at.Y-glyphH*k*0.75)
	op.ColorScale.ScaleWithColor(col)
	op.Filter = ebiten.FilterLinear
	c.screen.DrawImage(scratch.SubImage(image.Rect(0, 0, len(s)*glyphW, glyphH)).(*ebiten.Image), op)
}

var scratchImage *ebiten.Image

func textScratch() *ebiten.Image {
	if scratchImage == nil {
		scratchImage = ebiten.NewImage(maxTextLen*glyphW, glyphH)
	}
	return scratchImage
}
