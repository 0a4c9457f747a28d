// Package termsurf 终端宿主：把逻辑画布栅格化到字符格，用 tcell 输出与读取鼠标键盘
package termsurf

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"skilltrainer/geom"
)

type cell struct {
	ch     rune
	fg, bg color.RGBA
}

// Canvas 逻辑坐标按比例落到 cols x rows 个字符格，每格记录字符与前景背景色
type Canvas struct {
	w, h       float64
	cols, rows int
	cells      []cell
}

func NewCanvas(w, h float64, cols, rows int) *Canvas {
	c := &Canvas{w: w, h: h}
	c.Resize(cols, rows)
	return c
}

// Resize 终端尺寸变化后调用，清空内容
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	c.cells = make([]cell, c.cols*c.rows)
}

func (c *Canvas) Size() (float64, float64) { return c.w, c.h }

// Grid 字符格行列数
func (c *Canvas) Grid() (int, int) { return c.cols, c.rows }

func (c *Canvas) cellW() float64 { return c.w / float64(c.cols) }
func (c *Canvas) cellH() float64 { return c.h / float64(c.rows) }

// CellAt 逻辑坐标所在的格
func (c *Canvas) CellAt(p geom.Vec2) (int, int) {
	return int(math.Floor(p.X / c.cellW())), int(math.Floor(p.Y / c.cellH()))
}

// CellCenter 格中心的逻辑坐标，鼠标事件用它换算
func (c *Canvas) CellCenter(col, row int) geom.Vec2 {
	return geom.V((float64(col)+0.5)*c.cellW(), (float64(row)+0.5)*c.cellH())
}

func (c *Canvas) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return nil
	}
	return &c.cells[row*c.cols+col]
}

// Cell 读取某格内容
func (c *Canvas) Cell(col, row int) (rune, color.RGBA, color.RGBA) {
	if p := c.at(col, row); p != nil {
		return p.ch, p.fg, p.bg
	}
	return 0, color.RGBA{}, color.RGBA{}
}

func (c *Canvas) Clear(col color.RGBA) {
	for i := range c.cells {
		c.cells[i] = cell{ch: ' ', bg: col, fg: col}
	}
}

// fill 格中心落在 inside 里的格子刷背景色；没有格子命中时按 fallback 点亮中心所在格
func (c *Canvas) fill(box geom.Rect, inside func(geom.Vec2) bool, col color.RGBA, fallback geom.Vec2) {
	c0, r0 := c.CellAt(geom.V(box.X, box.Y))
	c1, r1 := c.CellAt(geom.V(box.Right(), box.Bottom()))
	hit := false
	for y := max(r0, 0); y <= min(r1, c.rows-1); y++ {
		for x := max(c0, 0); x <= min(c1, c.cols-1); x++ {
			if !inside(c.CellCenter(x, y)) {
				continue
			}
			hit = true
			p := c.at(x, y)
			p.bg = blend(p.bg, col)
			// 不透明填充盖掉原有字符
			if col.A == 0xff || p.ch == ' ' {
				p.ch, p.fg = ' ', p.bg
			}
		}
	}
	if !hit {
		c.plot(fallback, '•', col)
	}
}

// plot 在点所在格写一个前景字符
func (c *Canvas) plot(at geom.Vec2, ch rune, col color.RGBA) {
	if p := c.at(c.CellAt(at)); p != nil {
		p.ch = ch
		p.fg = blend(p.bg, col)
	}
}

func (c *Canvas) FillRect(r geom.Rect, col color.RGBA) {
	c.fill(r, r.Contains, col, r.Center())
}

func (c *Canvas) StrokeRect(r geom.Rect, _ float64, col color.RGBA) {
	tl, tr := geom.V(r.X, r.Y), geom.V(r.Right(), r.Y)
	bl, br := geom.V(r.X, r.Bottom()), geom.V(r.Right(), r.Bottom())
	c.walk(tl, tr, '─', col)
	c.walk(bl, br, '─', col)
	c.walk(tl, bl, '│', col)
	c.walk(tr, br, '│', col)
	for _, p := range []geom.Vec2{tl, tr, bl, br} {
		c.plot(p, '+', col)
	}
}

func (c *Canvas) FillCircle(center geom.Vec2, radius float64, col color.RGBA) {
	box := geom.R(center.X-radius, center.Y-radius, 2*radius, 2*radius)
	c.fill(box, func(p geom.Vec2) bool { return p.Dist(center) <= radius }, col, center)
}

// StrokeCircle 距圆周不足半格的格子写前景点
func (c *Canvas) StrokeCircle(center geom.Vec2, radius, _ float64, col color.RGBA) {
	half := math.Max(c.cellW(), c.cellH()) / 2
	box := geom.R(center.X-radius-half, center.Y-radius-half, 2*(radius+half), 2*(radius+half))
	c0, r0 := c.CellAt(geom.V(box.X, box.Y))
	c1, r1 := c.CellAt(geom.V(box.Right(), box.Bottom()))
	for y := max(r0, 0); y <= min(r1, c.rows-1); y++ {
		for x := max(c0, 0); x <= min(c1, c.cols-1); x++ {
			p := c.CellCenter(x, y)
			if math.Abs(p.Dist(center)-radius) <= half {
				c.plot(p, '·', col)
			}
		}
	}
}

func (c *Canvas) Line(from, to geom.Vec2, _ float64, col color.RGBA) {
	d := to.Sub(from)
	var ch rune
	switch {
	case math.Abs(d.Y) < math.Abs(d.X)/4:
		ch = '─'
	case math.Abs(d.X) < math.Abs(d.Y)/4:
		ch = '│'
	case (d.X > 0) == (d.Y > 0):
		ch = '╲'
	default:
		ch = '╱'
	}
	c.walk(from, to, ch, col)
}

// walk 以半格步长沿线段逐格写字符
func (c *Canvas) walk(from, to geom.Vec2, ch rune, col color.RGBA) {
	step := math.Min(c.cellW(), c.cellH()) / 2
	n := int(math.Ceil(from.Dist(to)/step)) + 1
	lc, lr := -1, -1
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p := from.Lerp(to, t)
		cc, cr := c.CellAt(p)
		if cc == lc && cr == lr {
			continue
		}
		lc, lr = cc, cr
		c.plot(p, ch, col)
	}
}

func (c *Canvas) FillSector(center geom.Vec2, radius, start, sweep float64, col color.RGBA) {
	if sweep <= 0 || radius <= 0 {
		return
	}
	box := geom.R(center.X-radius, center.Y-radius, 2*radius, 2*radius)
	c.fill(box, func(p geom.Vec2) bool {
		if p.Dist(center) > radius {
			return false
		}
		if sweep >= 2*math.Pi {
			return true
		}
		a := math.Mod(p.Sub(center).Angle()-start, 2*math.Pi)
		if a < 0 {
			a += 2 * math.Pi
		}
		return a <= sweep
	}, col, center)
}

// Text at 为基线左端；字号不影响终端里的字宽
func (c *Canvas) Text(at geom.Vec2, s string, _ float64, col color.RGBA) {
	cc, cr := c.CellAt(geom.V(at.X, at.Y-c.cellH()/2))
	for _, r := range s {
		if p := c.at(cc, cr); p != nil {
			p.ch = r
			p.fg = col
		}
		cc++
	}
}

// Flush 把全部格子写到屏幕并显示
func (c *Canvas) Flush(screen tcell.Screen) {
	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.cols; col++ {
			p := c.cells[row*c.cols+col]
			ch := p.ch
			if ch == 0 {
				ch = ' '
			}
			style := tcell.StyleDefault.Foreground(rgb(p.fg)).Background(rgb(p.bg))
			screen.SetContent(col, row, ch, nil, style)
		}
	}
	screen.Show()
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// blend 按 src 的 alpha 叠加到不透明的 dst 上
func blend(dst, src color.RGBA) color.RGBA {
	if src.A == 0xff {
		return src
	}
	a := float64(src.A) / 0xff
	mix := func(d, s uint8) uint8 { return uint8(math.Round(float64(s)*a + float64(d)*(1-a))) }
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 0xff}
}
