package render

import (
	"image/color"

	"skilltrainer/geom"
)

// Canvas 即时模式绘制面。宿主（ebiten、终端、显示列表）各自实现
type Canvas interface {
	Size() (w, h float64)
	Clear(c color.RGBA)
	FillRect(r geom.Rect, c color.RGBA)
	StrokeRect(r geom.Rect, width float64, c color.RGBA)
	FillCircle(center geom.Vec2, radius float64, c color.RGBA)
	StrokeCircle(center geom.Vec2, radius, width float64, c color.RGBA)
	Line(from, to geom.Vec2, width float64, c color.RGBA)
	// FillSector 从 start 角起顺时针扫过 sweep 弧度的扇形
	FillSector(center geom.Vec2, radius, start, sweep float64, c color.RGBA)
	Text(at geom.Vec2, s string, size float64, c color.RGBA)
}

// OpKind 显示列表指令
type OpKind string

const (
	OpClear        OpKind = "clear"
	OpFillRect     OpKind = "fillRect"
	OpStrokeRect   OpKind = "strokeRect"
	OpFillCircle   OpKind = "fillCircle"
	OpStrokeCircle OpKind = "strokeCircle"
	OpLine         OpKind = "line"
	OpFillSector   OpKind = "fillSector"
	OpText         OpKind = "text"
)

// Op 一条绘制指令，浏览器端按顺序回放
type Op struct {
	Kind   OpKind    `json:"op" msgpack:"op"`
	Rect   geom.Rect `json:"rect,omitempty" msgpack:"rect,omitempty"`
	A      geom.Vec2 `json:"a,omitempty" msgpack:"a,omitempty"`
	B      geom.Vec2 `json:"b,omitempty" msgpack:"b,omitempty"`
	Radius float64   `json:"r,omitempty" msgpack:"r,omitempty"`
	Width  float64   `json:"w,omitempty" msgpack:"w,omitempty"`
	Start  float64   `json:"start,omitempty" msgpack:"start,omitempty"`
	Sweep  float64   `json:"sweep,omitempty" msgpack:"sweep,omitempty"`
	Text   string    `json:"text,omitempty" msgpack:"text,omitempty"`
	Size   float64   `json:"size,omitempty" msgpack:"size,omitempty"`
	Color  [4]uint8  `json:"c" msgpack:"c"`
}

// Recorder 记录显示列表的 Canvas
type Recorder struct {
	W, H float64
	ops  []Op
}

func NewRecorder(w, h float64) *Recorder { return &Recorder{W: w, H: h} }

// Reset 复用底层数组开始新的一帧
func (r *Recorder) Reset() { r.ops = r.ops[:0] }

// Ops 当前帧的指令（调用方不得修改）
func (r *Recorder) Ops() []Op { return r.ops }

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) Clear(c color.RGBA) { r.push(Op{Kind: OpClear, Color: rgba(c)}) }

func (r *Recorder) FillRect(rect geom.Rect, c color.RGBA) {
	r.push(Op{Kind: OpFillRect, Rect: rect, Color: rgba(c)})
}

func (r *Recorder) StrokeRect(rect geom.Rect, width float64, c color.RGBA) {
	r.push(Op{Kind: OpStrokeRect, Rect: rect, Width: width, Color: rgba(c)})
}

func (r *Recorder) FillCircle(center geom.Vec2, radius float64, c color.RGBA) {
	r.push(Op{Kind: OpFillCircle, A: center, Radius: radius, Color: rgba(c)})
}

func (r *Recorder) StrokeCircle(center geom.Vec2, radius, width float64, c color.RGBA) {
	r.push(Op{Kind: OpStrokeCircle, A: center, Radius: radius, Width: width, Color: rgba(c)})
}

func (r *Recorder) Line(from, to geom.Vec2, width float64, c color.RGBA) {
	r.push(Op{Kind: OpLine, A: from, B: to, Width: width, Color: rgba(c)})
}

func (r *Recorder) FillSector(center geom.Vec2, radius, start, sweep float64, c color.RGBA) {
	r.push(Op{Kind: OpFillSector, A: center, Radius: radius, Start: start, Sweep: sweep, Color: rgba(c)})
}

func (r *Recorder) Text(at geom.Vec2, s string, size float64, c color.RGBA) {
	r.push(Op{Kind: OpText, A: at, Text: s, Size: size, Color: rgba(c)})
}

func (r *Recorder) push(op Op) { r.ops = append(r.ops, op) }

func rgba(c color.RGBA) [4]uint8 { return [4]uint8{c.R, c.G, c.B, c.A} }
