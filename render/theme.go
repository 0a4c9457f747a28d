package render

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"skilltrainer/sim"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Theme 渲染使用的颜色令牌
type Theme struct {
	Name       string
	Background color.RGBA
	Guide      color.RGBA // 可移动区域与兵线
	Tower      color.RGBA
	Player     color.RGBA
	Target     color.RGBA
	Creep      color.RGBA
	HealthBack color.RGBA
	Health     color.RGBA
	Hostile    color.RGBA
	Shot       color.RGBA
	Area       color.RGBA
	Designated color.RGBA
	Aim        color.RGBA
	Text       color.RGBA
	TextDim    color.RGBA
	Button     color.RGBA
	ButtonEdge color.RGBA
	Cooldown   color.RGBA
	Stick      color.RGBA
	Knob       color.RGBA
	Scrim      color.RGBA
	Tones      map[sim.Tone]color.RGBA
}

// Tone 语义色调对应的颜色，未定义时使用正文色
func (t Theme) Tone(tone sim.Tone) color.RGBA {
	if c, ok := t.Tones[tone]; ok {
		return c
	}
	return t.Text
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

var themes = map[string]Theme{
	"dark": {
		Name:       "dark",
		Background: rgb(0x12, 0x14, 0x1c),
		Guide:      rgb(0x2a, 0x2f, 0x3d),
		Tower:      rgb(0x8a, 0x3b, 0x3b),
		Player:     rgb(0x4f, 0xc3, 0xf7),
		Target:     rgb(0xff, 0xb7, 0x4d),
		Creep:      rgb(0xe5, 0x73, 0x73),
		HealthBack: rgb(0x33, 0x33, 0x33),
		Health:     rgb(0x81, 0xc7, 0x84),
		Hostile:    rgb(0xef, 0x53, 0x50),
		Shot:       rgb(0x80, 0xde, 0xea),
		Area:       color.RGBA{R: 0xba, G: 0x68, B: 0xc8, A: 0xa0},
		Designated: rgb(0xff, 0xee, 0x58),
		Aim:        color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x60},
		Text:       rgb(0xec, 0xef, 0xf1),
		TextDim:    rgb(0x90, 0xa4, 0xae),
		Button:     color.RGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xd0},
		ButtonEdge: rgb(0x78, 0x90, 0x9c),
		Cooldown:   color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xa0},
		Stick:      color.RGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0x90},
		Knob:       rgb(0xb0, 0xbe, 0xc5),
		Scrim:      color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xb0},
		Tones: map[sim.Tone]color.RGBA{
			sim.ToneHit:     rgb(0xff, 0xd5, 0x4f),
			sim.ToneMiss:    rgb(0x90, 0xa4, 0xae),
			sim.ToneGold:    rgb(0xff, 0xca, 0x28),
			sim.TonePerfect: rgb(0xab, 0x47, 0xbc),
			sim.ToneCast:    rgb(0x4f, 0xc3, 0xf7),
			sim.ToneDanger:  rgb(0xef, 0x53, 0x50),
		},
	},
	"light": {
		Name:       "light",
		Background: rgb(0xf5, 0xf5, 0xf5),
		Guide:      rgb(0xd0, 0xd4, 0xdc),
		Tower:      rgb(0xb7, 0x1c, 0x1c),
		Player:     rgb(0x02, 0x77, 0xbd),
		Target:     rgb(0xef, 0x6c, 0x00),
		Creep:      rgb(0xc6, 0x28, 0x28),
		HealthBack: rgb(0xbd, 0xbd, 0xbd),
		Health:     rgb(0x2e, 0x7d, 0x32),
		Hostile:    rgb(0xd3, 0x2f, 0x2f),
		Shot:       rgb(0x00, 0x83, 0x8f),
		Area:       color.RGBA{R: 0x8e, G: 0x24, B: 0xaa, A: 0x90},
		Designated: rgb(0xf9, 0xa8, 0x25),
		Aim:        color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x50},
		Text:       rgb(0x21, 0x21, 0x21),
		TextDim:    rgb(0x75, 0x75, 0x75),
		Button:     color.RGBA{R: 0xcf, G: 0xd8, B: 0xdc, A: 0xe0},
		ButtonEdge: rgb(0x60, 0x7d, 0x8b),
		Cooldown:   color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x70},
		Stick:      color.RGBA{R: 0xb0, G: 0xbe, B: 0xc5, A: 0x90},
		Knob:       rgb(0x54, 0x6e, 0x7a),
		Scrim:      color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xc0},
		Tones: map[sim.Tone]color.RGBA{
			sim.ToneHit:     rgb(0xef, 0x6c, 0x00),
			sim.ToneMiss:    rgb(0x75, 0x75, 0x75),
			sim.ToneGold:    rgb(0xf9, 0xa8, 0x25),
			sim.TonePerfect: rgb(0x7b, 0x1f, 0xa2),
			sim.ToneCast:    rgb(0x02, 0x77, 0xbd),
			sim.ToneDanger:  rgb(0xd3, 0x2f, 0x2f),
		},
	},
	"arena": {
		Name:       "arena",
		Background: rgb(0x1b, 0x26, 0x1b),
		Guide:      rgb(0x3e, 0x52, 0x3e),
		Tower:      rgb(0x6d, 0x4c, 0x41),
		Player:     rgb(0x29, 0xb6, 0xf6),
		Target:     rgb(0xff, 0xa7, 0x26),
		Creep:      rgb(0xd8, 0x43, 0x15),
		HealthBack: rgb(0x21, 0x21, 0x21),
		Health:     rgb(0x9c, 0xcc, 0x65),
		Hostile:    rgb(0xff, 0x52, 0x52),
		Shot:       rgb(0x84, 0xff, 0xff),
		Area:       color.RGBA{R: 0xea, G: 0x80, B: 0xfc, A: 0xa0},
		Designated: rgb(0xff, 0xff, 0x00),
		Aim:        color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x70},
		Text:       rgb(0xf1, 0xf8, 0xe9),
		TextDim:    rgb(0xa5, 0xd6, 0xa7),
		Button:     color.RGBA{R: 0x33, G: 0x4d, B: 0x33, A: 0xd0},
		ButtonEdge: rgb(0x81, 0xc7, 0x84),
		Cooldown:   color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xa0},
		Stick:      color.RGBA{R: 0x33, G: 0x4d, B: 0x33, A: 0x90},
		Knob:       rgb(0xc5, 0xe1, 0xa5),
		Scrim:      color.RGBA{R: 0x00, G: 0x10, B: 0x00, A: 0xb0},
		Tones: map[sim.Tone]color.RGBA{
			sim.ToneHit:     rgb(0xff, 0xeb, 0x3b),
			sim.ToneMiss:    rgb(0xa5, 0xd6, 0xa7),
			sim.ToneGold:    rgb(0xff, 0xd6, 0x00),
			sim.TonePerfect: rgb(0xe0, 0x40, 0xfb),
			sim.ToneCast:    rgb(0x29, 0xb6, 0xf6),
			sim.ToneDanger:  rgb(0xff, 0x52, 0x52),
		},
	},
}

// DefaultTheme 未配置主题时使用
const DefaultTheme = "dark"

// ResolveTheme 按名字取主题；未知名字返回 ErrUnknownTheme
func ResolveTheme(name string) (Theme, error) {
	t, ok := themes[name]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return t, nil
}

// ThemeNames 已知主题，按名字排序
func ThemeNames() []string {
	out := make([]string, 0, len(themes))
	for name := range themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
