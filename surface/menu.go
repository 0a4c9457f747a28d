// Package surface 本地宿主（桌面窗口、终端）共用的菜单与按键命令
package surface

import (
	"context"
	"fmt"
	"slices"

	"skilltrainer/session"
	"skilltrainer/sim"
)

// Command 宿主按键翻译后的命令
type Command uint8

const (
	CmdNone Command = iota
	CmdStart
	CmdTogglePause
	CmdStop
	CmdModeSkillshot
	CmdModeDodge
	CmdModeLastHit
	CmdNextDifficulty
	CmdQuit
)

var difficulties = []sim.Difficulty{
	sim.DifficultyEasy, sim.DifficultyMedium, sim.DifficultyHard, sim.DifficultySurvival,
}

// CastKeys 快捷施法按键
var CastKeys = map[rune]sim.AbilityID{
	'q': sim.AbilityQ,
	'w': sim.AbilityW,
	'f': sim.AbilityFlash,
	'a': sim.AbilityAttack,
}

// Menu 下一局的模式与难度
type Menu struct {
	Mode       sim.Mode
	Difficulty sim.Difficulty
}

func NewMenu() Menu {
	return Menu{Mode: sim.ModeSkillshot, Difficulty: sim.DifficultyEasy}
}

// Dispatch 把命令作用到控制器；切换模式与难度只在未进行时生效
func (m *Menu) Dispatch(ctx context.Context, ctrl *session.Controller, cmd Command) error {
	phase := ctrl.Phase()
	between := phase == session.PhaseIdle || phase == session.PhaseGameOver
	switch cmd {
	case CmdStart:
		if !between {
			return nil
		}
		return ctrl.Start(ctx, m.Mode, m.Difficulty)
	case CmdTogglePause:
		switch phase {
		case session.PhasePlaying:
			return ctrl.Pause()
		case session.PhasePaused:
			return ctrl.Resume()
		}
	case CmdStop:
		return ctrl.Stop()
	case CmdModeSkillshot, CmdModeDodge, CmdModeLastHit:
		if between {
			m.Mode = [...]sim.Mode{sim.ModeSkillshot, sim.ModeDodge, sim.ModeLastHit}[cmd-CmdModeSkillshot]
		}
	case CmdNextDifficulty:
		if between {
			i := slices.Index(difficulties, m.Difficulty)
			m.Difficulty = difficulties[(i+1)%len(difficulties)]
		}
	}
	return nil
}

// Hint 空闲与结束画面的提示行
func (m Menu) Hint() string {
	return fmt.Sprintf("%s / %s   [1-3] mode  [Tab] difficulty  [Enter] start  [P] pause  [Esc] stop",
		m.Mode, m.Difficulty)
}
