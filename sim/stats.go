package sim

// Stats 计数器，只由 Step 修改；准确率等派生值按需计算
type Stats struct {
	Hits      int `json:"hits" msgpack:"hits"`
	Misses    int `json:"misses" msgpack:"misses"`
	Expired   int `json:"expired" msgpack:"expired"`
	Dodges    int `json:"dodges" msgpack:"dodges"`
	HitsTaken int `json:"hitsTaken" msgpack:"hitsTaken"`
	LastHits  int `json:"lastHits" msgpack:"lastHits"`
	Denied    int `json:"denied" msgpack:"denied"`
	Perfect   int `json:"perfect" msgpack:"perfect"`
	Gold      int `json:"gold" msgpack:"gold"`
	Score     int `json:"score" msgpack:"score"`
	Casts     int `json:"casts" msgpack:"casts"`
	Spawned   int `json:"spawned" msgpack:"spawned"`

	ComboCurrent int `json:"combo" msgpack:"combo"`
	ComboMax     int `json:"comboMax" msgpack:"comboMax"`
}

func (s *Stats) comboUp() {
	s.ComboCurrent++
	if s.ComboCurrent > s.ComboMax {
		s.ComboMax = s.ComboCurrent
	}
}

func (s *Stats) comboReset() { s.ComboCurrent = 0 }

// Failures 计入失败上限的次数：技能命中算未中与超时，补刀算漏刀，躲避算被击中
func (s Stats) Failures(m Mode) int {
	switch m {
	case ModeSkillshot:
		return s.Misses + s.Expired
	case ModeDodge:
		return s.HitsTaken
	case ModeLastHit:
		return s.Denied
	}
	return 0
}

// Accuracy 成功 / (成功 + 失败) * 100，分母为 0 时返回 0
func (s Stats) Accuracy(m Mode) float64 {
	var ok, bad int
	switch m {
	case ModeSkillshot:
		ok, bad = s.Hits, s.Misses
	case ModeDodge:
		ok, bad = s.Dodges, s.HitsTaken
	case ModeLastHit:
		ok, bad = s.LastHits, s.Denied
	}
	if ok+bad <= 0 || ok < 0 {
		return 0
	}
	return float64(ok) / float64(ok+bad) * 100
}
