package sim

// Arena 按 id 索引的实体存储：删除只打墓碑，每帧统一 Compact 一次
type Arena struct {
	items []Entity
	index map[EntityID]int
	live  int
}

func NewArena() *Arena {
	return &Arena{index: make(map[EntityID]int)}
}

// Add 追加实体。不要在 Each 回调中调用
func (a *Arena) Add(e Entity) {
	e.dead = false
	a.index[e.ID] = len(a.items)
	a.items = append(a.items, e)
	a.live++
}

// Get 查找存活实体；已删除或未知的 id 返回 false
func (a *Arena) Get(id EntityID) (*Entity, bool) {
	i, ok := a.index[id]
	if !ok {
		return nil, false
	}
	e := &a.items[i]
	if e.dead {
		return nil, false
	}
	return e, true
}

// Remove 标记删除；仅当实体此前存活时返回 true，调用方据此保证只计数一次
func (a *Arena) Remove(id EntityID) bool {
	e, ok := a.Get(id)
	if !ok {
		return false
	}
	e.dead = true
	a.live--
	return true
}

// Each 按插入顺序遍历存活实体
func (a *Arena) Each(fn func(e *Entity)) {
	n := len(a.items)
	for i := 0; i < n; i++ {
		e := &a.items[i]
		if e.dead {
			continue
		}
		fn(e)
	}
}

// Count 统计满足条件的存活实体
func (a *Arena) Count(match func(e *Entity) bool) int {
	n := 0
	a.Each(func(e *Entity) {
		if match(e) {
			n++
		}
	})
	return n
}

// Compact 清除墓碑并重建索引，保持插入顺序
func (a *Arena) Compact() {
	if a.live == len(a.items) {
		return
	}
	kept := a.items[:0]
	for _, e := range a.items {
		if !e.dead {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(a.items); i++ {
		a.items[i] = Entity{}
	}
	a.items = kept
	clear(a.index)
	for i := range a.items {
		a.index[a.items[i].ID] = i
	}
}

func (a *Arena) Len() int { return a.live }

func (a *Arena) Clone() *Arena {
	c := &Arena{
		items: make([]Entity, len(a.items)),
		index: make(map[EntityID]int, len(a.index)),
		live:  a.live,
	}
	for i, e := range a.items {
		e.Body = e.Body.cloneBody()
		c.items[i] = e
	}
	for id, i := range a.index {
		c.index[id] = i
	}
	return c
}
