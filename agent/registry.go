package agent

import (
	"slices"
)

// Registry 按注册顺序保存智能体；只有出现在启用列表中的才可被取用。
// 构造后只读，可并发使用。
type Registry struct {
	agents  []Agent
	byID    map[string]Agent
	enabled map[string]bool
	order   []string // 启用顺序
}

// NewRegistry 同一 ID 重复注册时后者覆盖前者，位置不变
func NewRegistry(agents []Agent, enabledIDs []string) *Registry {
	r := &Registry{
		byID:    make(map[string]Agent, len(agents)),
		enabled: make(map[string]bool, len(enabledIDs)),
	}
	for _, a := range agents {
		if _, dup := r.byID[a.ID()]; dup {
			idx := slices.IndexFunc(r.agents, func(x Agent) bool { return x.ID() == a.ID() })
			r.agents[idx] = a
		} else {
			r.agents = append(r.agents, a)
		}
		r.byID[a.ID()] = a
	}
	for _, id := range enabledIDs {
		if r.enabled[id] {
			continue
		}
		r.enabled[id] = true
		r.order = append(r.order, id)
	}
	return r
}

// Get 返回已注册且已启用的智能体
func (r *Registry) Get(id string) (Agent, bool) {
	if !r.enabled[id] {
		return nil, false
	}
	a, ok := r.byID[id]
	return a, ok
}

// List 所有已注册智能体，按注册顺序
func (r *Registry) List() []Agent {
	return slices.Clone(r.agents)
}

// ListEnabled 已启用的智能体，按启用列表顺序
func (r *Registry) ListEnabled() []Agent {
	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		if a, ok := r.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FirstEnabled 第一个启用的智能体
func (r *Registry) FirstEnabled() (Agent, bool) {
	enabled := r.ListEnabled()
	if len(enabled) == 0 {
		return nil, false
	}
	return enabled[0], true
}
