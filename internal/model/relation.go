package model

import (
	"bytes"
	"encoding/json"
)

// LegacyOwner 旧版全局列表（未按用户划分）解码后的归属
const LegacyOwner = ""

// RelationSet 按用户划分的关系集：userID -> 有序的目标 id 列表
// （点赞、收藏的文章 id，关注的用户 id）。成员判断走索引，O(1)。
type RelationSet struct {
	members map[string][]string
	index   map[string]map[string]struct{}
}

func NewRelationSet() *RelationSet {
	return &RelationSet{members: map[string][]string{}, index: map[string]map[string]struct{}{}}
}

func (s *RelationSet) Contains(owner, target string) bool {
	_, ok := s.index[owner][target]
	return ok
}

// Add 返回是否新增（已存在时不变）
func (s *RelationSet) Add(owner, target string) bool {
	if s.Contains(owner, target) {
		return false
	}
	if s.index[owner] == nil {
		s.index[owner] = map[string]struct{}{}
	}
	s.index[owner][target] = struct{}{}
	s.members[owner] = append(s.members[owner], target)
	return true
}

// Remove 返回是否删除；列表清空后移除 owner 本身
func (s *RelationSet) Remove(owner, target string) bool {
	if !s.Contains(owner, target) {
		return false
	}
	delete(s.index[owner], target)
	list := s.members[owner]
	for i, id := range list {
		if id == target {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.members, owner)
		delete(s.index, owner)
	} else {
		s.members[owner] = list
	}
	return true
}

// RemoveTarget 从所有 owner 中移除 target，返回受影响的 owner 数
func (s *RelationSet) RemoveTarget(target string) int {
	n := 0
	for _, owner := range s.Owners() {
		if s.Remove(owner, target) {
			n++
		}
	}
	return n
}

// Members 返回 owner 的目标列表副本
func (s *RelationSet) Members(owner string) []string {
	return append([]string(nil), s.members[owner]...)
}

// Count 包含 target 的 owner 数
func (s *RelationSet) Count(target string) int {
	n := 0
	for _, idx := range s.index {
		if _, ok := idx[target]; ok {
			n++
		}
	}
	return n
}

func (s *RelationSet) Owners() []string {
	owners := make([]string, 0, len(s.members))
	for owner := range s.members {
		owners = append(owners, owner)
	}
	return owners
}

func (s *RelationSet) MarshalJSON() ([]byte, error) {
	if s.members == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.members)
}

// UnmarshalJSON 同时接受按用户划分的对象和旧版全局数组
func (s *RelationSet) UnmarshalJSON(data []byte) error {
	*s = *NewRelationSet()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var legacy []string
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return err
		}
		for _, id := range legacy {
			s.Add(LegacyOwner, id)
		}
		return nil
	}
	var raw map[string][]string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	for owner, ids := range raw {
		for _, id := range ids {
			s.Add(owner, id)
		}
	}
	return nil
}
