package service

// CharacterSelection Character Vault 当前选中的角色，空字符串表示未选中
type CharacterSelection struct {
	selectedID string
}

// NewCharacterSelection 以指定角色为当前选中
func NewCharacterSelection(selectedID string) CharacterSelection {
	return CharacterSelection{selectedID: selectedID}
}

// Selected 返回当前选中的角色 ID
func (s CharacterSelection) Selected() (string, bool) {
	return s.selectedID, s.selectedID != ""
}

// OnCreate 新建后选中新角色
func (s CharacterSelection) OnCreate(createdID string) CharacterSelection {
	return CharacterSelection{selectedID: createdID}
}

// OnDelete 删除选中角色后选中剩余列表中的第一个，列表为空则清空；
// 删除其他角色时保持不变。remaining 为删除后的有序列表。
func (s CharacterSelection) OnDelete(deletedID string, remaining []string) CharacterSelection {
	if s.selectedID != "" && s.selectedID != deletedID && contains(remaining, s.selectedID) {
		return s
	}
	if len(remaining) == 0 {
		return CharacterSelection{}
	}
	return CharacterSelection{selectedID: remaining[0]}
}

// OnClick 选中被点击的角色，不在列表中则保持不变
func (s CharacterSelection) OnClick(clickedID string, ids []string) CharacterSelection {
	if !contains(ids, clickedID) {
		return s
	}
	return CharacterSelection{selectedID: clickedID}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
