package entity

// All 返回需要迁移的全部实体
func All() []any {
	return []any{
		&Profile{},
		&UserRole{},
		&Project{},
		&CharacterSeed{},
		&MangaPanel{},
		&DirectorChoice{},
		&ProvenanceLog{},
		&FundingTransaction{},
		&Style{},
		&ProjectRight{},
		&StorySession{},
		&StoryTurn{},
		&LLMUsageEvent{},
	}
}
