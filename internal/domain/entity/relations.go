package entity

// ForeignKey 子表列到父表主键的外键，删除父行时级联删除子行
type ForeignKey struct {
	Table    string
	Column   string
	RefTable string
}

// Name 约束名，<table>_<column>_fkey
func (fk ForeignKey) Name() string {
	return fk.Table + "_" + fk.Column + "_fkey"
}

// ForeignKeys 全部级联外键。
// provenance_logs.project_id 不在其中：溯源日志只追加，项目删除后仍保留，
// 包括删除事件本身。
func ForeignKeys() []ForeignKey {
	projects := Project{}.TableName()
	return []ForeignKey{
		{Table: CharacterSeed{}.TableName(), Column: "project_id", RefTable: projects},
		{Table: MangaPanel{}.TableName(), Column: "project_id", RefTable: projects},
		{Table: DirectorChoice{}.TableName(), Column: "project_id", RefTable: projects},
		{Table: DirectorChoice{}.TableName(), Column: "panel_id", RefTable: MangaPanel{}.TableName()},
		{Table: FundingTransaction{}.TableName(), Column: "project_id", RefTable: projects},
		{Table: ProjectRight{}.TableName(), Column: "project_id", RefTable: projects},
		{Table: StorySession{}.TableName(), Column: "project_id", RefTable: projects},
		{Table: StoryTurn{}.TableName(), Column: "session_id", RefTable: StorySession{}.TableName()},
	}
}
