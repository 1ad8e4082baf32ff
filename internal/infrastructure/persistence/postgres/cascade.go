package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"anime-forge-api/internal/domain/entity"
)

// cascadeDelete 先删子孙行再删本表行；where 只含一个占位符。
// PostgreSQL 上外键自带 ON DELETE CASCADE，这里保证 SQLite 与受 RLS 限制的会话结果一致。
func cascadeDelete(tx *gorm.DB, table, where string, arg any) error {
	for _, fk := range entity.ForeignKeys() {
		if fk.RefTable != table {
			continue
		}
		sub := fmt.Sprintf("%s IN (SELECT id FROM %s WHERE %s)", fk.Column, table, where)
		if err := cascadeDelete(tx, fk.Table, sub, arg); err != nil {
			return err
		}
	}
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), arg).Error; err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// deleteWithChildren 级联删除；已在事务中时 gorm 使用 savepoint
func deleteWithChildren(db *gorm.DB, table, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return cascadeDelete(tx, table, "id = ?", id)
	})
}

// foreignKeyDDL 幂等地重建外键；NOT VALID 不校验存量行
func foreignKeyDDL(fk entity.ForeignKey) string {
	return fmt.Sprintf(
		`ALTER TABLE %[1]s DROP CONSTRAINT IF EXISTS %[2]s;
ALTER TABLE %[1]s ADD CONSTRAINT %[2]s FOREIGN KEY (%[3]s) REFERENCES %[4]s(id) ON DELETE CASCADE NOT VALID;`,
		fk.Table, fk.Name(), fk.Column, fk.RefTable)
}
