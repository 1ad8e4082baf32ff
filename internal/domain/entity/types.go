package entity

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// StringList 字符串列表，PostgreSQL 下映射为 text[]
type StringList []string

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

// Scan 实现 sql.Scanner
func (l *StringList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}

// GormDataType 通用类型名
func (StringList) GormDataType() string {
	return "text[]"
}

// GormDBDataType 按方言返回列类型
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
