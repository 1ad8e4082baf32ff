package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const TransactionTypeFund = "fund"

// FundingTransaction 资助流水，只追加
type FundingTransaction struct {
	ID              string            `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID       string            `json:"project_id" gorm:"type:uuid;index;not null"`
	UserID          string            `json:"user_id" gorm:"type:uuid;index"`
	Amount          float64           `json:"amount" gorm:"type:double precision;not null"`
	CreditsReceived int64             `json:"credits_received" gorm:"not null"`
	PriceAtPurchase float64           `json:"price_at_purchase" gorm:"type:double precision;not null"`
	TransactionType string            `json:"transaction_type" gorm:"type:varchar(32);not null;default:'fund'"`
	Metadata        datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt       time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (FundingTransaction) TableName() string {
	return "funding_transactions"
}

// BeforeCreate 生成主键
func (t *FundingTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
