package entity

import "errors"

// ErrProvenanceImmutable 溯源日志被修改或删除
var ErrProvenanceImmutable = errors.New("provenance log is append-only")
