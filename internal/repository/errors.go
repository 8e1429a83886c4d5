package repository

import "errors"

var (
	// 見つからない
	ErrNotFound = errors.New("not found")
	// ユニーク制約違反
	ErrDuplicate = errors.New("duplicate")
	// 読んだ後に別のTxが注文を更新した
	ErrStaleOrder  = errors.New("order was modified concurrently")
	ErrStalePayout = errors.New("payout was modified concurrently")
	// 残高不足
	ErrInsufficientBalance = errors.New("insufficient balance")
)
