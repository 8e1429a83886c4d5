package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"gigmarket/internal/domain/model"
)

// 呼び出し側が分岐に使う失敗の種類
type ErrorKind string

const (
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindConflict          ErrorKind = "conflict"
	KindValidation        ErrorKind = "validation"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInternal          ErrorKind = "internal"
)

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// statusから種類を決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{Status: status, Kind: kindForStatus(status), Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

func errInvalidTransition(msg string) error {
	return &HTTPError{Status: http.StatusConflict, Kind: KindInvalidTransition, Message: msg}
}

func errConflict(msg string) error {
	return &HTTPError{Status: http.StatusConflict, Kind: KindConflict, Message: msg}
}

// 遷移エラーをHTTPErrorに変換（理由はそのまま残す）
func fromTransitionError(err error) error {
	var te *model.TransitionError
	if !errors.As(err, &te) {
		return err
	}
	switch te.Kind {
	case model.TransitionForbidden:
		return NewHTTPError(http.StatusForbidden, te.Reason)
	case model.TransitionValidation:
		return NewHTTPError(http.StatusBadRequest, te.Reason)
	default:
		return errInvalidTransition(te.Reason)
	}
}
