package vault

import (
	"errors"
	"fmt"
)

// ErrorCode 对外错误通道上的稳定数值。0..6 与链上自定义错误枚举顺序一致，不得重排。
type ErrorCode uint32

const (
	CodeUninitializedAccount ErrorCode = iota
	CodeInsufficientFunds
	CodeInvalidInstruction
	CodeAlreadyInitialized
	CodeInvalidOwner
	CodeOverflow
	CodeWithdrawalCooldown
	CodeMissingSignature
	CodeNotWritable
	CodeStorageNotPrepaid
)

var codeNames = map[ErrorCode]string{
	CodeUninitializedAccount: "UninitializedAccount",
	CodeInsufficientFunds:    "InsufficientFunds",
	CodeInvalidInstruction:   "InvalidInstruction",
	CodeAlreadyInitialized:   "AlreadyInitialized",
	CodeInvalidOwner:         "InvalidOwner",
	CodeOverflow:             "Overflow",
	CodeWithdrawalCooldown:   "WithdrawalCooldown",
	CodeMissingSignature:     "MissingSignature",
	CodeNotWritable:          "NotWritable",
	CodeStorageNotPrepaid:    "StorageNotPrepaid",
}

var codeMessages = map[ErrorCode]string{
	CodeUninitializedAccount: "account not initialized",
	CodeInsufficientFunds:    "insufficient funds for withdrawal",
	CodeInvalidInstruction:   "invalid instruction",
	CodeAlreadyInitialized:   "account already initialized",
	CodeInvalidOwner:         "invalid owner",
	CodeOverflow:             "arithmetic overflow",
	CodeWithdrawalCooldown:   "withdrawal cooldown period not elapsed",
	CodeMissingSignature:     "missing required signature",
	CodeNotWritable:          "account is not writable",
	CodeStorageNotPrepaid:    "account is not rent exempt",
}

func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ErrorCode(%d)", uint32(c))
}

// Error vault 失败的唯一类型，Code 决定身份，Detail 只用于诊断
type Error struct {
	Code   ErrorCode
	Detail string
}

func (e *Error) Error() string {
	msg, ok := codeMessages[e.Code]
	if !ok {
		msg = e.Code.String()
	}
	if e.Detail != "" {
		return msg + ": " + e.Detail
	}
	return msg
}

// Is 按 Code 匹配，允许 errors.Is(err, ErrOverflow) 忽略 Detail
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrUninitializedAccount = &Error{Code: CodeUninitializedAccount}
	ErrInsufficientFunds    = &Error{Code: CodeInsufficientFunds}
	ErrInvalidInstruction   = &Error{Code: CodeInvalidInstruction}
	ErrAlreadyInitialized   = &Error{Code: CodeAlreadyInitialized}
	ErrInvalidOwner         = &Error{Code: CodeInvalidOwner}
	ErrOverflow             = &Error{Code: CodeOverflow}
	ErrWithdrawalCooldown   = &Error{Code: CodeWithdrawalCooldown}
	ErrMissingSignature     = &Error{Code: CodeMissingSignature}
	ErrNotWritable          = &Error{Code: CodeNotWritable}
	ErrStorageNotPrepaid    = &Error{Code: CodeStorageNotPrepaid}
)

// CodeOf 从（可能被包装的）错误中取出 ErrorCode
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
