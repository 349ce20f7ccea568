package schemas

import "encoding/json"

type ResponseCode int

const (
	CodeSuccess          ResponseCode = 0
	CodeBadRequest       ResponseCode = 40000
	CodeValidationFailed ResponseCode = 40001
	CodeInvalidJSON      ResponseCode = 40002
	CodeNotFound         ResponseCode = 40400
	CodeInternal         ResponseCode = 50000
	CodeDatabase         ResponseCode = 50101
)

// Envelope wraps every backend response body.
type Envelope[T any] struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Data    T            `json:"data"`
}

// RawEnvelope keeps data undecoded so error bodies can be inspected before
// the caller commits to a payload type.
type RawEnvelope = Envelope[json.RawMessage]

func Success[T any](data T) *Envelope[T] {
	return &Envelope[T]{Code: CodeSuccess, Message: "Success", Data: data}
}

func Failure(code ResponseCode, message string, details map[string][]string) *Envelope[map[string][]string] {
	return &Envelope[map[string][]string]{Code: code, Message: message, Data: details}
}
