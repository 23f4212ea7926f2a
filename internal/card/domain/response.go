package domain

// FailureStatusCode is the status code of every failed envelope.
const FailureStatusCode = 84

// Response is the envelope returned by every vault operation. IsError is false only when
// StatusCode is zero and Item is populated.
type Response[T any] struct {
	IsError    bool   `json:"isError"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Item       T      `json:"item"`
}

// NewFailure returns the default envelope: an error with the failure status code and an
// empty message.
func NewFailure[T any]() Response[T] {
	return Response[T]{
		IsError:    true,
		StatusCode: FailureStatusCode,
	}
}

// Fail keeps the failure status and records message.
func (r *Response[T]) Fail(message string) {
	var zero T
	r.IsError = true
	r.StatusCode = FailureStatusCode
	r.Message = message
	r.Item = zero
}

// Succeed marks the envelope as successful and sets item.
func (r *Response[T]) Succeed(item T) {
	r.IsError = false
	r.StatusCode = 0
	r.Message = ""
	r.Item = item
}

// OK reports whether the envelope carries a successful result.
func (r Response[T]) OK() bool {
	return !r.IsError && r.StatusCode == 0
}
