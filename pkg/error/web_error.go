package error

// WebError is implemented by errors that know their HTTP representation.
type WebError interface {
	error
	ErrCode() string
	StatusCode() int
}
