package error

import "net/http"

// InternalServerError maps to HTTP 500 in the REST layer.
type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}
