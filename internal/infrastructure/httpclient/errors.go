package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// maxBodyInError bounds how much of a bad response ends up in error messages
const maxBodyInError = 256

// RequestError describes a response the API considers failed
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	// Errors carries the server's field errors, if it sent any
	Errors any
	Body   []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
}

// Temporary reports whether retrying later could succeed
func (e *RequestError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404 from the endpoint
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// checkResponse applies the API's error conventions:
//   - non-2xx with a {"result":"error"} body reports the server's text
//   - other non-2xx responses report the status code
//   - 2xx responses must be JSON (or empty) and must not carry result "error"
func checkResponse(method, url string, resp *resty.Response) error {
	body := resp.Body()
	status := resp.StatusCode()
	env, jsonErr := decodeEnvelope(body)

	newErr := func(msg string) *RequestError {
		return &RequestError{Method: method, URL: url, StatusCode: status, Message: msg, Body: body}
	}

	if !resp.IsSuccess() {
		if jsonErr == nil && env.IsError() {
			err := newErr(reasonOr(env.Text, "unknown error"))
			err.Errors = env.Errors
			return err
		}
		return newErr(fmt.Sprintf("failed with status code %d", status))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if jsonErr != nil {
		return newErr("server meant to respond with JSON, but response content was: " + truncate(body))
	}
	if env.IsError() {
		err := newErr(reasonOr(env.Text, "unknown error"))
		err.Errors = env.Errors
		return err
	}
	return nil
}

// decodeEnvelope reads the status fields of an object body. Arrays carry no envelope.
func decodeEnvelope(body []byte) (types.Envelope, error) {
	var env types.Envelope

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return env, errors.New("empty body")
	}
	if !sonic.ConfigStd.Valid(trimmed) {
		return env, errors.New("invalid JSON")
	}
	if trimmed[0] != '{' {
		return env, nil
	}
	if err := sonic.ConfigStd.Unmarshal(trimmed, &env); err != nil {
		return env, err
	}
	return env, nil
}

func reasonOr(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}

func truncate(body []byte) string {
	if len(body) <= maxBodyInError {
		return string(body)
	}
	return string(body[:maxBodyInError]) + "..."
}
