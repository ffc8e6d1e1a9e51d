// Package natsstore carries the shared store over NATS request/reply. A Host
// serves a store.Memory; any number of Clients implement store.Store against
// it.
package natsstore

import (
	"errors"

	"github.com/automoto/twinflame/shared/store"
)

const DefaultPrefix = "twinflame.store"

const (
	opGet    = "get"
	opSet    = "set"
	opUpdate = "update"
	opCAS    = "cas"
)

// Error codes carried in responses.
const (
	codeInvalidPath = "invalid_path"
	codeClosed      = "closed"
	codeBadRequest  = "bad_request"
	codeInternal    = "internal"
)

type request struct {
	Op     string         `json:"op"`
	Path   string         `json:"path"`
	Value  any            `json:"value,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Expect any            `json:"expect,omitempty"`
}

type response struct {
	Exists  bool   `json:"exists,omitempty"`
	Value   any    `json:"value,omitempty"`
	Swapped bool   `json:"swapped,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// notice announces that the subtree at Path changed.
type notice struct {
	Path string `json:"path"`
}

func requestSubject(prefix string) string { return prefix + ".req" }
func watchSubject(prefix string) string   { return prefix + ".watch" }

func errorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrInvalidPath):
		return codeInvalidPath
	case errors.Is(err, store.ErrClosed):
		return codeClosed
	}
	return codeInternal
}

// remoteError maps a response error back onto the store sentinels.
type remoteError struct {
	code string
	msg  string
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error {
	switch e.code {
	case codeInvalidPath:
		return store.ErrInvalidPath
	case codeClosed:
		return store.ErrClosed
	}
	return nil
}
