package kv

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")

// StoreError reports a failed substrate operation on a collection.
type StoreError struct {
	Op         string // "open", "put", "get", "getall", "delete"
	Collection string
	Key        string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("kv %s %s[%s]: %v", e.Op, e.Collection, e.Key, e.Err)
	}
	return fmt.Sprintf("kv %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
