package etcd

import "errors"

// ErrKeyNotFound is returned when a key is not found in etcd.
var ErrKeyNotFound = errors.New("key not found")
