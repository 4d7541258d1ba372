package transport

import "errors"

var (
	// ErrNoDialer 没有可用于该地址的拨号器
	ErrNoDialer = errors.New("transport: no dialer for url scheme")
)
