package server

import "errors"

// ErrGridTooLarge 下发的参数会生成超过上限的网格
var ErrGridTooLarge = errors.New("grid too large")
