package motor

import "errors"

// ErrInvalidSpec 物理或数值前提不成立，计算开始前即返回
var ErrInvalidSpec = errors.New("invalid spec")
