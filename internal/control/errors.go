package control

import "errors"

var ErrInvalidScreen = errors.New("control: invalid screen")
