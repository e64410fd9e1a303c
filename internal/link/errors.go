package link

import "errors"

var (
	ErrInvalidSetting = errors.New("link: invalid setting")
)
