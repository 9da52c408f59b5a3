package ops

import (
	"fmt"

	"hftgate/pkg/exception"
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", exception.ErrInvalidConfig, err)
}
