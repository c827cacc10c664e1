package repository

import (
	"errors"
	"fmt"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"gorm.io/gorm"
)

// translate maps gorm errors onto the domain taxonomy. The connection must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func translate(err error, onDuplicate error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey) && onDuplicate != nil:
		return fmt.Errorf("%s: %w", what, onDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
