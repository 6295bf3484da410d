package req

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-playground/validator/v10"

	"price_simulator/pkg/errcodes"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip

// Validate checks dest against its `validate` struct tags.
func Validate(ctx context.Context, dest any) error {
	if err := validate.StructCtx(ctx, dest); err != nil {
		return failure.NewInvalidArgumentError(
			"validation error",
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(err.Error()),
		)
	}

	return nil
}

// QueryTime parses an optional RFC3339 query parameter. A missing parameter
// yields nil.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, failure.NewInvalidArgumentError(
			fmt.Errorf("time.Parse(%s): %w", name, err).Error(),
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(fmt.Sprintf("%s must be an RFC3339 timestamp", name)),
		)
	}

	return &t, nil
}

// QueryInt parses an optional integer query parameter, returning def when it
// is missing.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, failure.NewInvalidArgumentError(
			fmt.Errorf("strconv.Atoi(%s): %w", name, err).Error(),
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(fmt.Sprintf("%s must be an integer", name)),
		)
	}

	return v, nil
}
