package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/boost-backend/pkg/logger"
)

type tokenExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

type TokenExpiryJobParams struct {
	Logger *logger.Logger
	Tokens tokenExpirer
}

// NewTokenExpiryJob flips active tokens past their expiry to expired. Redeem
// checks expiry on its own, so a missed sweep only delays the status change.
func NewTokenExpiryJob(params TokenExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token service required")
	}
	return &tokenExpiryJob{logg: params.Logger, tokens: params.Tokens}, nil
}

type tokenExpiryJob struct {
	logg   *logger.Logger
	tokens tokenExpirer
}

func (j *tokenExpiryJob) Name() string { return "token_expiry" }

func (j *tokenExpiryJob) Run(ctx context.Context) error {
	expired, err := j.tokens.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("token expiry: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "tokens_expired", expired), "token expiry sweep complete")
	return nil
}
