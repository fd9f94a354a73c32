// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package runid

import (
	"context"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func NewId() string {
	uuidBytes, err := uuid.New().MarshalBinary()
	if err != nil {
		log.Panic().Err(err).Send()
	}

	return strings.ToLower(strings.TrimRight(base32.StdEncoding.EncodeToString(uuidBytes), "="))
}

// WithRunId creates an ID for the run and adds it as a field to the context
// logger.
func WithRunId(ctx context.Context) context.Context {
	logger := log.Ctx(ctx).With().Str("runId", NewId()).Logger()
	return logger.WithContext(ctx)
}
