package season

import (
	"errors"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

var (
	// ErrSchemaMismatch means the source tables no longer have the expected columns
	ErrSchemaMismatch = table.ErrSchemaMismatch
	// ErrDuplicateKey means two rows resolved to the same canonical team name
	ErrDuplicateKey = table.ErrDuplicateKey
	// ErrJoinMismatch means the offense and defense tables share no teams
	ErrJoinMismatch = errors.New("join mismatch")
	// ErrEmptyResult means a required table had no usable rows
	ErrEmptyResult = errors.New("empty result")
)
