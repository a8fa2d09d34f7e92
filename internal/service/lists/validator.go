// internal/service/lists/validator.go
package lists

import (
	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"
)

// Validate checks that rows is non-empty and that the header carried by the
// first row has every required column. Values are not inspected.
func Validate(rows []list.Row) error {
	if len(rows) == 0 {
		return xerrors.ErrEmptyUpload
	}

	var missing []string
	for _, col := range list.RequiredColumns {
		if _, ok := rows[0][col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &xerrors.SchemaError{Missing: missing}
	}

	return nil
}
