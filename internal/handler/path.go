package handler

import (
	"net/http"
	"strconv"
)

// accountFromPath only rejects an {id} that is not an integer. Whether the
// account exists is for the ledger to say, after the body is validated.
func accountFromPath(r *http.Request) (int64, *AppError) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return id, nil
}
