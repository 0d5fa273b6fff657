package browse

import (
	"github.com/smileynet/rolodex/internal/storage"
)

// PageMsg carries the result of an asynchronous page load.
type PageMsg struct {
	Page storage.Page
	Err  error
}

// DeletedMsg carries the result of an asynchronous delete.
type DeletedMsg struct {
	ID  int64
	Err error
}
