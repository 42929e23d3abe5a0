package database

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS passages (
    book_key TEXT NOT NULL,
    seq      INTEGER NOT NULL,
    content  TEXT NOT NULL,
    PRIMARY KEY (book_key, seq)
);

CREATE INDEX IF NOT EXISTS idx_passages_book ON passages (book_key);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
