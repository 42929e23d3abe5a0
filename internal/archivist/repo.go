package archivist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownBook means the passage index holds nothing for the requested key.
var ErrUnknownBook = errors.New("unknown book")

const (
	// passageSize is the target passage length in characters. Paragraphs are
	// accumulated until a passage reaches it.
	passageSize = 1200

	// maxAnswerPassages caps how many passages one answer stitches together.
	maxAnswerPassages = 3
)

// Repo stores and retrieves book passages in sqlite. Answering is a keyword
// match over a book's passages; the best-scoring few are returned verbatim.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Keys lists every book key present in the index, sorted.
func (r *Repo) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT book_key FROM passages ORDER BY book_key`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// IndexBook replaces the stored passages for one book with a fresh split of
// the given text.
func (r *Repo) IndexBook(ctx context.Context, key, text string) error {
	passages := splitPassages(text)
	if len(passages) == 0 {
		return fmt.Errorf("book %s: no content to index", key)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passages WHERE book_key = ?`, key); err != nil {
		return fmt.Errorf("clear passages for %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO passages (book_key, seq, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range passages {
		if _, err := stmt.ExecContext(ctx, key, i, p); err != nil {
			return fmt.Errorf("insert passage %d for %s: %w", i, key, err)
		}
	}

	return tx.Commit()
}

// Answer retrieves the passages of one book that best match the query.
func (r *Repo) Answer(ctx context.Context, key, query string) (string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT content FROM passages WHERE book_key = ? ORDER BY seq`, key)
	if err != nil {
		return "", fmt.Errorf("query passages for %s: %w", key, err)
	}
	defer rows.Close()

	var passages []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan passage: %w", err)
		}
		passages = append(passages, content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(passages) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownBook, key)
	}

	best := rankPassages(passages, query)
	if len(best) == 0 {
		return fmt.Sprintf("No passage in '%s' matches the query.", key), nil
	}
	return strings.Join(best, "\n\n"), nil
}

// splitPassages breaks a text into passages of roughly passageSize characters,
// cutting only on blank lines so quotes stay intact.
func splitPassages(text string) []string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var passages []string
	var cur strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(p) > passageSize {
			passages = append(passages, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		passages = append(passages, cur.String())
	}
	return passages
}

type scoredPassage struct {
	idx   int
	score int
}

// rankPassages scores each passage by how many query terms it contains and
// returns the top few in their original book order.
func rankPassages(passages []string, query string) []string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var scored []scoredPassage
	for i, p := range passages {
		lower := strings.ToLower(p)
		score := 0
		for _, t := range terms {
			score += strings.Count(lower, t)
		}
		if score > 0 {
			scored = append(scored, scoredPassage{idx: i, score: score})
		}
	}
	if len(scored) == 0 {
		return nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].idx < scored[j].idx
	})
	if len(scored) > maxAnswerPassages {
		scored = scored[:maxAnswerPassages]
	}

	// Present in book order regardless of score order.
	sort.Slice(scored, func(i, j int) bool { return scored[i].idx < scored[j].idx })

	out := make([]string, 0, len(scored))
	for _, s := range scored {
		out = append(out, passages[s.idx])
	}
	return out
}

// queryTerms lowercases the query and keeps words long enough to be selective.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]`)
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}
