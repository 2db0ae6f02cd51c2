package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// Store is the SQLite-backed user database: known users and their
// language, broadcast subscriptions and prediction history.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id    INTEGER PRIMARY KEY,
	username   TEXT NOT NULL DEFAULT '',
	lang       TEXT NOT NULL DEFAULT 'ru',
	first_seen TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	chat_id    INTEGER PRIMARY KEY,
	sign       TEXT NOT NULL,
	lang       TEXT NOT NULL DEFAULT 'ru',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS predictions (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	kind    TEXT NOT NULL,
	text    TEXT NOT NULL,
	date    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_chat ON predictions(chat_id, id DESC);
`

func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertUser records a user on first contact and refreshes the
// username on later ones.
func (s *Store) UpsertUser(ctx context.Context, userID int64, username string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_seen) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username`,
		userID, username, time.Now().Format(time.RFC3339))
	return err
}

func (s *Store) SetUserLang(ctx context.Context, userID int64, lang string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET lang = ? WHERE user_id = ?`, lang, userID)
	return err
}

// UserLang returns the stored language for a user, defaulting to "ru".
func (s *Store) UserLang(ctx context.Context, userID int64) string {
	var lang string
	err := s.db.QueryRowContext(ctx,
		`SELECT lang FROM users WHERE user_id = ?`, userID).Scan(&lang)
	if err != nil || lang == "" {
		return "ru"
	}
	return lang
}

// Subscription is one chat subscribed to the daily broadcast.
type Subscription struct {
	ChatID int64
	Sign   zodiac.Sign
	Lang   string
}

func (s *Store) Subscribe(ctx context.Context, chatID int64, sign zodiac.Sign, lang string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (chat_id, sign, lang, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET sign = excluded.sign, lang = excluded.lang`,
		chatID, string(sign), lang, time.Now().Format(time.RFC3339))
	return err
}

// Unsubscribe removes the subscription and reports whether one existed.
func (s *Store) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Subscription returns the chat's subscription, if any.
func (s *Store) Subscription(ctx context.Context, chatID int64) (Subscription, bool, error) {
	var sub Subscription
	var sign string
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, sign, lang FROM subscriptions WHERE chat_id = ?`, chatID).
		Scan(&sub.ChatID, &sign, &sub.Lang)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, false, nil
	}
	if err != nil {
		return Subscription{}, false, err
	}
	sub.Sign = zodiac.Sign(sign)
	return sub, true, nil
}

func (s *Store) AllSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, sign, lang FROM subscriptions ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		var sign string
		if err := rows.Scan(&sub.ChatID, &sign, &sub.Lang); err != nil {
			return nil, err
		}
		sub.Sign = zodiac.Sign(sign)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Prediction is one saved generated text.
type Prediction struct {
	Kind string
	Text string
	Date string
}

func (s *Store) SavePrediction(ctx context.Context, chatID int64, kind, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (chat_id, kind, text, date) VALUES (?, ?, ?, ?)`,
		chatID, kind, text, time.Now().Format(dateLayout))
	return err
}

func (s *Store) RecentPredictions(ctx context.Context, chatID int64, limit int) ([]Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, text, date FROM predictions WHERE chat_id = ? ORDER BY id DESC LIMIT ?`,
		chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.Kind, &p.Text, &p.Date); err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// DayCount is the number of new users first seen on a day.
type DayCount struct {
	Day   string
	Count int
}

// UserStats returns the total user count and new users per day for the
// last seven days.
func (s *Store) UserStats(ctx context.Context) (int, []DayCount, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(first_seen, 1, 10) AS day, COUNT(*)
		FROM users
		WHERE first_seen >= ?
		GROUP BY day ORDER BY day DESC`,
		time.Now().AddDate(0, 0, -7).Format(time.RFC3339))
	if err != nil {
		return total, nil, err
	}
	defer rows.Close()

	var byDay []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return total, nil, err
		}
		byDay = append(byDay, dc)
	}
	return total, byDay, rows.Err()
}
