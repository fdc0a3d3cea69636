package score

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/replay"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultPath is where replays are kept when no path is configured.
const DefaultPath = "./scores.db"

var ErrNotInitialised = errors.New("score database not initialised")

// DefaultScorer keeps compressed replays in sqlite, keyed by chart hash.
type DefaultScorer struct {
	db *sql.DB

	// Log receives decode failures of stored replays; the standard logger
	// when nil.
	Log logrus.FieldLogger
}

func (s *DefaultScorer) log() logrus.FieldLogger {
	if nil == s.Log {
		return logrus.StandardLogger()
	}
	return s.Log
}

func (s *DefaultScorer) Init(path string) error {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return fmt.Errorf("unable to open score database %s: %w", path, err)
	}

	initStatement := `
	create table if not exists replays
	  (
		  id text not null primary key,
		  sum text not null,
		  rate real not null,
		  practice integer not null,
		  score integer not null,
		  accuracy real not null,
		  max_combo integer not null,
		  played_at integer not null,
		  data blob not null
	  );
	create index if not exists replays_sum on replays(sum);
	`
	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return fmt.Errorf("unable to create score tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *DefaultScorer) Deinit() {
	if nil != s.db {
		if err := s.db.Close(); nil != err {
			s.log().WithError(err).Warn("unable to close score database")
		}
		s.db = nil
	}
}

func (s *DefaultScorer) Save(ctx context.Context, c *game.Chart, data *replay.Data, result replay.Result) (string, error) {
	if nil == s.db {
		return "", ErrNotInitialised
	}
	blob, err := replay.Compress(data)
	if nil != err {
		return "", fmt.Errorf("unable to compress replay: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"insert into replays(id, sum, rate, practice, score, accuracy, max_combo, played_at, data) values(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, c.Hash(), data.Rate, data.Practice, result.Score, result.Accuracy, result.MaxCombo, time.Now().UnixMilli(), blob)
	if nil != err {
		return "", fmt.Errorf("unable to save replay: %w", err)
	}
	s.log().WithFields(logrus.Fields{"id": id, "score": result.Score}).Debug("replay saved")
	return id, nil
}

func (s *DefaultScorer) Load(ctx context.Context, c *game.Chart) ([]History, error) {
	if nil == s.db {
		return nil, ErrNotInitialised
	}
	histories := []History{}
	rows, err := s.db.QueryContext(ctx,
		"select id, sum, rate, practice, score, accuracy, max_combo, played_at, data from replays where sum = ? order by score desc, played_at asc",
		c.Hash())
	if nil != err {
		return nil, fmt.Errorf("unable to load replays: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			h        History
			playedAt int64
			blob     []byte
		)
		if err := rows.Scan(&h.ID, &h.Sum, &h.Rate, &h.Practice, &h.Score, &h.Accuracy, &h.MaxCombo, &playedAt, &blob); nil != err {
			return nil, fmt.Errorf("unable to read replay row: %w", err)
		}
		h.PlayedAt = time.UnixMilli(playedAt)
		h.Replay, err = replay.Decompress(blob)
		if nil != err {
			s.log().WithError(err).WithField("id", h.ID).Warn("skipping unreadable replay")
			continue
		}
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

func (s *DefaultScorer) Score(c *game.Chart, h *History, window game.HitWindow) replay.Result {
	return replay.Simulate(h.Replay, c, window)
}

// Rescore simulates every stored replay of the chart in parallel and writes
// the new results back in one transaction.
func (s *DefaultScorer) Rescore(ctx context.Context, c *game.Chart, window game.HitWindow) ([]Rescored, error) {
	histories, err := s.Load(ctx, c)
	if nil != err {
		return nil, err
	}

	out := make([]Rescored, len(histories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range histories {
		g.Go(func() error {
			if err := gctx.Err(); nil != err {
				return err
			}
			out[i] = Rescored{History: histories[i], Result: s.Score(c, &histories[i], window)}
			return nil
		})
	}
	if err := g.Wait(); nil != err {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if nil != err {
		return nil, fmt.Errorf("unable to begin rescore: %w", err)
	}
	defer tx.Rollback()
	for _, r := range out {
		if _, err := tx.ExecContext(ctx, "update replays set score = ?, accuracy = ?, max_combo = ? where id = ?",
			r.Result.Score, r.Result.Accuracy, r.Result.MaxCombo, r.History.ID); nil != err {
			return nil, fmt.Errorf("unable to update replay %s: %w", r.History.ID, err)
		}
	}
	if err := tx.Commit(); nil != err {
		return nil, fmt.Errorf("unable to commit rescore: %w", err)
	}
	s.log().Infof("rescored %d replays", len(out))
	return out, nil
}
