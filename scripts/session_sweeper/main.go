// Command session_sweeper marks sessions whose absolute or sliding expiry
// has passed as revoked. Expiry is otherwise only applied lazily when a
// token is presented, so long-dormant sessions would stay nominally active
// forever without a periodic sweep.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/noah-isme/idp-session-api/internal/models"
	"github.com/noah-isme/idp-session-api/pkg/config"
	"github.com/noah-isme/idp-session-api/pkg/database"
)

func main() {
	var (
		dryRun  bool
		timeout time.Duration
	)
	flag.BoolVar(&dryRun, "dry-run", false, "report how many sessions would be swept without updating them")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	now := time.Now().UTC()

	if dryRun {
		var count int
		const query = `SELECT COUNT(*) FROM sessions WHERE revoked_at IS NULL AND (absolute_expiry < $1 OR sliding_expiry < $1)`
		if err := db.GetContext(ctx, &count, query, now); err != nil {
			log.Fatalf("failed to count expired sessions: %v", err)
		}
		log.Printf("dry run: %d expired sessions would be swept", count)
		return
	}

	const query = `UPDATE sessions SET revoked_at = $1, revocation_reason = $2, last_activity_at = $1 WHERE revoked_at IS NULL AND (absolute_expiry < $1 OR sliding_expiry < $1)`
	res, err := db.ExecContext(ctx, query, now, models.ReasonExpired)
	if err != nil {
		log.Fatalf("failed to sweep expired sessions: %v", err)
	}
	swept, err := res.RowsAffected()
	if err != nil {
		log.Fatalf("failed to read sweep result: %v", err)
	}
	log.Printf("swept %d expired sessions", swept)
}
