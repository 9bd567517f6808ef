// Command checkdb validates DATABASE_URL and tests authentication against
// the sudoer store.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"musicthumb/internal/storage"
)

const (
	exitOther       = 1
	exitNoURL       = 2
	exitAuth        = 3
	exitUnreachable = 4
)

// mongo AuthenticationFailed
const mongoAuthFailed = 18

// invalid_password, invalid_authorization_specification
var pgAuthCodes = map[string]bool{"28P01": true, "28000": true}

func main() {
	uri := os.Getenv("DATABASE_URL")
	if uri == "" {
		logrus.Error("DATABASE_URL environment variable is not set.")
		os.Exit(exitNoURL)
	}

	backend, err := storage.BackendOf(uri)
	if err != nil {
		logrus.WithError(err).Error("Unsupported DATABASE_URL.")
		os.Exit(exitOther)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logrus.Infof("Testing %s connection...", backend)
	var names []string
	switch backend {
	case storage.BackendMongo:
		names, err = checkMongo(ctx, uri)
	default:
		names, err = checkPostgres(ctx, uri)
	}
	if err != nil {
		os.Exit(classify(err))
	}

	logrus.Info("Ping succeeded. Authentication OK.")
	fmt.Println("Found:", names)
	fmt.Println("OK")
}

func checkMongo(ctx context.Context, uri string) ([]string, error) {
	name := os.Getenv("DATABASE_NAME")
	if name == "" {
		name = "admin"
	}
	store, err := storage.NewMongoStore(ctx, uri, name)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Databases(ctx)
}

// checkPostgres pings through lib/pq so that no migrations run.
func checkPostgres(ctx context.Context, uri string) ([]string, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func classify(err error) int {
	var (
		pqErr  *pq.Error
		cmdErr mongo.CommandError
	)
	switch {
	case errors.As(err, &pqErr) && pgAuthCodes[string(pqErr.Code)],
		errors.As(err, &cmdErr) && cmdErr.Code == mongoAuthFailed:
		logrus.WithError(err).Error("Authentication failed. Verify username, password and auth source in DATABASE_URL.")
		return exitAuth
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		logrus.WithError(err).Error("Connection timed out. Check that the database server is reachable.")
		return exitUnreachable
	default:
		logrus.WithError(err).Error("Unexpected error while connecting to the database.")
		return exitOther
	}
}
