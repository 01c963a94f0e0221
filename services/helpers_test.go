package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"salonbook-backend/config"
	"salonbook-backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory store. A single connection serializes
// transactions the way row locks do on PostgreSQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// stepClock returns a clock that advances one millisecond per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Millisecond)
		return cur
	}
}

type fixture struct {
	db      *gorm.DB
	params  Params
	clients *ClientService
	visits  *VisitMutator
	userID  uuid.UUID
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	params := Params{
		DB:       db,
		Log:      zap.NewNop(),
		Now:      stepClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		Location: time.UTC,
	}
	uid := uuid.New()
	return &fixture{
		db:      db,
		params:  params,
		clients: NewClientService(params),
		visits:  NewVisitMutator(params),
		userID:  uid,
		ctx:     utils.WithUserID(context.Background(), uid.String()),
	}
}

func (f *fixture) otherUser() context.Context {
	return utils.WithUserID(context.Background(), uuid.New().String())
}

func day(year int, month time.Month, d, hour, min int) time.Time {
	return time.Date(year, month, d, hour, min, 0, 0, time.UTC)
}
