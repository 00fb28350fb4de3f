package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/robot-tournaments/brackets"
	"github.com/Dosada05/robot-tournaments/db/dbtest"
	"github.com/Dosada05/robot-tournaments/events"
	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
	"github.com/stretchr/testify/require"
)

const testJudgeID int64 = 900

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(typ events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engine struct {
	db               *sql.DB
	clock            *testClock
	publisher        *recordingPublisher
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	scoreRepo        repositories.ScoreRepository
	robotRepo        repositories.RobotStatsRepository
	prizeRepo        repositories.PrizeRepository
	cooldownRepo     repositories.CooldownRepository

	ledger        ScoringLedger
	tournaments   TournamentService
	registrations RegistrationService
	bracket       BracketService
	matches       MatchService
	authorizer    Authorizer
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	return newEngineOn(t, dbtest.Open(t))
}

// newConcurrentEngine runs on a pool with several connections, so concurrent calls
// overlap inside the database and only the tournament lock orders them.
func newConcurrentEngine(t *testing.T) *engine {
	t.Helper()
	return newEngineOn(t, dbtest.OpenConcurrent(t))
}

func newEngineOn(t *testing.T, conn *sql.DB) *engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{now: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}

	e := &engine{
		db:               conn,
		clock:            clock,
		publisher:        pub,
		tournamentRepo:   repositories.NewPostgresTournamentRepository(conn),
		registrationRepo: repositories.NewPostgresRegistrationRepository(conn),
		matchRepo:        repositories.NewPostgresMatchRepository(conn),
		scoreRepo:        repositories.NewPostgresScoreRepository(conn),
		robotRepo:        repositories.NewPostgresRobotStatsRepository(conn),
		prizeRepo:        repositories.NewPostgresPrizeRepository(conn),
		cooldownRepo:     repositories.NewPostgresCooldownRepository(conn),
	}
	e.ledger = NewScoringLedger(e.scoreRepo)
	e.tournaments = NewTournamentService(conn, e.tournamentRepo, e.registrationRepo, e.matchRepo, e.prizeRepo, pub, clock.Now, logger)
	e.registrations = NewRegistrationService(conn, e.tournamentRepo, e.registrationRepo, e.cooldownRepo, clock.Now, logger)
	e.bracket = NewBracketService(conn, e.tournamentRepo, e.registrationRepo, e.matchRepo, brackets.NewSeededShuffler(7), pub, clock.Now, logger)
	e.matches = NewMatchService(conn, e.tournamentRepo, e.matchRepo, e.registrationRepo, e.robotRepo, e.prizeRepo, e.cooldownRepo, e.ledger, pub, clock.Now, logger)
	e.authorizer = NewAuthorizer(e.matchRepo)
	return e
}

// entrant ids: competitor 100+i, club 200+i, robot 300+i.
func competitorID(i int) int64 { return int64(100 + i) }
func clubOf(competitor int64) int64 {
	return competitor + 100
}
func robotOf(competitor int64) int64 {
	return competitor + 200
}

// draftTournament creates a draft tournament with n registered competitors.
func (e *engine) draftTournament(t *testing.T, n int) *models.Tournament {
	t.Helper()
	ctx := context.Background()
	tournament, err := e.tournaments.Create(ctx, CreateTournamentInput{
		Name:            "Spring Clash",
		CategoryID:      1,
		MaxParticipants: 16,
	})
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		c := competitorID(i)
		_, err := e.registrations.Join(ctx, tournament.ID, JoinTournamentInput{
			CompetitorID: c,
			ClubID:       clubOf(c),
			RobotID:      robotOf(c),
		})
		require.NoError(t, err)
	}
	return tournament
}

// released starts n goroutines that call fn at the same moment and waits for them.
func released(n int, fn func(i int)) {
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
}

func (e *engine) startedTournament(t *testing.T, n int) (*models.Tournament, *StartResult) {
	t.Helper()
	tournament := e.draftTournament(t, n)
	res, err := e.bracket.StartTournament(context.Background(), tournament.ID, testJudgeID, 120)
	require.NoError(t, err)
	return tournament, res
}

func (e *engine) tournament(t *testing.T, id int64) *models.Tournament {
	t.Helper()
	tournament, err := e.tournamentRepo.GetByID(context.Background(), nil, id)
	require.NoError(t, err)
	return tournament
}

func (e *engine) total(t *testing.T, kind models.ScoreKind, id int64) int64 {
	t.Helper()
	total, err := e.ledger.Total(context.Background(), kind, id)
	require.NoError(t, err)
	return total
}

func (e *engine) robot(t *testing.T, id int64) *models.RobotStats {
	t.Helper()
	stats, err := e.robotRepo.GetByRobot(context.Background(), nil, id)
	require.NoError(t, err)
	return stats
}

func (e *engine) matchesOfRound(t *testing.T, tournamentID int64, round int) []models.Match {
	t.Helper()
	matches, err := e.matchRepo.ListByTournament(context.Background(), nil, tournamentID, &round)
	require.NoError(t, err)
	return matches
}
