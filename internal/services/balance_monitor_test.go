package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/suite"

	"balwatch/internal/middleware"
	"balwatch/internal/models"
	"balwatch/internal/repositories"
)

type BalanceMonitorTestSuite struct {
	suite.Suite

	dir        string
	configRepo repositories.ConfigRepositoryInterface
	stateRepo  repositories.StateRepositoryInterface
	upstream   *fakeUpstream
	notifier   *fakeNotifier
	monitor    BalanceMonitorInterface
}

func TestBalanceMonitorSuite(t *testing.T) {
	suite.Run(t, new(BalanceMonitorTestSuite))
}

func (s *BalanceMonitorTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.configRepo = repositories.NewConfigRepository(filepath.Join(s.dir, "config.json"))
	s.stateRepo = repositories.NewStateRepository(filepath.Join(s.dir, "balance-state.json"))
	s.upstream = &fakeUpstream{}
	s.notifier = &fakeNotifier{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.monitor = NewBalanceMonitor(s.configRepo, s.stateRepo, s.upstream, s.notifier, noopMetrics{}, logger)
}

func (s *BalanceMonitorTestSuite) setTargets(targets ...models.NotificationTarget) {
	_, err := s.configRepo.SetTargets(targets)
	s.Require().NoError(err)
}

func urlTarget(name string, accountIDs ...string) models.NotificationTarget {
	return models.NotificationTarget{
		Name:        name,
		AccountIDs:  accountIDs,
		AppriseURLs: []string{"https://example.com/notify/" + name},
	}
}

func (s *BalanceMonitorTestSuite) TestBaselineSuppression() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Name: "Checking", Balance: "100.00"}}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(models.RunCompleted, result.Status)
	s.Equal(1, result.BaselinesRecorded)
	s.Equal(0, result.NotificationsSent)
	s.Zero(s.notifier.sentCount())

	balance, found := s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(100.00, balance, 0.000001)
}

func (s *BalanceMonitorTestSuite) TestDeltaCorrectness() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 100.00))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Name: "Checking", Balance: "150.50"}}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(1, result.ChangesDetected)
	s.Equal(1, result.NotificationsSent)
	s.Require().Len(s.notifier.sent, 1)

	msg := s.notifier.sent[0]
	s.Equal("Checking", msg.Title)
	s.Contains(msg.Body, "+$50.50")
	s.Contains(msg.Body, "$150.50")
	s.Equal(models.DestinationURLs, msg.Dest.Kind)

	balance, found := s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(150.50, balance, 0.000001)
}

func (s *BalanceMonitorTestSuite) TestNegativeDeltaFormatting() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 150.50))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "100.00"}}

	_, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Require().Len(s.notifier.sent, 1)
	s.Contains(s.notifier.sent[0].Body, "-$50.50")
	s.Contains(s.notifier.sent[0].Body, "▼")
}

func (s *BalanceMonitorTestSuite) TestThresholdTolerance() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 100.0))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "100.00005"}}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(0, result.ChangesDetected)
	s.Zero(s.notifier.sentCount())

	// The refreshed representation is still persisted silently.
	balance, found := s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(100.00005, balance, 1e-9)
}

func (s *BalanceMonitorTestSuite) TestIdempotentRuns() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "250.00"}}

	_, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	statePath := filepath.Join(s.dir, "balance-state.json")
	before, err := os.ReadFile(statePath)
	s.Require().NoError(err)

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(0, result.NotificationsSent)
	s.Zero(s.notifier.sentCount())

	after, err := os.ReadFile(statePath)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *BalanceMonitorTestSuite) TestWildcardFanOut() {
	s.setTargets(
		models.NotificationTarget{
			Name:        "everything",
			AccountIDs:  []string{models.WildcardAccountID},
			AppriseURLs: []string{"https://example.com/notify/all"},
		},
	)
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 10))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-2", 20))
	s.upstream.accounts = []models.Account{
		{ID: "acct-1", Balance: "11.00"},
		{ID: "acct-2", Balance: "21.00"},
	}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	// Wildcard targets get notified for accounts with no explicit entry.
	s.Equal(2, result.NotificationsSent)
	s.Equal(2, s.notifier.sentCount())
	// Wildcard selection fetches the full list.
	s.Empty(s.upstream.lastIDs)
}

func (s *BalanceMonitorTestSuite) TestExplicitSelectionBoundsFetch() {
	s.setTargets(urlTarget("a", "acct-1"), urlTarget("b", "acct-2", "acct-1"))
	s.upstream.accounts = []models.Account{}

	_, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.ElementsMatch([]string{"acct-1", "acct-2"}, s.upstream.lastIDs)
}

func (s *BalanceMonitorTestSuite) TestRunMutualExclusion() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "100.00"}}
	s.upstream.entered = make(chan struct{})
	s.upstream.blockCh = make(chan struct{})

	firstDone := make(chan *models.RunResult, 1)
	go func() {
		result, _ := s.monitor.RunOnce(context.Background())
		firstDone <- result
	}()

	<-s.upstream.entered
	s.Equal(models.MonitorRunning, s.monitor.State())

	second, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(models.RunSkipped, second.Status)
	s.Equal(1, s.upstream.callCount())

	close(s.upstream.blockCh)
	select {
	case first := <-firstDone:
		s.Equal(models.RunCompleted, first.Status)
	case <-time.After(2 * time.Second):
		s.FailNow("first run did not finish")
	}
	s.Equal(models.MonitorIdle, s.monitor.State())
}

func (s *BalanceMonitorTestSuite) TestSkipsAccountWithoutID() {
	s.setTargets(models.NotificationTarget{
		Name:        "everything",
		AccountIDs:  []string{models.WildcardAccountID},
		AppriseURLs: []string{"https://example.com/notify"},
	})
	s.upstream.accounts = []models.Account{
		{Name: "ghost", Balance: "10.00"},
		{ID: "acct-1", Balance: "10.00"},
	}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(1, result.AccountsChecked)
	s.Equal(1, result.BaselinesRecorded)
	_, found := s.stateRepo.GetLastBalance("")
	s.False(found)
}

func (s *BalanceMonitorTestSuite) TestSkipsNonNumericBalance() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "not-a-number"}}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(0, result.BaselinesRecorded)
	s.Equal(0, result.AccountErrors)
	_, found := s.stateRepo.GetLastBalance("acct-1")
	s.False(found)
}

func (s *BalanceMonitorTestSuite) TestPrefersAvailableBalance() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{
		{ID: "acct-1", Balance: "500.00", AvailableBalance: "450.25"},
	}

	_, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	balance, found := s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(450.25, balance, 0.000001)
}

func (s *BalanceMonitorTestSuite) TestUnwatchedAccountIgnored() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{
		{ID: "acct-1", Balance: "10.00"},
		{ID: "acct-other", Balance: "99.00"},
	}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(1, result.AccountsChecked)
	_, found := s.stateRepo.GetLastBalance("acct-other")
	s.False(found)
}

func (s *BalanceMonitorTestSuite) TestNotifyFailureRetriedNextRun() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 100))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "200.00"}}
	s.notifier.err = context.DeadlineExceeded

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(models.RunCompleted, result.Status)
	s.Equal(0, result.NotificationsSent)
	s.Equal(1, result.AccountErrors)

	// The old balance stays: the change is still pending delivery.
	balance, found := s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(100.00, balance, 0.000001)

	// Gateway recovers: the next run re-detects the change and delivers.
	s.notifier.err = nil
	result, err = s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(1, result.ChangesDetected)
	s.Equal(1, result.NotificationsSent)
	balance, found = s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(200.00, balance, 0.000001)
}

func (s *BalanceMonitorTestSuite) TestPartialNotifyFailureKeepsOldBalance() {
	s.setTargets(urlTarget("a", "acct-1"), urlTarget("b", "acct-1"))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 100))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "101.00"}}
	s.notifier.failFirst = 1

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(1, result.NotificationsSent)
	s.Equal(1, result.AccountErrors)

	// One target missed the change, so the state does not advance.
	balance, found := s.stateRepo.GetLastBalance("acct-1")
	s.True(found)
	s.InDelta(100.00, balance, 0.000001)
}

func (s *BalanceMonitorTestSuite) TestEmptyFetchEndsQuietly() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(models.RunCompleted, result.Status)
	s.Equal(0, result.AccountsChecked)
}

func (s *BalanceMonitorTestSuite) TestFetchFailurePropagates() {
	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.err = &UpstreamError{StatusCode: 502, Body: "bad gateway"}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().Error(err)
	s.Equal(models.RunFailed, result.Status)
	s.Equal(models.MonitorIdle, s.monitor.State())
}

func (s *BalanceMonitorTestSuite) TestTriggeredRunLogsTraceID() {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	monitor := NewBalanceMonitor(s.configRepo, s.stateRepo, s.upstream, s.notifier, noopMetrics{}, logger)

	s.setTargets(urlTarget("primary", "acct-1"))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "100.00"}}

	ctx := middleware.ContextWithTraceID(context.Background(), "trace-abc123")
	_, err := monitor.RunOnce(ctx)
	s.Require().NoError(err)

	s.Contains(buf.String(), "trace_id=trace-abc123")
}

func (s *BalanceMonitorTestSuite) TestLargeAccountSetBaselines() {
	s.setTargets(models.NotificationTarget{
		Name:        "everything",
		AccountIDs:  []string{models.WildcardAccountID},
		AppriseURLs: []string{"https://example.com/notify/all"},
	})

	faker := gofakeit.New(7)
	const count = 50
	accounts := make([]models.Account, 0, count)
	for i := 0; i < count; i++ {
		accounts = append(accounts, models.Account{
			ID:       faker.UUID(),
			Name:     faker.Company(),
			Balance:  fmt.Sprintf("%.2f", faker.Price(1, 10000)),
			Currency: faker.CurrencyShort(),
		})
	}
	s.upstream.accounts = accounts

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(count, result.AccountsChecked)
	s.Equal(count, result.BaselinesRecorded)
	s.Zero(s.notifier.sentCount())
	for _, account := range accounts {
		_, found := s.stateRepo.GetLastBalance(account.ID)
		s.True(found, account.ID)
	}
}

func (s *BalanceMonitorTestSuite) TestMultipleTargetsSameAccount() {
	s.setTargets(urlTarget("a", "acct-1"), urlTarget("b", "acct-1"))
	s.Require().NoError(s.stateRepo.SetLastBalance("acct-1", 100))
	s.upstream.accounts = []models.Account{{ID: "acct-1", Balance: "101.00"}}

	result, err := s.monitor.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Equal(2, result.NotificationsSent)
	s.Equal(1, result.ChangesDetected)
}
