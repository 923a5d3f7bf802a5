package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type StateRepositoryTestSuite struct {
	suite.Suite

	path string
	repo StateRepositoryInterface
}

func TestStateRepositorySuite(t *testing.T) {
	suite.Run(t, new(StateRepositoryTestSuite))
}

func (s *StateRepositoryTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "state.json")
	s.repo = NewStateRepository(s.path)
}

func (s *StateRepositoryTestSuite) TestMissingFileMeansNoBaseline() {
	_, ok := s.repo.GetLastBalance("acct-1")
	s.False(ok)
}

func (s *StateRepositoryTestSuite) TestSetPersistsAcrossInstances() {
	s.Require().NoError(s.repo.SetLastBalance("acct-1", 150.50))

	reopened := NewStateRepository(s.path)
	balance, ok := reopened.GetLastBalance("acct-1")
	s.Require().True(ok)
	s.InDelta(150.50, balance, 1e-9)
}

func (s *StateRepositoryTestSuite) TestSetOverwritesPreviousBalance() {
	s.Require().NoError(s.repo.SetLastBalance("acct-1", 100))
	s.Require().NoError(s.repo.SetLastBalance("acct-1", 42.25))

	balance, ok := s.repo.GetLastBalance("acct-1")
	s.Require().True(ok)
	s.InDelta(42.25, balance, 1e-9)
}

func (s *StateRepositoryTestSuite) TestCorruptFileRebaselines() {
	s.Require().NoError(os.WriteFile(s.path, []byte("{not json"), 0o600))

	_, ok := s.repo.GetLastBalance("acct-1")
	s.False(ok)

	// Writes still work and replace the corrupt document.
	s.Require().NoError(s.repo.SetLastBalance("acct-1", 10))
	reopened := NewStateRepository(s.path)
	balance, ok := reopened.GetLastBalance("acct-1")
	s.Require().True(ok)
	s.InDelta(10.0, balance, 1e-9)
}

func (s *StateRepositoryTestSuite) TestSaveWithoutChangesWritesNothing() {
	s.Require().NoError(s.repo.Save())

	_, err := os.Stat(s.path)
	s.True(os.IsNotExist(err))
}

func (s *StateRepositoryTestSuite) TestDocumentIsOwnerOnly() {
	s.Require().NoError(s.repo.SetLastBalance("acct-1", 1))

	info, err := os.Stat(s.path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o600), info.Mode().Perm())
}
