package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guestpass/internal/audit"
	cardmodels "guestpass/internal/card/models"
	"guestpass/internal/card/store/rendered"
	credentialmodels "guestpass/internal/credential/models"
	credentialstore "guestpass/internal/credential/store"
	dErrors "guestpass/pkg/domain-errors"
)

type LifecycleSuite struct {
	suite.Suite
	ctx         context.Context
	credentials *credentialstore.InMemoryStore
	rendered    *rendered.InMemoryStore
	files       *FileStore
	auditStore  *audit.MemoryStore
	svc         *Service
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	s.credentials = credentialstore.NewInMemory()
	s.rendered = rendered.NewInMemory()
	s.auditStore = audit.NewMemoryStore()

	files, err := NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	s.files = files

	svc, err := NewService(s.credentials, s.rendered, s.files,
		WithAuditPublisher(audit.NewStorePublisher(s.auditStore)),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *LifecycleSuite) addCard(code, relPath string, writeFile bool) {
	if writeFile {
		s.Require().NoError(s.files.WriteAtomic(relPath, func(w io.Writer) error {
			_, err := w.Write([]byte("jpeg bytes"))
			return err
		}))
	}
	s.Require().NoError(s.rendered.Add(s.ctx, cardmodels.RenderedCard{
		CredentialCode: code,
		ArtifactPath:   relPath,
		RenderedAt:     time.Now().UTC(),
	}))
}

// addUndeletableCard records a ledger row whose artifact path is a
// non-empty directory. os.Remove refuses those under any euid, so the
// delete failure reproduces even when the suite runs as root, where
// permission-based setups would not fail.
func (s *LifecycleSuite) addUndeletableCard(code, relPath string) {
	abs := s.files.AbsPath(relPath)
	s.Require().NoError(os.MkdirAll(abs, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(abs, "pin"), []byte("x"), 0o644))
	s.Require().NoError(s.rendered.Add(s.ctx, cardmodels.RenderedCard{
		CredentialCode: code,
		ArtifactPath:   relPath,
		RenderedAt:     time.Now().UTC(),
	}))
}

func (s *LifecycleSuite) issue(code, ownerRef string) {
	s.Require().NoError(s.credentials.Save(s.ctx, credentialmodels.Credential{
		Code:     code,
		OwnerRef: ownerRef,
		Capacity: 1,
		IssuedAt: time.Now().UTC(),
	}))
}

func (s *LifecycleSuite) TestPurgeDeletesFilesAndClearsLedger() {
	s.issue("KRGC200001", "owner-1")
	s.addCard("KRGC200001", "cards/KRGC200001_1.jpg", true)
	s.addCard("KRGC200001", "cards/KRGC200001_2.jpg", true)

	report, err := s.svc.PurgeForOwner(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(2, report.Examined)
	s.Equal(2, report.Deleted)
	s.Equal(0, report.Errors)

	_, statErr := os.Stat(s.files.AbsPath("cards/KRGC200001_1.jpg"))
	s.True(os.IsNotExist(statErr))

	cards, err := s.rendered.ListByCredential(s.ctx, "KRGC200001")
	s.Require().NoError(err)
	s.Empty(cards)
}

func (s *LifecycleSuite) TestPurgeMissingFileStillClearsLedger() {
	s.issue("KRGC200002", "owner-2")
	s.addCard("KRGC200002", "cards/KRGC200002_present.jpg", true)
	s.addCard("KRGC200002", "cards/KRGC200002_gone.jpg", false)

	report, err := s.svc.PurgeForOwner(s.ctx, "owner-2")
	s.Require().NoError(err)
	s.Equal(2, report.Examined)
	s.Equal(1, report.Deleted)
	s.Equal(1, report.Errors)

	cards, err := s.rendered.ListByCredential(s.ctx, "KRGC200002")
	s.Require().NoError(err)
	s.Empty(cards)
}

func (s *LifecycleSuite) TestPurgeCountsUndeletableFiles() {
	s.issue("KRGC200003", "owner-3")
	s.addUndeletableCard("KRGC200003", "locked/KRGC200003_1.jpg")

	report, err := s.svc.PurgeForOwner(s.ctx, "owner-3")
	s.Require().NoError(err)
	s.Equal(1, report.Examined)
	s.Equal(0, report.Deleted)
	s.Equal(1, report.Errors)

	// The ledger row is cleared even though the artifact survived.
	_, statErr := os.Stat(s.files.AbsPath("locked/KRGC200003_1.jpg"))
	s.NoError(statErr)
	cards, err := s.rendered.ListByCredential(s.ctx, "KRGC200003")
	s.Require().NoError(err)
	s.Empty(cards)
}

type recordingPointerClearer struct {
	cleared []string
	err     error
}

func (p *recordingPointerClearer) ClearCurrentCard(_ context.Context, ownerRef string) error {
	p.cleared = append(p.cleared, ownerRef)
	return p.err
}

func (s *LifecycleSuite) TestPurgeClearsCardPointerEvenOnDeleteFailure() {
	pointers := &recordingPointerClearer{}
	svc, err := NewService(s.credentials, s.rendered, s.files,
		WithPointerClearer(pointers),
	)
	s.Require().NoError(err)

	s.issue("KRGC200010", "owner-10")
	s.addUndeletableCard("KRGC200010", "locked2/KRGC200010_1.jpg")

	report, err := svc.PurgeForOwner(s.ctx, "owner-10")
	s.Require().NoError(err)
	s.Equal(1, report.Errors)
	s.Equal([]string{"owner-10"}, pointers.cleared)
}

func (s *LifecycleSuite) TestPurgeLeavesCredentialsIntact() {
	s.issue("KRGC200004", "owner-4")
	s.addCard("KRGC200004", "cards/KRGC200004_1.jpg", true)

	_, err := s.svc.PurgeForOwner(s.ctx, "owner-4")
	s.Require().NoError(err)

	cred, err := s.credentials.FindByCode(s.ctx, "KRGC200004")
	s.Require().NoError(err)
	s.NotNil(cred)
}

func (s *LifecycleSuite) TestPurgeUnknownOwnerReportsZero() {
	report, err := s.svc.PurgeForOwner(s.ctx, "owner-none")
	s.Require().NoError(err)
	s.Equal(0, report.Examined)
}

func (s *LifecycleSuite) TestPurgeRequiresOwnerRef() {
	_, err := s.svc.PurgeForOwner(s.ctx, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *LifecycleSuite) TestPurgeEmitsAuditEvent() {
	s.issue("KRGC200005", "owner-5")
	s.addCard("KRGC200005", "cards/KRGC200005_1.jpg", true)

	_, err := s.svc.PurgeForOwner(s.ctx, "owner-5")
	s.Require().NoError(err)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionCardsPurged, events[0].Action)
	s.Equal("owner-5", events[0].OwnerRef)
	s.Equal("examined=1 deleted=1 errors=0", events[0].Detail)
}

func (s *LifecycleSuite) TestBatchPurgeContinuesPastFailures() {
	s.issue("KRGC200006", "owner-6")
	s.addCard("KRGC200006", "cards/KRGC200006_1.jpg", true)
	s.issue("KRGC200007", "owner-7")
	s.addCard("KRGC200007", "cards/KRGC200007_1.jpg", true)

	reports, err := s.svc.PurgeForOwners(s.ctx, []string{"owner-6", " owner-7 ", "owner-6"})
	s.Require().NoError(err)
	s.Require().Len(reports, 2)
	s.Equal(1, reports[0].Deleted)
	s.Equal(1, reports[1].Deleted)
}

func (s *LifecycleSuite) TestBatchPurgeRequiresOwners() {
	_, err := s.svc.PurgeForOwners(s.ctx, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *LifecycleSuite) TestStatsForOwner() {
	s.issue("KRGC200008", "owner-8")
	s.addCard("KRGC200008", "cards/KRGC200008_1.jpg", true)
	s.addCard("KRGC200008", "cards/KRGC200008_gone.jpg", false)

	stats, err := s.svc.StatsForOwner(s.ctx, "owner-8")
	s.Require().NoError(err)
	s.Equal(2, stats.Artifacts)
	s.Equal(int64(len("jpeg bytes")), stats.TotalBytes)
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}
