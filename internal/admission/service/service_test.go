package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	admissionstore "guestpass/internal/admission/store"
	"guestpass/internal/audit"
	"guestpass/internal/card"
	credentialmodels "guestpass/internal/credential/models"
	credentialstore "guestpass/internal/credential/store"
	dErrors "guestpass/pkg/domain-errors"
	"guestpass/pkg/requestcontext"
)

type AdmissionSuite struct {
	suite.Suite
	ctx         context.Context
	credentials *credentialstore.InMemoryStore
	redemptions *admissionstore.InMemoryStore
	auditStore  *audit.MemoryStore
	svc         *Service
}

func (s *AdmissionSuite) SetupTest() {
	s.ctx = context.Background()
	s.credentials = credentialstore.NewInMemory()
	s.redemptions = admissionstore.NewInMemory()
	s.auditStore = audit.NewMemoryStore()

	svc, err := New(s.credentials, s.redemptions,
		WithAuditPublisher(audit.NewStorePublisher(s.auditStore)),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *AdmissionSuite) issue(code string, capacity int) {
	s.Require().NoError(s.credentials.Save(s.ctx, credentialmodels.Credential{
		Code:     code,
		OwnerRef: "owner-1",
		Capacity: capacity,
		IssuedAt: time.Now().UTC(),
	}))
}

func (s *AdmissionSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.redemptions)
	s.Error(err)

	_, err = New(s.credentials, nil)
	s.Error(err)
}

func (s *AdmissionSuite) TestScanGrantsUntilCapacity() {
	s.issue("KRGC100001", 2)

	decision, err := s.svc.Scan(s.ctx, "KRGC100001", "gate-a")
	s.Require().NoError(err)
	s.True(decision.Granted)
	s.Equal(1, decision.Record.ScanCount)
	s.Equal("NOT_REDEEMED", string(decision.Record.Status))
	s.Equal(1, decision.Record.Remaining())

	decision, err = s.svc.Scan(s.ctx, "KRGC100001", "gate-b")
	s.Require().NoError(err)
	s.True(decision.Granted)
	s.Equal(2, decision.Record.ScanCount)
	s.Equal("REDEEMED", string(decision.Record.Status))
	s.Equal(0, decision.Record.Remaining())
}

func (s *AdmissionSuite) TestScanBeyondCapacityDenied() {
	s.issue("KRGC100002", 1)

	decision, err := s.svc.Scan(s.ctx, "KRGC100002", "gate-a")
	s.Require().NoError(err)
	s.True(decision.Granted)

	decision, err = s.svc.Scan(s.ctx, "KRGC100002", "gate-a")
	s.Require().NoError(err)
	s.False(decision.Granted)
	s.Equal("capacity_exhausted", decision.Reason)
	s.Equal(1, decision.Record.ScanCount)
}

func (s *AdmissionSuite) TestScanUnknownCodeLeavesNoRecord() {
	_, err := s.svc.Scan(s.ctx, "KRGC999999", "gate-a")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	record, err := s.redemptions.Get(s.ctx, "KRGC999999")
	s.Require().NoError(err)
	s.Nil(record)
}

func (s *AdmissionSuite) TestScanEmptyPayloadRejected() {
	_, err := s.svc.Scan(s.ctx, "   ", "gate-a")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AdmissionSuite) TestScanAcceptsQRPayload() {
	s.issue("KRGC100003", 1)

	payload := card.QRPayload("https://guestpass.local/rsvp", "KRGC100003")
	decision, err := s.svc.Scan(s.ctx, payload, "gate-a")
	s.Require().NoError(err)
	s.True(decision.Granted)
	s.Equal("KRGC100003", decision.Record.CredentialCode)
}

func (s *AdmissionSuite) TestResolveByDisplayLookup() {
	s.issue("KRGC100008", 2)

	cred, err := s.svc.ResolveByDisplayLookup(s.ctx, card.QRPayload("https://guestpass.local/rsvp", "KRGC100008"))
	s.Require().NoError(err)
	s.Equal("KRGC100008", cred.Code)
	s.Equal("owner-1", cred.OwnerRef)

	// Lookup never consumes an admission.
	record, err := s.redemptions.Get(s.ctx, "KRGC100008")
	s.Require().NoError(err)
	s.Nil(record)

	_, err = s.svc.ResolveByDisplayLookup(s.ctx, "KRGC777777")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AdmissionSuite) TestScanRecordsTimestampFromRequestContext() {
	s.issue("KRGC100004", 1)
	at := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, at)

	decision, err := s.svc.Scan(ctx, "KRGC100004", "gate-a")
	s.Require().NoError(err)
	s.Equal(at, decision.Record.LastScannedAt)
	s.Equal("gate-a", decision.Record.LastScannedBy)
}

func (s *AdmissionSuite) TestConcurrentScansAdmitExactlyCapacity() {
	const capacity = 3
	const scanners = 50
	s.issue("KRGC100005", capacity)

	var granted, denied atomic.Int64
	g, ctx := errgroup.WithContext(s.ctx)
	for i := 0; i < scanners; i++ {
		g.Go(func() error {
			decision, err := s.svc.Scan(ctx, "KRGC100005", "gate-a")
			if err != nil {
				return err
			}
			if decision.Granted {
				granted.Add(1)
			} else {
				denied.Add(1)
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int64(capacity), granted.Load())
	s.Equal(int64(scanners-capacity), denied.Load())

	record, err := s.redemptions.Get(s.ctx, "KRGC100005")
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal(capacity, record.ScanCount)
	s.True(record.InvariantsHold())
}

func (s *AdmissionSuite) TestScanEmitsAuditEvents() {
	s.issue("KRGC100006", 1)

	_, err := s.svc.Scan(s.ctx, "KRGC100006", "gate-a")
	s.Require().NoError(err)
	_, err = s.svc.Scan(s.ctx, "KRGC100006", "gate-a")
	s.Require().NoError(err)

	events := s.auditStore.All()
	s.Require().Len(events, 2)
	s.Equal(audit.ActionAdmissionGranted, events[0].Action)
	s.Equal(audit.ActionAdmissionDenied, events[1].Action)
	s.Equal("capacity_exhausted", events[1].Detail)
}

func (s *AdmissionSuite) TestProgressBeforeAnyScan() {
	s.issue("KRGC100007", 4)

	record, err := s.svc.Progress(s.ctx, "KRGC100007")
	s.Require().NoError(err)
	s.Equal(0, record.ScanCount)
	s.Equal(4, record.Capacity)
	s.Equal("NOT_REDEEMED", string(record.Status))
}

func (s *AdmissionSuite) TestProgressUnknownCode() {
	_, err := s.svc.Progress(s.ctx, "KRGC888888")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAdmissionSuite(t *testing.T) {
	suite.Run(t, new(AdmissionSuite))
}

func TestExtractCode(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "bare code", payload: "KRGC123456", want: "KRGC123456"},
		{name: "qr uri", payload: "https://guestpass.local/rsvp/KRGC123456", want: "KRGC123456"},
		{name: "trailing slash", payload: "https://guestpass.local/rsvp/KRGC123456/", want: "KRGC123456"},
		{name: "whitespace trimmed", payload: "  KRGC123456\n", want: "KRGC123456"},
		{name: "empty", payload: "", wantErr: true},
		{name: "only slashes", payload: "///", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractCode(tc.payload)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
