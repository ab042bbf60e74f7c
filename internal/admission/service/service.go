package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"guestpass/internal/admission/metrics"
	"guestpass/internal/admission/models"
	admissionstore "guestpass/internal/admission/store"
	"guestpass/internal/audit"
	credentialmodels "guestpass/internal/credential/models"
	dErrors "guestpass/pkg/domain-errors"
	"guestpass/pkg/requestcontext"
)

const (
	denyReasonUnknownCode = "unknown_code"
	denyReasonCapacity    = "capacity_exhausted"
)

// CredentialSource resolves admission codes to issued credentials.
type CredentialSource interface {
	FindByCode(ctx context.Context, code string) (*credentialmodels.Credential, error)
}

// Service gates entry by redeeming scans against credential capacity.
type Service struct {
	credentials CredentialSource
	redemptions admissionstore.Store
	logger      *slog.Logger
	auditPub    audit.Publisher
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditPub = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(credentials CredentialSource, redemptions admissionstore.Store, opts ...Option) (*Service, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential source is required")
	}
	if redemptions == nil {
		return nil, fmt.Errorf("redemption store is required")
	}
	s := &Service{
		credentials: credentials,
		redemptions: redemptions,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Decision is the outcome of a single scan.
type Decision struct {
	Granted bool
	Reason  string
	Record  *models.RedemptionRecord
}

// Scan redeems one admission slot for the credential identified by the
// scanned payload. The payload may be a bare admission code or the full
// QR URI printed on the card. Admission is granted while scan count is
// below credential capacity; the increment is atomic in the store, so
// concurrent scans of the same code can never over-admit.
func (s *Service) Scan(ctx context.Context, payload, scannedBy string) (*Decision, error) {
	code, err := ExtractCode(payload)
	if err != nil {
		return nil, err
	}

	cred, err := s.credentials.FindByCode(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up credential")
	}
	if cred == nil {
		s.metrics.IncDenied(denyReasonUnknownCode)
		s.auditDenied(ctx, code, scannedBy, denyReasonUnknownCode)
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown admission code")
	}

	at := requestcontext.Now(ctx)
	record, applied, err := s.redemptions.Redeem(ctx, code, cred.Capacity, scannedBy, at)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "redeem scan")
	}

	if !applied {
		s.metrics.IncDenied(denyReasonCapacity)
		s.auditDenied(ctx, code, scannedBy, denyReasonCapacity)
		s.logger.InfoContext(ctx, "admission denied",
			"code", code,
			"scanned_by", scannedBy,
			"scan_count", record.ScanCount,
			"capacity", record.Capacity,
		)
		return &Decision{Granted: false, Reason: denyReasonCapacity, Record: record}, nil
	}

	if !record.InvariantsHold() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("redemption state corrupt for %s: count=%d capacity=%d", code, record.ScanCount, record.Capacity))
	}

	s.metrics.IncGranted()
	if record.Status == models.StatusRedeemed {
		s.metrics.IncRedeemed()
	}
	audit.Log(ctx, s.logger, s.auditPub, audit.Event{
		Action:         audit.ActionAdmissionGranted,
		CredentialCode: code,
		OwnerRef:       cred.OwnerRef,
		Actor:          scannedBy,
		Detail:         fmt.Sprintf("scan %d of %d", record.ScanCount, record.Capacity),
	})
	s.logger.InfoContext(ctx, "admission granted",
		"code", code,
		"scanned_by", scannedBy,
		"scan_count", record.ScanCount,
		"capacity", record.Capacity,
		"status", record.Status,
	)
	return &Decision{Granted: true, Record: record}, nil
}

// Progress reports redemption state for a credential. Codes that were
// issued but never scanned report zero scans with NOT_REDEEMED status.
func (s *Service) Progress(ctx context.Context, code string) (*models.RedemptionRecord, error) {
	code, err := ExtractCode(code)
	if err != nil {
		return nil, err
	}

	cred, err := s.credentials.FindByCode(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up credential")
	}
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown admission code")
	}

	record, err := s.redemptions.Get(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load redemption record")
	}
	if record == nil {
		record = &models.RedemptionRecord{
			CredentialCode: code,
			Capacity:       cred.Capacity,
			Status:         models.StatusNotRedeemed,
		}
	}
	return record, nil
}

// ResolveByDisplayLookup resolves a scanned display payload, bare code or
// full QR URI, to the issued credential without consuming an admission.
// Gate UIs use it to show guest details before the operator commits a scan.
func (s *Service) ResolveByDisplayLookup(ctx context.Context, rawPayload string) (*credentialmodels.Credential, error) {
	code, err := ExtractCode(rawPayload)
	if err != nil {
		return nil, err
	}
	cred, err := s.credentials.FindByCode(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up credential")
	}
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown admission code")
	}
	return cred, nil
}

func (s *Service) auditDenied(ctx context.Context, code, scannedBy, reason string) {
	audit.Log(ctx, s.logger, s.auditPub, audit.Event{
		Action:         audit.ActionAdmissionDenied,
		CredentialCode: code,
		Actor:          scannedBy,
		Detail:         reason,
	})
}

// ExtractCode accepts either a bare admission code or the QR URI embedded
// on rendered cards and returns the trailing code segment.
func ExtractCode(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "scan payload is empty")
	}
	code := strings.TrimRight(payload, "/")
	if i := strings.LastIndex(code, "/"); i >= 0 {
		code = code[i+1:]
	}
	if code == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "scan payload has no admission code")
	}
	return code, nil
}
