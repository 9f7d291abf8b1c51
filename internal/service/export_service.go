package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/internal/dto"
	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
	"github.com/uni-iro/mou-registry-api/pkg/export"
	"github.com/uni-iro/mou-registry-api/pkg/storage"
)

type exportMOURepository interface {
	List(ctx context.Context, filter models.MOUFilter) ([]models.MOU, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       dto.ReportFormat
	ExpiresAt    time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the MOU register into downloadable files.
type ExportService struct {
	mous    exportMOURepository
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(mous exportMOURepository, fileStore fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		mous:    mous,
		storage: fileStore,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// GenerateRegister renders the register into the requested format and returns
// a signed download token.
func (s *ExportService) GenerateRegister(ctx context.Context, req dto.RegisterExportRequest) (*ExportResult, error) {
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	mous, err := s.mous.List(ctx, models.MOUFilter{OrganizationID: req.OrganizationID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register")
	}

	dataset := buildRegisterDataset(mous)
	title := "MOU Register"

	var payload []byte
	switch req.Format {
	case dto.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case dto.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("mou_register_%s.%s", time.Now().UTC().Format("20060102_150405"), req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/register/download/%s", prefix, token),
		Format:       req.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func buildRegisterDataset(mous []models.MOU) export.Dataset {
	headers := []string{"Title", "Partner Organization", "Purpose", "Submitted By", "Date Submitted", "Valid Until", "Legal", "Faculty", "Senate", "UGC"}
	rows := make([]map[string]string, 0, len(mous))
	for _, mou := range mous {
		rows = append(rows, map[string]string{
			"Title":                mou.Title,
			"Partner Organization": mou.PartnerOrganization,
			"Purpose":              mou.Purpose,
			"Submitted By":         mou.SubmittedBy,
			"Date Submitted":       mou.DateSubmitted.UTC().Format("2006-01-02"),
			"Valid Until":          mou.ValidUntil.UTC().Format("2006-01-02"),
			"Legal":                formatStage(mou.Status.Legal),
			"Faculty":              formatStage(mou.Status.Faculty),
			"Senate":               formatStage(mou.Status.Senate),
			"UGC":                  formatStage(mou.Status.UGC),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatStage(approval models.StageApproval) string {
	if !approval.Approved {
		return "Pending"
	}
	if approval.Date == nil {
		return "Approved"
	}
	return fmt.Sprintf("Approved %s", approval.Date.UTC().Format("2006-01-02"))
}
