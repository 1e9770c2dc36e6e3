package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Iloudia/planner-shop/backend/internal/catalog"
	tokensvc "github.com/Iloudia/planner-shop/backend/internal/services/token"
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrUnknownProduct = errors.New("unknown product")
	ErrFileNotFound   = errors.New("file not found")
)

type Storage interface {
	Open(ctx context.Context, fileName string) (io.ReadCloser, int64, error)
}

type TokenVerifier interface {
	Verify(token string) (tokensvc.Payload, error)
}

// StatsRecorder counts served downloads. Failures are logged only; a
// broken counter never blocks a paying customer.
type StatsRecorder interface {
	Incr(ctx context.Context, productID string) (int64, error)
}

type Service struct {
	catalog *catalog.Catalog
	tokens  TokenVerifier
	storage Storage
	stats   StatsRecorder
	logger  *zap.Logger
}

// File is an open product file ready to stream. The caller owns Body
// and must close it.
type File struct {
	Name string
	Size int64
	Body io.ReadCloser
}

func NewService(c *catalog.Catalog, tokens TokenVerifier, storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		catalog: c,
		tokens:  tokens,
		storage: storage,
		logger:  logger,
	}
}

func (s *Service) AttachStats(stats StatsRecorder) {
	s.stats = stats
}

func (s *Service) Fetch(ctx context.Context, token string) (File, error) {
	if s.tokens == nil || s.storage == nil {
		return File{}, fmt.Errorf("download dependencies are not configured")
	}
	if token == "" {
		return File{}, ErrMissingToken
	}

	payload, err := s.tokens.Verify(token)
	if err != nil {
		return File{}, ErrInvalidToken
	}

	product, ok := s.catalog.Get(payload.ProductID)
	if !ok {
		return File{}, ErrUnknownProduct
	}

	body, size, err := s.storage.Open(ctx, product.FileName)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("open product file: %w", err)
	}

	if s.stats != nil {
		if _, statErr := s.stats.Incr(ctx, product.ID); statErr != nil {
			s.logger.Warn("download counter unavailable",
				zap.String("product_id", product.ID),
				zap.Error(statErr),
			)
		}
	}

	return File{
		Name: product.FileName,
		Size: size,
		Body: body,
	}, nil
}
