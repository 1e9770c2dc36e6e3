package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Iloudia/planner-shop/backend/internal/catalog"
	"github.com/Iloudia/planner-shop/backend/internal/infra/resend"
	"github.com/Iloudia/planner-shop/backend/internal/infra/stripeapi"
	"github.com/Iloudia/planner-shop/backend/internal/pkg/validate"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrUnknownProduct = errors.New("unknown product")
	ErrInvalidSession = errors.New("invalid session")
)

const defaultTokenTTL = 48 * time.Hour

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req stripeapi.CheckoutSessionRequest) (stripeapi.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (stripeapi.CheckoutSession, error)
}

type TokenMinter interface {
	Mint(productID, sessionID string, ttl time.Duration) (string, error)
}

type Notifier interface {
	Send(ctx context.Context, email resend.Email) error
}

type EventStore interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

type Config struct {
	BaseURL  string
	TokenTTL time.Duration
}

type Service struct {
	catalog *catalog.Catalog
	gateway Gateway
	tokens  TokenMinter
	cfg     Config
	logger  *zap.Logger

	notifier Notifier
	events   EventStore

	// dispatch detaches the webhook notification send from the request
	// lifecycle; tests replace it with a synchronous call.
	dispatch func(fn func())
}

type Dependencies struct {
	Catalog *catalog.Catalog
	Gateway Gateway
	Tokens  TokenMinter
}

type CreateResult struct {
	SessionID   string
	RedirectURL string
}

type VerifyResult struct {
	Paid          bool
	DownloadURL   string
	ProductName   string
	CustomerEmail string
}

func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		catalog:  deps.Catalog,
		gateway:  deps.Gateway,
		tokens:   deps.Tokens,
		cfg:      cfg,
		logger:   logger,
		dispatch: func(fn func()) { go fn() },
	}
}

// AttachNotifications wires the email sender and the processed-event
// store used by the webhook path. Both are optional; without an event
// store every delivery is treated as the first one.
func (s *Service) AttachNotifications(notifier Notifier, events EventStore) {
	s.notifier = notifier
	s.events = events
}

func (s *Service) CreateSession(ctx context.Context, productID string) (CreateResult, error) {
	if s.gateway == nil {
		return CreateResult{}, fmt.Errorf("payment gateway is not configured")
	}
	if !validate.Required(productID) {
		return CreateResult{}, ErrValidation
	}

	product, ok := s.catalog.Get(productID)
	if !ok {
		return CreateResult{}, ErrUnknownProduct
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripeapi.CheckoutSessionRequest{
		ProductName: product.Name,
		AmountMinor: product.PriceMinor,
		SuccessURL:  s.cfg.BaseURL + "/merci?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.cfg.BaseURL + "/produits/" + url.PathEscape(product.ID),
		Metadata:    map[string]string{"product_id": product.ID},
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("create gateway session: %w", err)
	}

	return CreateResult{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// VerifySession is safe to call repeatedly: an unpaid session has no
// side effect and a paid one only mints a fresh stateless token.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (VerifyResult, error) {
	if s.gateway == nil || s.tokens == nil {
		return VerifyResult{}, fmt.Errorf("checkout dependencies are not configured")
	}
	if !validate.Required(sessionID) {
		return VerifyResult{}, ErrInvalidSession
	}

	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, stripeapi.ErrSessionNotFound) {
			return VerifyResult{}, ErrInvalidSession
		}
		return VerifyResult{}, fmt.Errorf("fetch gateway session: %w", err)
	}

	if !session.Paid() {
		return VerifyResult{Paid: false}, nil
	}

	product, ok := s.catalog.Get(session.Metadata["product_id"])
	if !ok {
		return VerifyResult{}, ErrUnknownProduct
	}

	downloadURL, err := s.mintDownloadURL(product.ID, session.ID)
	if err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{
		Paid:          true,
		DownloadURL:   downloadURL,
		ProductName:   product.Name,
		CustomerEmail: session.CustomerEmail,
	}, nil
}

// HandleWebhookEvent processes a verified gateway event. It never
// returns an error for business-level failures: the gateway retries on
// anything but an ack, so product lookup and delivery problems are
// logged and swallowed.
func (s *Service) HandleWebhookEvent(ctx context.Context, event stripeapi.Event) {
	if event.Type != stripeapi.EventCheckoutSessionCompleted {
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type))
		return
	}

	if !s.firstDelivery(ctx, event.ID) {
		s.logger.Info("webhook event already processed", zap.String("event_id", event.ID))
		return
	}

	session, err := stripeapi.SessionFromEvent(event)
	if err != nil {
		s.logger.Warn("webhook session decode failed", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	product, ok := s.catalog.Get(session.Metadata["product_id"])
	if !ok {
		s.logger.Warn("webhook references unknown product",
			zap.String("event_id", event.ID),
			zap.String("product_id", session.Metadata["product_id"]),
		)
		return
	}

	if s.notifier == nil || session.CustomerEmail == "" {
		s.logger.Info("webhook processed without notification",
			zap.String("event_id", event.ID),
			zap.String("product_id", product.ID),
			zap.Bool("has_email", session.CustomerEmail != ""),
		)
		return
	}

	downloadURL, err := s.mintDownloadURL(product.ID, session.ID)
	if err != nil {
		s.logger.Error("webhook token mint failed", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	email := resend.Email{
		To:      session.CustomerEmail,
		Subject: "Votre téléchargement " + product.Name,
		HTML: fmt.Sprintf(
			`<p>Merci pour votre achat !</p><p><a href="%s">Télécharger %s</a></p><p>Le lien expire dans 48 heures.</p>`,
			downloadURL, product.Name,
		),
	}

	logger := s.logger
	notifier := s.notifier
	s.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := notifier.Send(sendCtx, email); err != nil {
			logger.Error("download link delivery failed",
				zap.String("product_id", product.ID),
				zap.Error(err),
			)
		}
	})
}

func (s *Service) firstDelivery(ctx context.Context, eventID string) bool {
	if s.events == nil || eventID == "" {
		return true
	}

	first, err := s.events.MarkProcessed(ctx, eventID)
	if err != nil {
		// Dedup store being down must not drop paid-order notifications.
		s.logger.Warn("webhook dedup unavailable", zap.String("event_id", eventID), zap.Error(err))
		return true
	}

	return first
}

func (s *Service) mintDownloadURL(productID, sessionID string) (string, error) {
	minted, err := s.tokens.Mint(productID, sessionID, s.cfg.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("mint download token: %w", err)
	}
	return s.cfg.BaseURL + "/api/download?token=" + url.QueryEscape(minted), nil
}
