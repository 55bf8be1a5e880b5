package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/listing-service/internal/domain"
	"github.com/spec-kit/listing-service/internal/events"
	"github.com/spec-kit/listing-service/internal/repository"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
)

const inquiryPreviewLength = 120

// HomeService coordinates listing and inquiry workflows.
type HomeService struct {
	homes      repository.HomeRepository
	images     repository.ImageRepository
	messages   repository.MessageRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
}

// HomeDependencies bundles repositories for the home service.
type HomeDependencies struct {
	HomeRepo    repository.HomeRepository
	ImageRepo   repository.ImageRepository
	MessageRepo repository.MessageRepository
	Tx          repository.TxManager
	Dispatcher  events.Dispatcher
}

// HomeFilterInput describes the public listing filters.
type HomeFilterInput struct {
	City         string
	MinPrice     *float64
	MaxPrice     *float64
	PropertyType domain.PropertyType
}

// HomeCreateInput describes a new listing.
type HomeCreateInput struct {
	Address           string
	City              string
	Price             float64
	LandSize          float64
	PropertyType      domain.PropertyType
	NumberOfBedrooms  int
	NumberOfBathrooms float64
	ImageURLs         []string
}

// HomeUpdateInput carries the fields to change; nil fields stay as they are.
type HomeUpdateInput struct {
	Address           *string
	City              *string
	Price             *float64
	LandSize          *float64
	PropertyType      *domain.PropertyType
	NumberOfBedrooms  *int
	NumberOfBathrooms *float64
}

// NewHomeService constructs the service. Without a TxManager multi-step writes run unwrapped.
func NewHomeService(deps HomeDependencies) *HomeService {
	tx := deps.Tx
	if tx == nil {
		tx = noTx{}
	}
	return &HomeService{
		homes:      deps.HomeRepo,
		images:     deps.ImageRepo,
		messages:   deps.MessageRepo,
		tx:         tx,
		dispatcher: deps.Dispatcher,
	}
}

type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ListHomes returns homes matching the filter, each with at most its first image.
// An empty result is reported as not found.
func (s *HomeService) ListHomes(ctx context.Context, input HomeFilterInput) ([]domain.Home, error) {
	filter := repository.HomeFilter{
		MinPrice: input.MinPrice,
		MaxPrice: input.MaxPrice,
	}
	if city := strings.TrimSpace(input.City); city != "" {
		filter.City = &city
	}
	if input.PropertyType != "" {
		if !input.PropertyType.Valid() {
			return nil, apperrors.NewValidationError("invalid property type", map[string]any{"propertyType": input.PropertyType})
		}
		pt := input.PropertyType
		filter.PropertyType = &pt
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperrors.NewValidationError("minPrice must not exceed maxPrice", nil)
	}

	homes, err := s.homes.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(homes) == 0 {
		return nil, apperrors.NewNotFound("home", nil)
	}
	return homes, nil
}

// GetHome returns a single home with all of its images.
func (s *HomeService) GetHome(ctx context.Context, id int64) (*domain.Home, error) {
	home, err := s.loadHome(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByHome(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	home.Images = images
	return home, nil
}

// CreateHome stores a listing owned by the caller and its images in one transaction.
func (s *HomeService) CreateHome(ctx context.Context, caller *domain.User, input HomeCreateInput) (*domain.Home, error) {
	if !input.PropertyType.Valid() {
		return nil, apperrors.NewValidationError("invalid property type", map[string]any{"propertyType": input.PropertyType})
	}

	home := &domain.Home{
		Address:           strings.TrimSpace(input.Address),
		City:              strings.TrimSpace(input.City),
		Price:             input.Price,
		LandSize:          input.LandSize,
		PropertyType:      input.PropertyType,
		NumberOfBedrooms:  input.NumberOfBedrooms,
		NumberOfBathrooms: input.NumberOfBathrooms,
		RealtorID:         caller.ID,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.homes.Create(ctx, home); err != nil {
			return err
		}
		images, err := s.images.CreateMany(ctx, home.ID, input.ImageURLs)
		if err != nil {
			return err
		}
		home.Images = images
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventHomeCreated, home.ID, caller, events.HomeCreatedPayload{
		City:         home.City,
		Price:        home.Price,
		PropertyType: home.PropertyType,
		ImageCount:   len(home.Images),
	})
	return home, nil
}

// AuthorizeOwner checks that callerID is the realtor who owns the home.
// It runs after the role check and is independent of it.
func (s *HomeService) AuthorizeOwner(ctx context.Context, homeID, callerID int64) error {
	realtor, err := s.homes.GetRealtorByHomeID(ctx, homeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("home", map[string]any{"id": homeID})
		}
		return apperrors.MapError(err)
	}
	if realtor.ID != callerID {
		return apperrors.NewForbidden("only the listing realtor may access this home")
	}
	return nil
}

// UpdateHome applies a partial update to a home owned by the caller.
func (s *HomeService) UpdateHome(ctx context.Context, caller *domain.User, id int64, input HomeUpdateInput) (*domain.Home, error) {
	if err := s.AuthorizeOwner(ctx, id, caller.ID); err != nil {
		return nil, err
	}
	home, err := s.loadHome(ctx, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if input.Address != nil {
		home.Address = strings.TrimSpace(*input.Address)
		changed = append(changed, "address")
	}
	if input.City != nil {
		home.City = strings.TrimSpace(*input.City)
		changed = append(changed, "city")
	}
	if input.Price != nil {
		home.Price = *input.Price
		changed = append(changed, "price")
	}
	if input.LandSize != nil {
		home.LandSize = *input.LandSize
		changed = append(changed, "landSize")
	}
	if input.PropertyType != nil {
		if !input.PropertyType.Valid() {
			return nil, apperrors.NewValidationError("invalid property type", map[string]any{"propertyType": *input.PropertyType})
		}
		home.PropertyType = *input.PropertyType
		changed = append(changed, "propertyType")
	}
	if input.NumberOfBedrooms != nil {
		home.NumberOfBedrooms = *input.NumberOfBedrooms
		changed = append(changed, "numberOfBedrooms")
	}
	if input.NumberOfBathrooms != nil {
		home.NumberOfBathrooms = *input.NumberOfBathrooms
		changed = append(changed, "numberOfBathrooms")
	}

	if len(changed) > 0 {
		if err := s.homes.Update(ctx, home); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("home", map[string]any{"id": id})
			}
			return nil, apperrors.MapError(err)
		}
		s.publishEvent(ctx, events.EventHomeUpdated, home.ID, caller, events.HomeUpdatedPayload{Fields: changed})
	}
	return home, nil
}

// DeleteHome removes a home owned by the caller. Images go first, then the home, in one transaction.
func (s *HomeService) DeleteHome(ctx context.Context, caller *domain.User, id int64) error {
	if err := s.AuthorizeOwner(ctx, id, caller.ID); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.images.DeleteByHome(ctx, id); err != nil {
			return err
		}
		return s.homes.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("home", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventHomeDeleted, id, caller, nil)
	return nil
}

// Inquire records a buyer's message to the realtor owning the home.
func (s *HomeService) Inquire(ctx context.Context, buyer *domain.User, homeID int64, message string) (*domain.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	realtor, err := s.homes.GetRealtorByHomeID(ctx, homeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("home", map[string]any{"id": homeID})
		}
		return nil, apperrors.MapError(err)
	}

	msg := &domain.Message{
		Message:   message,
		HomeID:    homeID,
		RealtorID: realtor.ID,
		BuyerID:   buyer.ID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.EventHomeInquired, homeID, buyer, events.HomeInquiredPayload{
		MessageID:    msg.ID,
		RealtorID:    realtor.ID,
		RealtorEmail: realtor.Email,
		BuyerID:      buyer.ID,
		BodyPreview:  preview(message),
	})
	return msg, nil
}

// ListMessages returns the inquiries for a home owned by the caller.
func (s *HomeService) ListMessages(ctx context.Context, caller *domain.User, homeID int64) ([]domain.MessageWithBuyer, error) {
	if err := s.AuthorizeOwner(ctx, homeID, caller.ID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByHome(ctx, homeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

func (s *HomeService) loadHome(ctx context.Context, id int64) (*domain.Home, error) {
	home, err := s.homes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("home", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return home, nil
}

func (s *HomeService) publishEvent(ctx context.Context, eventType events.EventType, homeID int64, actor *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		HomeID:    homeID,
		Actor:     events.Actor{UserID: actor.ID, UserType: actor.UserType},
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= inquiryPreviewLength {
		return body
	}
	return string(runes[:inquiryPreviewLength]) + "..."
}
