package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/listing-service/internal/api/dto"
	"github.com/spec-kit/listing-service/internal/domain"
	"github.com/spec-kit/listing-service/internal/service"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
)

// HomesHandler manages listing and inquiry endpoints.
type HomesHandler struct {
	service *service.HomeService
}

// NewHomesHandler constructs handler.
func NewHomesHandler(homeService *service.HomeService) *HomesHandler {
	return &HomesHandler{service: homeService}
}

// ListHomes GET /home.
func (h *HomesHandler) ListHomes(c *fiber.Ctx) error {
	input := service.HomeFilterInput{
		City:         strings.TrimSpace(c.Query("city")),
		PropertyType: domain.PropertyType(strings.ToUpper(strings.TrimSpace(c.Query("propertyType")))),
	}
	var err error
	if input.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return err
	}
	if input.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return err
	}

	homes, err := h.service.ListHomes(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.HomeSummary, 0, len(homes))
	for _, home := range homes {
		items = append(items, dto.NewHomeSummary(home))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetHome GET /home/:id.
func (h *HomesHandler) GetHome(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	home, err := h.service.GetHome(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHomeResponse(home)})
}

// CreateHome POST /home.
func (h *HomesHandler) CreateHome(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateHomeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	input := service.HomeCreateInput{
		Address:           req.Address,
		City:              req.City,
		Price:             req.Price,
		LandSize:          req.LandSize,
		PropertyType:      domain.PropertyType(req.PropertyType),
		NumberOfBedrooms:  req.NumberOfBedrooms,
		NumberOfBathrooms: req.NumberOfBathrooms,
	}
	for _, img := range req.Images {
		input.ImageURLs = append(input.ImageURLs, img.URL)
	}

	home, err := h.service.CreateHome(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewHomeResponse(home)})
}

// UpdateHome PUT /home/:id.
func (h *HomesHandler) UpdateHome(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateHomeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	input := service.HomeUpdateInput{
		Address:           req.Address,
		City:              req.City,
		Price:             req.Price,
		LandSize:          req.LandSize,
		NumberOfBedrooms:  req.NumberOfBedrooms,
		NumberOfBathrooms: req.NumberOfBathrooms,
	}
	if req.PropertyType != nil {
		pt := domain.PropertyType(*req.PropertyType)
		input.PropertyType = &pt
	}

	home, err := h.service.UpdateHome(c.UserContext(), caller, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHomeResponse(home)})
}

// DeleteHome DELETE /home/:id.
func (h *HomesHandler) DeleteHome(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteHome(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}

// Inquire POST /home/:id/inquire.
func (h *HomesHandler) Inquire(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.InquireRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.service.Inquire(c.UserContext(), caller, id, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// ListMessages GET /home/:id/messages.
func (h *HomesHandler) ListMessages(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	msgs, err := h.service.ListMessages(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	items := make([]dto.InquiryResponse, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, dto.NewInquiryResponse(m))
	}
	return c.JSON(fiber.Map{"data": items})
}

func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return &v, nil
}
