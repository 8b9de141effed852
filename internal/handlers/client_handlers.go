package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"invoicely/internal/common"
	"invoicely/internal/models"
	"invoicely/internal/repositories"
	"invoicely/internal/services"
)

// ClientHandlers handles HTTP requests for clients.
type ClientHandlers struct {
	clientService services.ClientServiceInterface
}

func NewClientHandlers(clientService services.ClientServiceInterface) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

type clientPayload struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (p *clientPayload) toRequest() *services.ClientRequest {
	return &services.ClientRequest{
		Name:    p.Name,
		Email:   p.Email,
		Company: p.Company,
		Phone:   p.Phone,
		Address: p.Address,
	}
}

// CreateClient handles POST /clients.
func (h *ClientHandlers) CreateClient(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var payload clientPayload
	if err := c.Bind(&payload); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	client, err := h.clientService.CreateClient(ctx, userID, payload.toRequest())
	if err != nil {
		return clientError(c, err)
	}
	return c.JSON(http.StatusCreated, client)
}

// ListClients handles GET /clients.
func (h *ClientHandlers) ListClients(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clients, err := h.clientService.ListClients(ctx, userID)
	if err != nil {
		return clientError(c, err)
	}
	if clients == nil {
		clients = []*models.Client{}
	}
	return c.JSON(http.StatusOK, clients)
}

// GetClient handles GET /clients/:id.
func (h *ClientHandlers) GetClient(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	client, err := h.clientService.GetClientByID(ctx, userID, clientID)
	if err != nil {
		return clientError(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

// UpdateClient handles PUT /clients/:id.
func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var payload clientPayload
	if err := c.Bind(&payload); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	client, err := h.clientService.UpdateClient(ctx, userID, clientID, payload.toRequest())
	if err != nil {
		return clientError(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /clients/:id.
func (h *ClientHandlers) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.clientService.DeleteClient(ctx, userID, clientID); err != nil {
		return clientError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Client deleted successfully"})
}

func clientError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return common.SendNotFoundError(c, "client")
	default:
		return common.SendClientError(c, err.Error())
	}
}
