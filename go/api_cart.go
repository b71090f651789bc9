package shopserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cartmapper "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/http/mapper"
	cartapp "github.com/tshirtshop/commerce-api/internal/domains/cart/application"
	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

// CartAPI wires HTTP transport with the cart bounded context service.
type CartAPI struct {
	service cartports.Service
}

// NewCartAPI creates a CartAPI backed by the provided service.
func NewCartAPI(service cartports.Service) CartAPI {
	return CartAPI{service: service}
}

// AddItemRequest is the payload for adding a product to a cart. CartID is
// optional; when absent a fresh cart identifier is generated for the caller.
type AddItemRequest struct {
	CartID     string `json:"cart_id"`
	ProductID  int64  `json:"product_id"`
	Attributes string `json:"attributes"`
	Quantity   int32  `json:"quantity"`
}

// UpdateItemRequest overwrites a cart line's quantity.
type UpdateItemRequest struct {
	Quantity int32 `json:"quantity"`
}

// Get /cart
// Generate a unique cart identifier
func (api *CartAPI) GenerateCartId(c *gin.Context) {
	cartID, err := api.service.GenerateCartID(c.Request.Context())
	if err != nil {
		respondCartServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart_id": cartID.String()})
}

// Post /cart
// Add a product to a cart, merging into an existing line on exact attribute match
func (api *CartAPI) AddItemToCart(c *gin.Context) {
	var payload AddItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cartID := cartdomain.CartID(payload.CartID)
	if payload.CartID == "" {
		generated, err := api.service.GenerateCartID(c.Request.Context())
		if err != nil {
			respondCartServiceError(c, err)
			return
		}
		cartID = generated
	}
	snapshot, err := api.service.AddItem(c.Request.Context(), cartID, payload.ProductID, payload.Attributes, payload.Quantity)
	if err != nil {
		respondCartServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartmapper.FromSnapshot(snapshot))
}

// Get /cart/:cart_id
// Fetch a cart with all of its items
func (api *CartAPI) GetCart(c *gin.Context) {
	cartID := cartdomain.CartID(c.Param("cart_id"))
	snapshot, err := api.service.GetCart(c.Request.Context(), cartID)
	if err != nil {
		respondCartServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartmapper.FromSnapshot(snapshot))
}

// Put /cart/item/:item_id
// Overwrite a cart line's quantity; zero removes the line
func (api *CartAPI) UpdateCartItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}
	var payload UpdateItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := api.service.UpdateItemQuantity(c.Request.Context(), itemID, payload.Quantity); err != nil {
		respondCartServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete /cart/item/:item_id
// Remove a single line from its cart
func (api *CartAPI) RemoveCartItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}
	if err := api.service.RemoveItem(c.Request.Context(), itemID); err != nil {
		respondCartServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete /cart/:cart_id
// Remove every item from a cart; clearing an unknown cart succeeds
func (api *CartAPI) EmptyCart(c *gin.Context) {
	cartID := cartdomain.CartID(c.Param("cart_id"))
	if err := api.service.EmptyCart(c.Request.Context(), cartID); err != nil {
		respondCartServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func respondCartServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, cartports.ErrNotFound), errors.Is(err, cartports.ErrItemNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, cartports.ErrCheckedOut):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, cartapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
