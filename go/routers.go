package shopserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc returns 501 Not Implemented.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the per-context HTTP handlers.
type ApiHandleFunctions struct {
	CartAPI   CartAPI
	OrdersAPI OrdersAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"GenerateCartId",
			http.MethodGet,
			"/cart",
			handleFunctions.CartAPI.GenerateCartId,
		},
		{
			"AddItemToCart",
			http.MethodPost,
			"/cart",
			handleFunctions.CartAPI.AddItemToCart,
		},
		{
			"GetCart",
			http.MethodGet,
			"/cart/:cart_id",
			handleFunctions.CartAPI.GetCart,
		},
		{
			"EmptyCart",
			http.MethodDelete,
			"/cart/:cart_id",
			handleFunctions.CartAPI.EmptyCart,
		},
		{
			"UpdateCartItem",
			http.MethodPut,
			"/cart/item/:item_id",
			handleFunctions.CartAPI.UpdateCartItem,
		},
		{
			"RemoveCartItem",
			http.MethodDelete,
			"/cart/item/:item_id",
			handleFunctions.CartAPI.RemoveCartItem,
		},
		{
			"CreateOrder",
			http.MethodPost,
			"/orders",
			handleFunctions.OrdersAPI.CreateOrder,
		},
		{
			"GetOrderById",
			http.MethodGet,
			"/orders/:order_id",
			handleFunctions.OrdersAPI.GetOrderById,
		},
		{
			"PayOrder",
			http.MethodPost,
			"/orders/:order_id/pay",
			handleFunctions.OrdersAPI.PayOrder,
		},
		{
			"GetCustomerOrders",
			http.MethodGet,
			"/customers/:id/orders",
			handleFunctions.OrdersAPI.GetCustomerOrders,
		},
	}
}
