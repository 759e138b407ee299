package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/handlers"
	"github.com/Skotchmaster/shop_api/internal/handlers/cart"
	"github.com/Skotchmaster/shop_api/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *handlers.AuthHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	AddressHandler  *handlers.AddressHandler
	CartHandler     *cart.CartHandler
	SearchHandler   *handlers.SearchHandler
	TokenService    *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", d.AuthHandler.SignUp)
	auth.POST("/signin", d.AuthHandler.SignIn)
	auth.POST("/signout", d.AuthHandler.SignOut)
	auth.GET("/user", d.AuthHandler.CurrentUser, d.TokenService.AutoRefreshMiddleware)

	categories := api.Group("/categories")
	categories.GET("", d.CategoryHandler.GetCategories)
	categories.GET("/:id", d.CategoryHandler.GetCategory)
	categories.GET("/:id/products", d.ProductHandler.GetProductsByCategory)
	categories.POST("", d.CategoryHandler.CreateCategory, d.TokenService.AutoRefreshMiddlewareAdmin)
	categories.PUT("/:id", d.CategoryHandler.UpdateCategory, d.TokenService.AutoRefreshMiddlewareAdmin)
	categories.DELETE("/:id", d.CategoryHandler.DeleteCategory, d.TokenService.AutoRefreshMiddlewareAdmin)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, d.TokenService.AutoRefreshMiddlewareAdmin)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, d.TokenService.AutoRefreshMiddlewareAdmin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.TokenService.AutoRefreshMiddlewareAdmin)

	api.GET("/search", d.SearchHandler.Search)

	cartGroup := api.Group("/cart", d.TokenService.AutoRefreshMiddleware)
	cartGroup.POST("/product/:productId/quantity/:quantity", d.CartHandler.AddProductToCart)
	cartGroup.PUT("/product/:productId/operation/:operation", d.CartHandler.UpdateProductQuantity)
	cartGroup.DELETE("/:cartId/product/:productId", d.CartHandler.RemoveProductFromCart)

	carts := api.Group("/carts")
	carts.GET("", d.CartHandler.GetAllCarts, d.TokenService.AutoRefreshMiddlewareAdmin)
	carts.GET("/user/cart", d.CartHandler.GetUserCart, d.TokenService.AutoRefreshMiddleware)

	api.POST("/order/payment/:paymentMethod", d.CartHandler.PlaceOrder, d.TokenService.AutoRefreshMiddleware)

	address := api.Group("/address")
	address.POST("", d.AddressHandler.CreateAddress, d.TokenService.AutoRefreshMiddleware)
	address.GET("", d.AddressHandler.GetAddresses, d.TokenService.AutoRefreshMiddlewareAdmin)
	address.GET("/user", d.AddressHandler.GetUserAddresses, d.TokenService.AutoRefreshMiddleware)
	address.GET("/:id", d.AddressHandler.GetAddress, d.TokenService.AutoRefreshMiddlewareAdmin)
	address.PUT("/:id", d.AddressHandler.UpdateAddress, d.TokenService.AutoRefreshMiddleware)
	address.DELETE("/:id", d.AddressHandler.DeleteAddress, d.TokenService.AutoRefreshMiddleware)
}
