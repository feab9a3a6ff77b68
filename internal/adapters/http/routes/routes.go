package routes

import (
	"docshelf/internal/adapters/http/handlers"
	"docshelf/internal/adapters/http/middleware"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/config"
	"docshelf/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)
	purchaseRepo := repositories.NewPurchaseRepository(db)
	licenseRepo := repositories.NewLicenseRepository(db)
	discountRepo := repositories.NewDiscountCodeRepository(db)
	permissionRepo := repositories.NewFilePermissionRepository(db)
	activityRepo := repositories.NewActivityLogRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	guard := services.NewAdminGuard(userRepo, activityRepo)
	userService := services.NewUserService(db, userRepo, guard, activityRepo)
	discountService := services.NewDiscountService(discountRepo)
	derivativeService := services.NewDerivativeService()
	accessService := services.NewAccessService(documentRepo, licenseRepo, permissionRepo, activityRepo)
	documentService := services.NewDocumentService(documentRepo, accessService, derivativeService, activityRepo, cfg.Storage.Dir)
	purchaseService := services.NewPurchaseService(db, purchaseRepo, documentRepo, licenseRepo, discountService)
	permissionService := services.NewPermissionService(permissionRepo, userRepo, documentRepo, activityRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	discountHandler := handlers.NewDiscountHandler(discountService, documentService)
	permissionHandler := handlers.NewPermissionHandler(permissionService)
	activityHandler := handlers.NewActivityHandler(activityRepo)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Document routes (mixed public/admin)
	documentRoutes := apiV1.Group("/documents")
	setupDocumentRoutes(documentRoutes, documentHandler, permissionHandler, cfg)

	// Purchase routes (authenticated)
	purchaseRoutes := apiV1.Group("/purchases")
	purchaseRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPurchaseRoutes(purchaseRoutes, purchaseHandler)

	// Discount routes (authenticated; management is admin only)
	discountRoutes := apiV1.Group("/discounts")
	discountRoutes.Use(middleware.AuthMiddleware(cfg))
	setupDiscountRoutes(discountRoutes, discountHandler)

	// Permission routes (admin only)
	permissionRoutes := apiV1.Group("/permissions")
	permissionRoutes.Use(middleware.AuthMiddleware(cfg))
	permissionRoutes.Use(middleware.AdminOnly())
	setupPermissionRoutes(permissionRoutes, permissionHandler)

	// User management routes (admin only, own profile excepted)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUserRoutes(userRoutes, userHandler, permissionHandler, activityHandler)

	// Activity routes (admin only)
	activityRoutes := apiV1.Group("/activity")
	activityRoutes.Use(middleware.AuthMiddleware(cfg))
	activityRoutes.Use(middleware.AdminOnly())
	activityRoutes.Get("/", activityHandler.List)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupDocumentRoutes configures catalog and content delivery routes.
// Reads use OptionalAuth so anonymous viewers resolve to preview tiers;
// writes are admin only.
func setupDocumentRoutes(
	router fiber.Router,
	handler *handlers.DocumentHandler,
	permissionHandler *handlers.PermissionHandler,
	cfg *config.Config,
) {
	// Public reads
	router.Get("/", middleware.OptionalAuth(cfg), handler.List)
	router.Get("/:id", middleware.OptionalAuth(cfg), handler.Get)
	router.Get("/:id/access", middleware.OptionalAuth(cfg), handler.CheckAccess)

	// Content delivery is entitlement-dependent and must never be cached
	router.Get("/:id/content", middleware.OptionalAuth(cfg), middleware.NoCacheHeaders(), handler.GetContent)

	// Admin writes
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Create)
	router.Put("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Update)
	router.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Delete)
	router.Get("/:id/permissions", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), permissionHandler.ListByDocument)
}

// setupPurchaseRoutes configures purchase workflow routes
func setupPurchaseRoutes(router fiber.Router, handler *handlers.PurchaseHandler) {
	router.Post("/", handler.Create)
	router.Get("/me", handler.ListMine)
	router.Get("/:id", handler.Get)

	// Admin review
	router.Get("/", middleware.AdminOnly(), handler.List)
	router.Put("/:id/status", middleware.AdminOnly(), handler.SetStatus)
}

// setupDiscountRoutes configures discount code routes
func setupDiscountRoutes(router fiber.Router, handler *handlers.DiscountHandler) {
	// Any authenticated user can preview a code at checkout
	router.Get("/validate", handler.Validate)

	// Management is admin only
	router.Post("/", middleware.AdminOnly(), handler.Create)
	router.Get("/", middleware.AdminOnly(), handler.List)
	router.Put("/:id", middleware.AdminOnly(), handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

// setupPermissionRoutes configures file permission routes
func setupPermissionRoutes(router fiber.Router, handler *handlers.PermissionHandler) {
	router.Post("/", handler.Grant)
	router.Delete("/", handler.Revoke)
}

// setupUserRoutes configures user management and profile routes
func setupUserRoutes(
	router fiber.Router,
	handler *handlers.UserHandler,
	permissionHandler *handlers.PermissionHandler,
	activityHandler *handlers.ActivityHandler,
) {
	// Own profile (any authenticated user)
	router.Get("/me", handler.GetProfile)
	router.Put("/me", handler.UpdateProfile)
	router.Put("/me/password", handler.ChangePassword)

	// Administration
	router.Get("/", middleware.AdminOnly(), handler.ListUsers)
	router.Get("/:id", middleware.AdminOnly(), handler.GetUser)
	router.Put("/:id/role", middleware.AdminOnly(), handler.ChangeRole)
	router.Put("/:id/status", middleware.AdminOnly(), handler.ChangeStatus)
	router.Delete("/:id", middleware.AdminOnly(), handler.DeleteUser)
	router.Delete("/:id/permanent", middleware.AdminOnly(), middleware.StrictRateLimiter(), handler.PermanentlyDeleteUser)
	router.Get("/:id/permissions", middleware.AdminOnly(), permissionHandler.ListByUser)
	router.Get("/:id/activity", middleware.AdminOnly(), activityHandler.ListByUser)
}
