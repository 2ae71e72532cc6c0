package router

import (
	"slices"
	"time"

	"lifelog/backend/internal/auth"
	"lifelog/backend/internal/handlers"
	appmiddleware "lifelog/backend/internal/middleware"
	"lifelog/backend/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with every route. store backs the rate limits on
// the credential endpoints.
func SetupRouter(log *zap.Logger, store appmiddleware.RateLimitStore) *gin.Engine {
	router := gin.New()

	router.Use(appmiddleware.Metrics())
	router.Use(appmiddleware.GinZap(log, time.RFC3339, true))
	router.Use(appmiddleware.GinRecovery(log, true))
	router.Use(cors.New(corsConfig()))
	router.Use(appmiddleware.SecurityHeaders())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", handlers.HealthCheckHandler)
	router.GET("/health/detailed", handlers.DetailedHealthCheckHandler)

	api := router.Group("/api")
	api.GET("", handlers.APIInfoHandler)

	setupAuthRoutes(api, store)

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware())
	setupDayTrackerRoutes(protected)
	setupKnowledgeRoutes(protected)
	setupVaultRoutes(protected)
	setupDocumentRoutes(protected)
	setupInventoryRoutes(protected)

	router.NoRoute(handlers.NotFoundHandler)
	return router
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origins := config.Cfg.CORSAllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func setupAuthRoutes(api *gin.RouterGroup, store appmiddleware.RateLimitStore) {
	resetLimit := appmiddleware.RateLimit(store, "password-reset", config.Cfg.PasswordResetRateLimit, config.Cfg.PasswordResetRateWindow)
	signInLimit := appmiddleware.RateLimit(store, "sign-in", config.Cfg.SignInRateLimit, config.Cfg.SignInRateWindow)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/sign-up", signInLimit, handlers.SignUpHandler)
		authRoutes.POST("/sign-in", signInLimit, handlers.SignInHandler)
		authRoutes.POST("/forgot-password", resetLimit, handlers.ForgotPasswordHandler)
		authRoutes.POST("/reset-password", resetLimit, handlers.ResetPasswordHandler)
		authRoutes.GET("/verify-reset-token", handlers.VerifyResetTokenHandler)

		session := authRoutes.Group("")
		session.Use(auth.AuthMiddleware())
		{
			session.POST("/signout", handlers.SignOutHandler)
			session.GET("/me", handlers.GetMeHandler)
			session.PUT("/me", handlers.UpdateMeHandler)
			session.GET("/me/summary", handlers.GetUserDashboardSummaryHandler)
		}
	}
}

func setupDayTrackerRoutes(r *gin.RouterGroup) {
	boardRoutes := r.Group("/boards")
	{
		boardRoutes.GET("", handlers.ListBoardsHandler)
		boardRoutes.POST("", handlers.CreateBoardHandler)
		boardRoutes.PATCH("/reorder", handlers.ReorderBoardsHandler)
		boardRoutes.GET("/:id", handlers.GetBoardHandler)
		boardRoutes.PUT("/:id", handlers.UpdateBoardHandler)
		boardRoutes.PATCH("/:id/archive", handlers.ArchiveBoardHandler)
		boardRoutes.DELETE("/:id", handlers.DeleteBoardHandler)
	}

	taskRoutes := r.Group("/tasks")
	{
		taskRoutes.GET("", handlers.ListTasksHandler)
		taskRoutes.GET("/inbox", handlers.ListInboxTasksHandler)
		taskRoutes.GET("/overdue", handlers.ListOverdueTasksHandler)
		taskRoutes.POST("", handlers.CreateTaskHandler)
		taskRoutes.PATCH("/reorder", handlers.ReorderTasksHandler)
		taskRoutes.GET("/:id", handlers.GetTaskHandler)
		taskRoutes.PUT("/:id", handlers.UpdateTaskHandler)
		taskRoutes.PATCH("/:id/complete", handlers.CompleteTaskHandler)
		taskRoutes.PATCH("/:id/archive", handlers.ArchiveTaskHandler)
		taskRoutes.DELETE("/:id", handlers.DeleteTaskHandler)
	}

	journalRoutes := r.Group("/journals")
	{
		journalRoutes.GET("", handlers.ListJournalsHandler)
		journalRoutes.GET("/date/:date", handlers.GetJournalsByDateHandler)
		journalRoutes.GET("/recent", handlers.GetRecentJournalsHandler)
		journalRoutes.GET("/stats", handlers.GetJournalStatsHandler)
		journalRoutes.GET("/mood/:mood", handlers.GetJournalsByMoodHandler)
		journalRoutes.GET("/range", handlers.GetJournalsRangeHandler)
		journalRoutes.POST("", handlers.CreateJournalHandler)
		journalRoutes.GET("/:id", handlers.GetJournalHandler)
		journalRoutes.PUT("/:id", handlers.UpdateJournalHandler)
		journalRoutes.DELETE("/:id", handlers.DeleteJournalHandler)
	}
}

func setupKnowledgeRoutes(r *gin.RouterGroup) {
	notebookRoutes := r.Group("/notebooks")
	{
		notebookRoutes.GET("", handlers.ListNotebooksHandler)
		notebookRoutes.GET("/root", handlers.ListRootNotebooksHandler)
		notebookRoutes.POST("", handlers.CreateNotebookHandler)
		notebookRoutes.PATCH("/reorder", handlers.ReorderNotebooksHandler)
		notebookRoutes.GET("/:id", handlers.GetNotebookHandler)
		notebookRoutes.GET("/:id/children", handlers.ListNotebookChildrenHandler)
		notebookRoutes.PUT("/:id", handlers.UpdateNotebookHandler)
		notebookRoutes.PATCH("/:id/archive", handlers.ArchiveNotebookHandler)
		notebookRoutes.DELETE("/:id", handlers.DeleteNotebookHandler)
	}

	noteRoutes := r.Group("/notes")
	{
		noteRoutes.GET("", handlers.ListNotesHandler)
		noteRoutes.GET("/favorites", handlers.ListFavoriteNotesHandler)
		noteRoutes.GET("/pinned", handlers.ListPinnedNotesHandler)
		noteRoutes.GET("/tag/:tagId", handlers.ListNotesByTagHandler)
		noteRoutes.POST("", handlers.CreateNoteHandler)
		noteRoutes.GET("/:id", handlers.GetNoteHandler)
		noteRoutes.PUT("/:id", handlers.UpdateNoteHandler)
		noteRoutes.PATCH("/:id/favorite", handlers.ToggleNoteFavoriteHandler)
		noteRoutes.PATCH("/:id/pin", handlers.ToggleNotePinHandler)
		noteRoutes.PATCH("/:id/archive", handlers.ArchiveNoteHandler)
		noteRoutes.DELETE("/:id", handlers.DeleteNoteHandler)
	}

	tagRoutes := r.Group("/tags")
	{
		tagRoutes.GET("", handlers.ListTagsHandler)
		tagRoutes.GET("/popular", handlers.ListPopularTagsHandler)
		tagRoutes.GET("/name/:name", handlers.GetTagByNameHandler)
		tagRoutes.POST("", handlers.CreateTagHandler)
		tagRoutes.GET("/:id", handlers.GetTagHandler)
		tagRoutes.PUT("/:id", handlers.UpdateTagHandler)
		tagRoutes.DELETE("/:id", handlers.DeleteTagHandler)
	}
}

func setupVaultRoutes(r *gin.RouterGroup) {
	categoryRoutes := r.Group("/vault/categories")
	{
		categoryRoutes.GET("", handlers.ListVaultCategoriesHandler)
		categoryRoutes.POST("", handlers.CreateVaultCategoryHandler)
		categoryRoutes.PATCH("/reorder", handlers.ReorderVaultCategoriesHandler)
		categoryRoutes.GET("/:id", handlers.GetVaultCategoryHandler)
		categoryRoutes.PUT("/:id", handlers.UpdateVaultCategoryHandler)
		categoryRoutes.PATCH("/:id/archive", handlers.ArchiveVaultCategoryHandler)
		categoryRoutes.DELETE("/:id", handlers.DeleteVaultCategoryHandler)
	}

	itemRoutes := r.Group("/vault/items")
	{
		itemRoutes.GET("", handlers.ListVaultItemsHandler)
		itemRoutes.GET("/favorites", handlers.ListFavoriteVaultItemsHandler)
		itemRoutes.GET("/expiring", handlers.ListExpiringVaultItemsHandler)
		itemRoutes.POST("", handlers.CreateVaultItemHandler)
		itemRoutes.GET("/:id", handlers.GetVaultItemHandler)
		itemRoutes.GET("/:id/access-log", handlers.GetVaultItemAccessLogHandler)
		itemRoutes.PUT("/:id", handlers.UpdateVaultItemHandler)
		itemRoutes.PATCH("/:id/favorite", handlers.ToggleVaultItemFavoriteHandler)
		itemRoutes.PATCH("/:id/archive", handlers.ArchiveVaultItemHandler)
		itemRoutes.DELETE("/:id", handlers.DeleteVaultItemHandler)
	}
}

func setupDocumentRoutes(r *gin.RouterGroup) {
	documentRoutes := r.Group("/documents")
	{
		documentRoutes.GET("/categories", handlers.ListDocumentCategoriesHandler)
		documentRoutes.GET("/categories/root", handlers.ListRootDocumentCategoriesHandler)
		documentRoutes.POST("/categories", handlers.CreateDocumentCategoryHandler)
		documentRoutes.PATCH("/categories/reorder", handlers.ReorderDocumentCategoriesHandler)
		documentRoutes.GET("/categories/:id", handlers.GetDocumentCategoryHandler)
		documentRoutes.GET("/categories/:id/children", handlers.ListDocumentCategoryChildrenHandler)
		documentRoutes.PUT("/categories/:id", handlers.UpdateDocumentCategoryHandler)
		documentRoutes.PATCH("/categories/:id/archive", handlers.ArchiveDocumentCategoryHandler)
		documentRoutes.DELETE("/categories/:id", handlers.DeleteDocumentCategoryHandler)

		documentRoutes.GET("", handlers.ListDocumentsHandler)
		documentRoutes.GET("/favorites", handlers.ListFavoriteDocumentsHandler)
		documentRoutes.GET("/important", handlers.ListImportantDocumentsHandler)
		documentRoutes.GET("/expiring", handlers.ListExpiringDocumentsHandler)
		documentRoutes.POST("", handlers.CreateDocumentHandler)
		documentRoutes.GET("/:id", handlers.GetDocumentHandler)
		documentRoutes.GET("/:id/download", handlers.DownloadDocumentHandler)
		documentRoutes.GET("/:id/access-log", handlers.GetDocumentAccessLogHandler)
		documentRoutes.PUT("/:id", handlers.UpdateDocumentHandler)
		documentRoutes.PATCH("/:id/favorite", handlers.ToggleDocumentFavoriteHandler)
		documentRoutes.PATCH("/:id/important", handlers.ToggleDocumentImportantHandler)
		documentRoutes.PATCH("/:id/archive", handlers.ArchiveDocumentHandler)
		documentRoutes.DELETE("/:id", handlers.DeleteDocumentHandler)
	}
}

func setupInventoryRoutes(r *gin.RouterGroup) {
	locationRoutes := r.Group("/locations")
	{
		locationRoutes.GET("", handlers.ListLocationsHandler)
		locationRoutes.GET("/root", handlers.ListRootLocationsHandler)
		locationRoutes.POST("", handlers.CreateLocationHandler)
		locationRoutes.PATCH("/reorder", handlers.ReorderLocationsHandler)
		locationRoutes.GET("/:id", handlers.GetLocationHandler)
		locationRoutes.GET("/:id/children", handlers.ListLocationChildrenHandler)
		locationRoutes.PUT("/:id", handlers.UpdateLocationHandler)
		locationRoutes.PATCH("/:id/archive", handlers.ArchiveLocationHandler)
		locationRoutes.DELETE("/:id", handlers.DeleteLocationHandler)
	}

	itemRoutes := r.Group("/items")
	{
		itemRoutes.GET("", handlers.ListItemsHandler)
		itemRoutes.GET("/favorites", handlers.ListFavoriteItemsHandler)
		itemRoutes.GET("/lost", handlers.ListLostItemsHandler)
		itemRoutes.GET("/broken", handlers.ListBrokenItemsHandler)
		itemRoutes.GET("/lent", handlers.ListLentItemsHandler)
		itemRoutes.GET("/maintenance", handlers.ListItemsNeedingMaintenanceHandler)
		itemRoutes.GET("/warranty-expiring", handlers.ListWarrantyExpiringItemsHandler)
		itemRoutes.GET("/barcode/:barcode", handlers.GetItemByBarcodeHandler)
		itemRoutes.GET("/custom-id/:customId", handlers.GetItemByCustomIDHandler)
		itemRoutes.POST("", handlers.CreateItemHandler)
		itemRoutes.GET("/:id", handlers.GetItemHandler)
		itemRoutes.PUT("/:id", handlers.UpdateItemHandler)
		itemRoutes.PATCH("/:id/move", handlers.MoveItemHandler)
		itemRoutes.GET("/:id/location-history", handlers.GetItemLocationHistoryHandler)
		itemRoutes.POST("/:id/maintenance", handlers.RecordItemMaintenanceHandler)
		itemRoutes.GET("/:id/maintenance", handlers.GetItemMaintenanceHistoryHandler)
		itemRoutes.PATCH("/:id/favorite", handlers.ToggleItemFavoriteHandler)
		itemRoutes.PATCH("/:id/lost", handlers.ToggleItemLostHandler)
		itemRoutes.PATCH("/:id/broken", handlers.ToggleItemBrokenHandler)
		itemRoutes.PATCH("/:id/archive", handlers.ArchiveItemHandler)
		itemRoutes.DELETE("/:id", handlers.DeleteItemHandler)
	}

	lendingRoutes := r.Group("/lendings")
	{
		lendingRoutes.GET("", handlers.ListLendingsHandler)
		lendingRoutes.GET("/active", handlers.ListActiveLendingsHandler)
		lendingRoutes.GET("/overdue", handlers.ListOverdueLendingsHandler)
		lendingRoutes.GET("/stats", handlers.GetLendingStatsHandler)
		lendingRoutes.POST("/check-overdue", handlers.CheckOverdueLendingsHandler)
		lendingRoutes.POST("", handlers.CreateLendingHandler)
		lendingRoutes.GET("/:id", handlers.GetLendingHandler)
		lendingRoutes.PUT("/:id", handlers.UpdateLendingHandler)
		lendingRoutes.PATCH("/:id/return", handlers.ReturnLendingHandler)
		lendingRoutes.PATCH("/:id/overdue", handlers.MarkLendingOverdueHandler)
		lendingRoutes.PATCH("/:id/lost", handlers.MarkLendingLostHandler)
		lendingRoutes.POST("/:id/reminder", handlers.SendLendingReminderHandler)
		lendingRoutes.DELETE("/:id", handlers.DeleteLendingHandler)
	}
}
