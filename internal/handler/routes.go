package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/ledgerline/ledgerline-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, transactionHandler *TransactionHandler, budgetHandler *BudgetHandler, forecastHandler *ForecastHandler, goalHandler *GoalHandler, wsHandler *WebSocketHandler) {
	// WebSocket endpoint authenticates via query token, not the middleware chain
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	budgets := api.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/projections", budgetHandler.GetProjections)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.POST("/:id/renew", budgetHandler.RenewBudget)
	budgets.GET("/:id/history", budgetHandler.GetBudgetHistory)
	budgets.GET("/:id/projections", budgetHandler.GetBudgetProjection)

	// Forecast route
	api.GET("/forecast", forecastHandler.GetForecast)

	// Savings goal route
	goals := api.Group("/goals")
	goals.POST("/plan", goalHandler.PlanGoal)
}
