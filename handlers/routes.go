package handlers

import (
	"github.com/lepens-foundation/lepens/middleware/jwt"
	"github.com/lepens-foundation/lepens/server"
	authsvc "github.com/lepens-foundation/lepens/services/auth"
	jwtsvc "github.com/lepens-foundation/lepens/services/jwt"
)

// RegisterRoutes wires the HTTP surface. Message submission is public so the
// contact form works without a session; the admin message routes and
// check-auth require a bearer token.
func RegisterRoutes(srv *server.Server, authHandler *AuthHandler, messagesHandler *MessagesHandler, jwtService *jwtsvc.Service, authService *authsvc.Service) {
	e := srv.Echo()
	requireAuth := jwt.RequireJWT(jwtService, authService)

	authGroup := e.Group("/api/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/verify", authHandler.Verify)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/check-auth", authHandler.CheckAuth, requireAuth)

	adminGroup := e.Group("/api/admin")
	adminGroup.POST("/send-message", messagesHandler.Submit)
	adminGroup.GET("/emails", messagesHandler.List, requireAuth)
	adminGroup.GET("/emails/:id", messagesHandler.Get, requireAuth)
	adminGroup.DELETE("/emails/:id", messagesHandler.Delete, requireAuth)
}
