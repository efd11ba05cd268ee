package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
	"trainalert.app/config"
	trainerr "trainalert.app/errors"
	"trainalert.app/models"
	"trainalert.app/service"
)

// Server represents the HTTP server and API handler. This is the command
// surface the chat front-end calls into; it carries the same operations the
// bot menus expose.
type Server struct {
	router              *gin.Engine
	db                  *gorm.DB
	config              *config.Config
	ticketService       service.TicketServiceInterface
	subscriptionService service.SubscriptionServiceInterface
}

// NewServer creates and configures a new HTTP server
func NewServer(
	db *gorm.DB,
	config *config.Config,
	ticketService service.TicketServiceInterface,
	subscriptionService service.SubscriptionServiceInterface,
) *Server {
	router := gin.Default()

	server := &Server{
		router:              router,
		db:                  db,
		config:              config,
		ticketService:       ticketService,
		subscriptionService: subscriptionService,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/routes/search", s.searchRoutes)
		api.POST("/subscriptions", s.subscribe)
		api.GET("/subscriptions/:userID", s.listSubscriptions)
		api.DELETE("/subscriptions/:userID/:routeID", s.unsubscribe)
		api.POST("/users/:userID/ban", s.banUser)
		api.GET("/debug", s.debugEndpoint)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) searchRoutes(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, trainerr.NewValidationError("from, to and date parameters are required"))
		return
	}

	slog.Debug("Searching routes", "from", req.From, "to", req.To, "date", req.Date)

	response, err := s.ticketService.SearchRoutes(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Route search error", "error", err, "from", req.From, "to", req.To)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, trainerr.NewValidationError("invalid request format"))
		return
	}

	slog.Debug("Subscription request received", "userID", req.UserID, "train", req.TrainNo)

	if err := s.subscriptionService.Subscribe(&req); err != nil {
		slog.Error("Subscription error", "error", err, "userID", req.UserID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription created. You will be notified on price changes."})
}

func (s *Server) listSubscriptions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		s.handleError(c, trainerr.NewValidationError("userID must be an integer"))
		return
	}

	subscriptions, err := s.subscriptionService.ListSubscriptions(userID)
	if err != nil {
		slog.Error("List subscriptions error", "error", err, "userID", userID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subscriptions})
}

func (s *Server) unsubscribe(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		s.handleError(c, trainerr.NewValidationError("userID must be an integer"))
		return
	}

	routeID, err := strconv.ParseUint(c.Param("routeID"), 10, 32)
	if err != nil {
		s.handleError(c, trainerr.NewValidationError("routeID must be an integer"))
		return
	}

	if err := s.subscriptionService.Unsubscribe(userID, uint(routeID)); err != nil {
		slog.Error("Unsubscribe error", "error", err, "userID", userID, "routeID", routeID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed successfully"})
}

func (s *Server) banUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		s.handleError(c, trainerr.NewValidationError("userID must be an integer"))
		return
	}

	if err := s.subscriptionService.BanUser(userID); err != nil {
		slog.Error("Ban error", "error", err, "userID", userID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User banned and subscriptions purged"})
}

func (s *Server) debugEndpoint(c *gin.Context) {
	slog.Debug("Debug endpoint called")

	var routeCount, subscriptionCount int64
	routeErr := s.db.Model(&models.Route{}).Count(&routeCount).Error
	subErr := s.db.Model(&models.Subscription{}).Count(&subscriptionCount).Error

	response := gin.H{
		"database": map[string]interface{}{
			"connected":         routeErr == nil && subErr == nil,
			"routeCount":        routeCount,
			"subscriptionCount": subscriptionCount,
		},
		"config": map[string]interface{}{
			"rzdBaseURL":            s.config.RZD.BaseURL,
			"updateIntervalMinutes": s.config.Scheduler.UpdateIntervalMinutes,
			"cacheType":             s.config.Cache.Type,
		},
	}

	c.JSON(http.StatusOK, response)
}

// handleError handles different types of application errors
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *trainerr.AppError
	var statusCode int
	var message string

	if errors.As(err, &appErr) {
		switch appErr.Type {
		case trainerr.ValidationError:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case trainerr.NotFoundError:
			statusCode = http.StatusNotFound
			message = appErr.Message
		case trainerr.AlreadyExistsError:
			statusCode = http.StatusConflict
			message = appErr.Message
		case trainerr.ExternalAPIError, trainerr.ParseError:
			statusCode = http.StatusServiceUnavailable
			message = "Tickets not found, try again later"
		case trainerr.DatabaseError:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		case trainerr.NotificationError:
			statusCode = http.StatusServiceUnavailable
			message = "Unable to deliver notification"
		default:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	} else {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, models.ErrorResponse{Error: message})
}
