package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
	"taskboard/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	keys     service.APIKeyService
	projects service.ProjectService
	authn    *auth.Authenticator
	codec    *auth.TokenCodec
	db       *sql.DB
	logger   *logrus.Logger
}

func NewHandler(
	users service.UserService,
	keys service.APIKeyService,
	projects service.ProjectService,
	authn *auth.Authenticator,
	codec *auth.TokenCodec,
	db *sql.DB,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:    users,
		keys:     keys,
		projects: projects,
		authn:    authn,
		codec:    codec,
		db:       db,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(accessLogMiddleware(h.logger))

	api := router.Group("/api")
	{
		api.GET("/health", h.health)

		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		users := api.Group("/users", h.requireAuth())
		{
			users.GET("", h.listUsers)
			users.GET("/:id", h.getUser)
			users.PUT("/:id", h.updateUser)
			users.DELETE("/:id", h.deleteUser)
		}

		keys := api.Group("/apikeys", h.requireAuth())
		{
			keys.POST("", h.createAPIKey)
			keys.GET("", h.listAPIKeys)
			keys.DELETE("/:id", h.revokeAPIKey)
		}

		projects := api.Group("/projects", h.requireAuth())
		{
			projects.POST("", h.createProject)
			projects.GET("", h.listProjects)
			projects.GET("/:id", h.getProject)
			projects.PUT("/:id", h.updateProject)
			projects.DELETE("/:id", h.deleteProject)
		}

		protected := api.Group("/protected")
		{
			protected.GET("", h.requireAuth(), h.protected)
			protected.GET("/jwt-only", h.requireToken(), h.protected)
			protected.GET("/api-key-only", h.requireAPIKey(), h.protected)
		}
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type createAPIKeyRequest struct {
	Description string `json:"description"`
}

type projectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type APIKeyResponse struct {
	ID          int64   `json:"id"`
	KeyValue    string  `json:"key_value"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
	LastUsed    *string `json:"last_used,omitempty"`
	Revoked     bool    `json:"revoked"`
}

type ProjectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (h *Handler) health(c *gin.Context) {
	dbStatus := "connected"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": dbStatus,
	})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) ||
			errors.Is(err, service.ErrEmailTaken) ||
			errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Writer.Header().Set("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	token, err := h.codec.Issue(user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        userToResponse(user),
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}

	users, err := h.users.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	// "me" resolves to the authenticated caller; gin's router cannot
	// register /users/me next to /users/:id.
	if c.Param("id") == "me" {
		c.JSON(http.StatusOK, userToResponse(currentUser(c)))
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if currentUser(c).ID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to update this user"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, service.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidInput),
			errors.Is(err, service.ErrEmailTaken),
			errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.fail(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if currentUser(c).ID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this user"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createAPIKey(c *gin.Context) {
	// The body is optional; a bare POST creates a key with no description.
	var req createAPIKeyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	key, err := h.keys.Create(c.Request.Context(), currentUser(c).ID, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, apiKeyToResponse(*key))
}

func (h *Handler) listAPIKeys(c *gin.Context) {
	keys, err := h.keys.ListForUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]APIKeyResponse, len(keys))
	for i := range keys {
		resp[i] = apiKeyToResponse(keys[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) revokeAPIKey(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.keys.Revoke(c.Request.Context(), currentUser(c).ID, id); err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Create(c.Request.Context(), currentUser(c).ID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectToResponse(*project))
}

func (h *Handler) listProjects(c *gin.Context) {
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}

	projects, err := h.projects.List(c.Request.Context(), currentUser(c).ID, offset, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ProjectResponse, len(projects))
	for i := range projects {
		resp[i] = projectToResponse(projects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projectToResponse(*project))
}

func (h *Handler) updateProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Update(c.Request.Context(), currentUser(c).ID, id, service.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.fail(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, projectToResponse(*project))
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) protected(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"message":  "you have access to this protected endpoint",
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int, ok bool) {
	offset, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, 0, false
	}
	return offset, limit, true
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func apiKeyToResponse(key domain.APIKey) APIKeyResponse {
	resp := APIKeyResponse{
		ID:          key.ID,
		KeyValue:    key.KeyValue,
		Description: key.Description,
		CreatedAt:   key.CreatedAt.Format(time.RFC3339),
		Revoked:     key.Revoked,
	}
	if key.LastUsed != nil {
		v := key.LastUsed.Format(time.RFC3339)
		resp.LastUsed = &v
	}
	return resp
}

func projectToResponse(project domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   project.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   project.UpdatedAt.Format(time.RFC3339),
	}
}
