package controllers

import (
	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/ctx"
)

// AuthController serves client sign-up, sign-in and the back-office login.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(s *services.Services) *AuthController {
	return &AuthController{auth: s.Auth}
}

// authResult is returned on register and login. Token carries the session
// id for clients that cannot keep the cookie.
type authResult struct {
	Client models.Client `json:"client"`
	Token  string        `json:"token"`
}

// renew moves the session to a new id once it has logged in.
func (ac *AuthController) renew(c *ctx.Context) error {
	previous := c.Session().Renew(c.W)
	return ac.auth.RotateSession(c.Context(), previous, c.SessionID())
}

func (ac *AuthController) result(c *ctx.Context, client models.Client) (authResult, error) {
	if err := ac.renew(c); err != nil {
		return authResult{}, err
	}
	token, err := c.Session().Token()
	if err != nil {
		return authResult{}, err
	}
	return authResult{Client: client, Token: token}, nil
}

// adminResult is the admin login record plus the renewed session token.
type adminResult struct {
	models.AdminSession
	Token string `json:"token"`
}

// Register handles POST /api/auth/register.
func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	client, err := ac.auth.Register(c.Context(), c.SessionID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := ac.result(c, client)
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Created("Inscription réussie", res)
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	client, err := ac.auth.Login(c.Context(), c.SessionID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := ac.result(c, client)
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Message("Connexion réussie", res)
}

// Logout handles POST /api/auth/logout.
func (ac *AuthController) Logout(c *ctx.Context) {
	if err := ac.auth.Logout(c.Context(), c.SessionID()); err != nil {
		c.ServerError(err)
		return
	}
	c.Message("Déconnexion réussie", nil)
}

// Me handles GET /api/auth/me. Guests get a null client.
func (ac *AuthController) Me(c *ctx.Context) {
	client, found, err := ac.auth.CurrentClient(c.Context(), c.SessionID())
	if err != nil {
		c.ServerError(err)
		return
	}
	isAdmin, err := ac.auth.AdminSessionValid(c.Context(), c.SessionID())
	if err != nil {
		c.ServerError(err)
		return
	}
	var out *models.Client
	if found {
		out = &client
	}
	c.Success(map[string]any{"client": out, "isAdmin": isAdmin})
}

// AdminLogin handles POST /api/admin/login.
func (ac *AuthController) AdminLogin(c *ctx.Context) {
	var in services.AdminLoginInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.auth.AdminLogin(c.Context(), c.SessionID(), in.Code)
	if err != nil {
		fail(c, err)
		return
	}
	if err := ac.renew(c); err != nil {
		c.ServerError(err)
		return
	}
	token, err := c.Session().Token()
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Message("Accès administrateur accordé", adminResult{AdminSession: sess, Token: token})
}

// AdminLogout handles POST /api/admin/logout.
func (ac *AuthController) AdminLogout(c *ctx.Context) {
	if err := ac.auth.AdminLogout(c.Context(), c.SessionID()); err != nil {
		c.ServerError(err)
		return
	}
	c.Message("Session administrateur fermée", nil)
}

// AdminSession handles GET /api/admin/session.
func (ac *AuthController) AdminSession(c *ctx.Context) {
	sess, ok, err := ac.auth.AdminSession(c.Context(), c.SessionID())
	if err != nil {
		c.ServerError(err)
		return
	}
	if !ok {
		c.Forbidden("Session administrateur expirée ou absente")
		return
	}
	c.Success(sess)
}
