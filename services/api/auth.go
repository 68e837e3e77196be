package apisvc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trezcool/veritas/core/session"
)

// AuthService implements session.Authenticator against the backend.
type AuthService struct {
	c *Client
}

var _ session.Authenticator = (*AuthService)(nil)

func (c *Client) Auth() *AuthService {
	return &AuthService{c: c}
}

func (svc *AuthService) Login(ctx context.Context, req session.LoginRequest) (session.AuthResponse, error) {
	var resp session.AuthResponse
	err := svc.c.send(ctx, http.MethodPost, LoginPath, nil, req, &resp)
	return resp, err
}

func (svc *AuthService) ResetPassword(ctx context.Context, req session.ResetPasswordRequest) (session.AuthResponse, error) {
	q := url.Values{}
	q.Set("correo", req.Correo)
	q.Set("nuevaPassword", req.NuevaPassword)

	var resp session.AuthResponse
	err := svc.c.send(ctx, http.MethodPut, "/auth/reset-password", q, nil, &resp)
	return resp, err
}

type firstLoginBody struct {
	Correo           string `json:"correo"`
	PasswordTemporal string `json:"passwordTemporal"`
	NuevaPassword    string `json:"nuevaPassword"`
}

// firstLoginResponse accepts both the {token, usuario} and the flat token shapes.
type firstLoginResponse struct {
	session.AuthResponse
	Token   string `json:"token"`
	Usuario *struct {
		ID     int64  `json:"id"`
		Nombre string `json:"nombre"`
		Correo string `json:"correo"`
		Rol    string `json:"rol"`
	} `json:"usuario"`
}

func (svc *AuthService) FirstLogin(ctx context.Context, req session.FirstLoginRequest) (session.AuthResponse, error) {
	body := firstLoginBody{
		Correo:           req.Correo,
		PasswordTemporal: req.PasswordTemporal,
		NuevaPassword:    req.NuevaPassword,
	}
	var resp firstLoginResponse
	if err := svc.c.send(ctx, http.MethodPost, "/auth/first-login", nil, body, &resp); err != nil {
		return session.AuthResponse{}, err
	}

	out := resp.AuthResponse
	if out.AccessToken == "" {
		out.AccessToken = resp.Token
	}
	if usr := resp.Usuario; usr != nil {
		out.UsuarioID = usr.ID
		out.Nombre = usr.Nombre
		out.Correo = usr.Correo
		out.Rol = usr.Rol
	}
	return out, nil
}
