package apisvc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type UsuarioService struct {
	c *Client
}

func (c *Client) Usuarios() *UsuarioService {
	return &UsuarioService{c: c}
}

func (svc *UsuarioService) Page(ctx context.Context, page, size int) (Page[Usuario], error) {
	var out Page[Usuario]
	err := svc.c.get(ctx, "/usuarios/page", pageQuery(page, size), &out)
	return out, err
}

func (svc *UsuarioService) Create(ctx context.Context, req UsuarioRequest) (UsuarioCreado, error) {
	var out UsuarioCreado
	err := svc.c.send(ctx, http.MethodPost, "/usuarios", nil, req, &out)
	return out, err
}

func (svc *UsuarioService) Update(ctx context.Context, id int64, req UsuarioUpdateRequest) (Usuario, error) {
	var out Usuario
	err := svc.c.send(ctx, http.MethodPut, "/usuarios/"+itoa(id), nil, req, &out)
	return out, err
}

// SetEstado activates or deactivates an account.
func (svc *UsuarioService) SetEstado(ctx context.Context, id int64, activo bool) (Usuario, error) {
	var out Usuario
	q := url.Values{"estado": {strconv.FormatBool(activo)}}
	err := svc.c.send(ctx, http.MethodPatch, "/usuarios/"+itoa(id)+"/estado", q, nil, &out)
	return out, err
}

func (svc *UsuarioService) Delete(ctx context.Context, id int64) error {
	return svc.c.send(ctx, http.MethodDelete, "/usuarios/"+itoa(id), nil, nil, nil)
}
