package apisvc

import (
	"context"
	"net/http"
	"net/url"
)

type CitacionService struct {
	c *Client
}

func (c *Client) Citaciones() *CitacionService {
	return &CitacionService{c: c}
}

// List returns the meetings of a type: INDIVIDUAL, GRUPAL or ASPIRANTE.
func (svc *CitacionService) List(ctx context.Context, tipo string) ([]Citacion, error) {
	var out []Citacion
	err := svc.c.get(ctx, "/citaciones", url.Values{"tipo": {tipo}}, &out)
	return out, err
}

func (svc *CitacionService) Page(ctx context.Context, page, size int, tipo, estado string) (Page[Citacion], error) {
	q := pageQuery(page, size)
	if tipo != "" {
		q.Set("tipo", tipo)
	}
	if estado != "" {
		q.Set("estado", estado)
	}
	var out Page[Citacion]
	err := svc.c.get(ctx, "/citaciones/page", q, &out)
	return out, err
}

func (svc *CitacionService) Create(ctx context.Context, req CitacionRequest) (Citacion, error) {
	var out Citacion
	err := svc.c.send(ctx, http.MethodPost, "/citaciones", nil, req, &out)
	return out, err
}

// ChangeEstado sets PENDIENTE, REALIZADA, CANCELADA or APLAZADA.
func (svc *CitacionService) ChangeEstado(ctx context.Context, id int64, estado string) (Citacion, error) {
	var out Citacion
	err := svc.c.send(ctx, http.MethodPatch, "/citaciones/"+itoa(id)+"/estado", url.Values{"estado": {estado}}, nil, &out)
	return out, err
}
