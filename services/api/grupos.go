package apisvc

import (
	"context"
	"net/http"
	"net/url"
)

type GrupoService struct {
	c *Client
}

func (c *Client) Grupos() *GrupoService {
	return &GrupoService{c: c}
}

// List returns every group, or only the groups of a teacher when profesorID > 0.
func (svc *GrupoService) List(ctx context.Context, profesorID int64) ([]Grupo, error) {
	var q url.Values
	if profesorID > 0 {
		q = url.Values{"profesorId": {itoa(profesorID)}}
	}
	var out []Grupo
	err := svc.c.get(ctx, "/grupos", q, &out)
	return out, err
}

func (svc *GrupoService) Get(ctx context.Context, id int64) (Grupo, error) {
	var out Grupo
	err := svc.c.get(ctx, "/grupos/"+itoa(id), nil, &out)
	return out, err
}

func (svc *GrupoService) Create(ctx context.Context, req GrupoRequest) (Grupo, error) {
	var out Grupo
	err := svc.c.send(ctx, http.MethodPost, "/grupos", nil, req, &out)
	return out, err
}

// Confirm moves a group from BORRADOR to ACTIVO.
func (svc *GrupoService) Confirm(ctx context.Context, id int64) (Grupo, error) {
	var out Grupo
	err := svc.c.send(ctx, http.MethodPatch, "/grupos/"+itoa(id)+"/confirmar", nil, nil, &out)
	return out, err
}

func (svc *GrupoService) AddEstudiante(ctx context.Context, id, estudianteID int64) (Grupo, error) {
	var out Grupo
	body := map[string]int64{"estudianteId": estudianteID}
	err := svc.c.send(ctx, http.MethodPost, "/grupos/"+itoa(id)+"/estudiantes", nil, body, &out)
	return out, err
}

func (svc *GrupoService) Delete(ctx context.Context, id int64) error {
	return svc.c.send(ctx, http.MethodDelete, "/grupos/"+itoa(id), nil, nil, nil)
}

func (svc *GrupoService) ListadoPDF(ctx context.Context, id int64) (Document, error) {
	return svc.c.Download(ctx, "/grupos/"+itoa(id)+"/listado.pdf", nil)
}
