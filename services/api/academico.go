package apisvc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Calificaciones

type CalificacionService struct {
	c *Client
}

func (c *Client) Calificaciones() *CalificacionService {
	return &CalificacionService{c: c}
}

func gradesQuery(estudianteID int64, periodo int) url.Values {
	q := url.Values{}
	if estudianteID > 0 {
		q.Set("estudianteId", itoa(estudianteID))
	}
	if periodo > 0 {
		q.Set("periodo", strconv.Itoa(periodo))
	}
	return q
}

func (svc *CalificacionService) List(ctx context.Context, estudianteID int64, periodo int) ([]Calificacion, error) {
	var out []Calificacion
	err := svc.c.get(ctx, "/calificaciones", gradesQuery(estudianteID, periodo), &out)
	return out, err
}

func (svc *CalificacionService) Create(ctx context.Context, req CalificacionRequest) (Calificacion, error) {
	var out Calificacion
	err := svc.c.send(ctx, http.MethodPost, "/calificaciones", nil, req, &out)
	return out, err
}

func (svc *CalificacionService) Update(ctx context.Context, id int64, req CalificacionRequest) (Calificacion, error) {
	var out Calificacion
	err := svc.c.send(ctx, http.MethodPut, "/calificaciones/"+itoa(id), nil, req, &out)
	return out, err
}

func (svc *CalificacionService) Delete(ctx context.Context, id int64) error {
	return svc.c.send(ctx, http.MethodDelete, "/calificaciones/"+itoa(id), nil, nil, nil)
}

// BoletinPDF downloads the report card of a student for a period.
func (svc *CalificacionService) BoletinPDF(ctx context.Context, estudianteID int64, periodo int) (Document, error) {
	return svc.c.Download(ctx, "/calificaciones/reporte/boletin.pdf", gradesQuery(estudianteID, periodo))
}

// Logros

type LogroService struct {
	c *Client
}

func (c *Client) Logros() *LogroService {
	return &LogroService{c: c}
}

func (svc *LogroService) List(ctx context.Context) ([]Logro, error) {
	var out []Logro
	err := svc.c.get(ctx, "/logros", nil, &out)
	return out, err
}

func (svc *LogroService) ByCategoria(ctx context.Context, categoria string) ([]Logro, error) {
	var out []Logro
	err := svc.c.get(ctx, "/logros/categoria/"+url.PathEscape(categoria), nil, &out)
	return out, err
}

// Observaciones

type ObservacionService struct {
	c *Client
}

func (c *Client) Observaciones() *ObservacionService {
	return &ObservacionService{c: c}
}

func (svc *ObservacionService) List(ctx context.Context, estudianteID int64) ([]Observacion, error) {
	var out []Observacion
	err := svc.c.get(ctx, "/observaciones", url.Values{"estudianteId": {itoa(estudianteID)}}, &out)
	return out, err
}

func (svc *ObservacionService) Create(ctx context.Context, req ObservacionRequest) (Observacion, error) {
	var out Observacion
	err := svc.c.send(ctx, http.MethodPost, "/observaciones", nil, req, &out)
	return out, err
}

// Estudiantes

type EstudianteService struct {
	c *Client
}

func (c *Client) Estudiantes() *EstudianteService {
	return &EstudianteService{c: c}
}

// List returns every student, or the children of a guardian when acudienteID > 0.
func (svc *EstudianteService) List(ctx context.Context, acudienteID int64) ([]Estudiante, error) {
	var q url.Values
	if acudienteID > 0 {
		q = url.Values{"acudienteId": {itoa(acudienteID)}}
	}
	var out []Estudiante
	err := svc.c.get(ctx, "/estudiantes", q, &out)
	return out, err
}

func (svc *EstudianteService) Get(ctx context.Context, id int64) (Estudiante, error) {
	var out Estudiante
	err := svc.c.get(ctx, "/estudiantes/"+itoa(id), nil, &out)
	return out, err
}

func (svc *EstudianteService) RemoveFromGrupo(ctx context.Context, id int64) error {
	return svc.c.send(ctx, http.MethodDelete, "/estudiantes/"+itoa(id)+"/grupo", nil, nil, nil)
}
