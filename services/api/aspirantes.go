package apisvc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type AspiranteService struct {
	c *Client
}

func (c *Client) Aspirantes() *AspiranteService {
	return &AspiranteService{c: c}
}

func (svc *AspiranteService) List(ctx context.Context) ([]Aspirante, error) {
	var out []Aspirante
	err := svc.c.get(ctx, "/aspirantes", nil, &out)
	return out, err
}

// Page lists applicants, optionally filtered by status.
func (svc *AspiranteService) Page(ctx context.Context, page, size int, estado string) (Page[Aspirante], error) {
	q := pageQuery(page, size)
	if estado != "" {
		q.Set("estado", estado)
	}
	var out Page[Aspirante]
	err := svc.c.get(ctx, "/aspirantes/page", q, &out)
	return out, err
}

func (svc *AspiranteService) ChangeEstado(ctx context.Context, id int64, estado string) (Aspirante, error) {
	var out Aspirante
	err := svc.c.send(ctx, http.MethodPatch, "/aspirantes/"+itoa(id)+"/estado", url.Values{"estado": {estado}}, nil, &out)
	return out, err
}

// ScheduleInterview sets the interview date (YYYY-MM-DD).
func (svc *AspiranteService) ScheduleInterview(ctx context.Context, id int64, fecha string) (Aspirante, error) {
	var out Aspirante
	err := svc.c.send(ctx, http.MethodPut, "/aspirantes/"+itoa(id)+"/entrevista", url.Values{"fecha": {fecha}}, nil, &out)
	return out, err
}

func (svc *AspiranteService) Me(ctx context.Context) (AspiranteMe, error) {
	var out AspiranteMe
	err := svc.c.get(ctx, "/aspirantes/me", nil, &out)
	return out, err
}

func (svc *AspiranteService) Estado(ctx context.Context, id int64) (EstadoPreinscripcion, error) {
	var out EstadoPreinscripcion
	err := svc.c.get(ctx, "/aspirantes/"+itoa(id)+"/estado", nil, &out)
	return out, err
}

func (svc *AspiranteService) SubmitFormulario(ctx context.Context, id int64, form FormularioPreinscripcion) (EstadoPreinscripcion, error) {
	var out EstadoPreinscripcion
	err := svc.c.send(ctx, http.MethodPost, "/aspirantes/"+itoa(id)+"/formulario", nil, form, &out)
	return out, err
}

// Public endpoints: no session is needed, whatever token is around is still attached.

func (svc *AspiranteService) EstadoPublico(ctx context.Context, id int64) (EstadoPublico, error) {
	var out EstadoPublico
	err := svc.c.get(ctx, "/aspirantes/"+itoa(id)+"/estado-publico", nil, &out)
	return out, err
}

func (svc *AspiranteService) PreinscripcionPublica(ctx context.Context, req PreinscripcionPublicaRequest) (Preinscripcion, error) {
	var out Preinscripcion
	err := svc.c.send(ctx, http.MethodPost, "/aspirantes/preinscripcion-publica", nil, req, &out)
	return out, err
}

func (svc *AspiranteService) SolicitarClave(ctx context.Context, correo string) (ClaveTemporal, error) {
	var out ClaveTemporal
	err := svc.c.send(ctx, http.MethodPost, "/aspirantes/solicitar-clave", nil, map[string]string{"correo": correo}, &out)
	return out, err
}

func pageQuery(page, size int) url.Values {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	return url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
