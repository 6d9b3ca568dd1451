// Package clinictest is an in-memory stand-in for the clinic REST backend,
// close enough in shape (endpoints, token pairs, error bodies, pagination)
// for the api and server packages to be tested against a real HTTP server.
package clinictest

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/usuarios"
)

// Seeded accounts. Every account's password is Password.
const (
	Password = "password123"

	RutAdmin       = "11111111-1"
	RutProfesional = "22222222-2"
	RutPaciente    = "12345678-9"
)

// cuenta pairs an identity with its credential hash.
type cuenta struct {
	usuario      usuarios.Usuario
	passwordHash []byte
}

// Backend is the fake clinic API. Serve it with httptest.NewServer
// (b.Router()) and point an api.Client at <server.URL>.
type Backend struct {
	mu sync.Mutex

	secret    []byte
	now       func() time.Time
	blacklist map[string]bool // revoked refresh jtis

	cuentas          []*cuenta
	citas            []*api.Cita
	profesionales    []api.Profesional
	disponibilidades []api.Disponibilidad

	nextUsuarioID int
	nextCitaID    int
	nextDispoID   int

	// RefreshCalls counts POST /auth/refresh/ hits, so tests can assert
	// the at-most-one-refresh contract.
	RefreshCalls int
}

// New seeds a backend with one admin, one professional (with a weekly
// availability rule) and one patient.
func New() *Backend {
	b := &Backend{
		secret:        []byte("clinictest-signing-key"),
		now:           time.Now,
		blacklist:     make(map[string]bool),
		nextUsuarioID: 4,
		nextCitaID:    1,
		nextDispoID:   2,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic("clinictest: bcrypt seed: " + err.Error())
	}

	seed := []usuarios.Usuario{
		{
			ID: 1, Rut: RutAdmin, Email: "admin@sgc.cl",
			Nombre: "Ana", Apellido: "Soto", Rol: usuarios.RoleAdmin,
			IsActive: true, PuedeAgendar: true,
		},
		{
			ID: 2, Rut: RutProfesional, Email: "dra.rojas@sgc.cl",
			Nombre: "Carla", Apellido: "Rojas", Rol: usuarios.RoleProfesional,
			IsActive: true, PuedeAgendar: true,
		},
		{
			ID: 3, Rut: RutPaciente, Email: "pedro@example.com",
			Nombre: "Pedro", Apellido: "Muñoz", Rol: usuarios.RolePaciente,
			IsActive: true, PuedeAgendar: true,
		},
	}
	for _, u := range seed {
		b.cuentas = append(b.cuentas, &cuenta{usuario: u, passwordHash: hash})
	}

	b.profesionales = []api.Profesional{{
		ID: 1, Usuario: 2, UsuarioNombre: "Carla Rojas", UsuarioEmail: "dra.rojas@sgc.cl",
		Especialidad: "Medicina General", TituloProfesional: "Médico Cirujano",
		DuracionCitaMinutos: 30, ActivoParaCitas: true,
	}}

	b.disponibilidades = []api.Disponibilidad{{
		ID: 1, Profesional: 1, DiaSemana: 0,
		HoraInicio: "09:00", HoraFin: "12:00", Activo: true,
	}}

	return b
}

// Router wires every endpoint the portal consumes.
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/login/", b.handleLogin)
	r.Post("/auth/register/", b.handleRegister)
	r.Post("/auth/refresh/", b.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAccessToken)

		r.Post("/auth/logout/", b.handleLogout)

		r.Get("/usuarios/me/", b.handleMe)
		r.Put("/usuarios/update_profile/", b.handleUpdateProfile)
		r.Post("/usuarios/change_password/", b.handleChangePassword)
		r.Get("/usuarios/", b.handleListUsuarios)
		r.Post("/usuarios/{id}/bloquear/", b.handleBloquear)
		r.Post("/usuarios/{id}/desbloquear/", b.handleDesbloquear)

		r.Get("/citas/", b.handleListCitas)
		r.Post("/citas/", b.handleCrearCita)
		r.Get("/citas/estadisticas/", b.handleEstadisticas)
		r.Get("/citas/mis_proximas_citas/", b.handleProximasCitas)
		r.Get("/citas/{id}/", b.handleCita)
		r.Post("/citas/{id}/cancelar/", b.handleCancelar)
		r.Post("/citas/{id}/confirmar/", b.handleConfirmar)
		r.Post("/citas/{id}/completar/", b.handleCompletar)
		r.Post("/citas/{id}/marcar_no_asistio/", b.handleNoAsistio)

		r.Get("/profesionales/", b.handleListProfesionales)
		r.Get("/profesionales/{id}/", b.handleProfesional)
		r.Get("/profesionales/{id}/disponibilidad/", b.handleDisponibilidadDeProfesional)
		r.Post("/profesionales/{id}/horarios_disponibles/", b.handleHorariosDisponibles)

		r.Get("/disponibilidades/", b.handleListDisponibilidades)
		r.Post("/disponibilidades/", b.handleCrearDisponibilidad)
		r.Put("/disponibilidades/{id}/", b.handleActualizarDisponibilidad)
		r.Delete("/disponibilidades/{id}/", b.handleEliminarDisponibilidad)
	})

	return r
}

// Usuario returns a copy of the seeded account with the given RUT.
func (b *Backend) Usuario(rut string) (usuarios.Usuario, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c := b.cuentaPorRut(rut); c != nil {
		return c.usuario, true
	}
	return usuarios.Usuario{}, false
}

func (b *Backend) cuentaPorRut(rut string) *cuenta {
	for _, c := range b.cuentas {
		if c.usuario.Rut == rut {
			return c
		}
	}
	return nil
}

func (b *Backend) cuentaPorID(id int) *cuenta {
	for _, c := range b.cuentas {
		if c.usuario.ID == id {
			return c
		}
	}
	return nil
}

func (b *Backend) profesionalPorID(id int) *api.Profesional {
	for i := range b.profesionales {
		if b.profesionales[i].ID == id {
			return &b.profesionales[i]
		}
	}
	return nil
}

func (b *Backend) profesionalDeUsuario(usuarioID int) *api.Profesional {
	for i := range b.profesionales {
		if b.profesionales[i].Usuario == usuarioID {
			return &b.profesionales[i]
		}
	}
	return nil
}

func (b *Backend) citaPorID(id int) *api.Cita {
	for _, c := range b.citas {
		if c.ID == id {
			return c
		}
	}
	return nil
}
