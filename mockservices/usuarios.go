package mockservices

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/framework"
)

// registeredUser holds the fields the usuarios service insists on. Everything else in a
// registration is stored as sent.
type registeredUser struct {
	Email          string `json:"email" validate:"required,email"`
	HashPassword   string `json:"hashPassword" validate:"required"`
	Username       string `json:"username" validate:"required"`
	NumberDocument string `json:"numberDocument" validate:"required"`
}

type credentials struct {
	Email        string `json:"email" validate:"required"`
	HashPassword string `json:"hashPassword" validate:"required"`
}

type userRecord struct {
	id    string
	data  ldvalue.Value
	login registeredUser
}

// UsersService is an in-memory usuarios service. Emails and document numbers are unique.
type UsersService struct {
	users       map[string]*userRecord
	byEmail     map[string]*userRecord
	byDocument  map[string]*userRecord
	validate    *validator.Validate
	handler     http.Handler
	debugLogger framework.Logger
	lock        sync.RWMutex
}

// NewUsersService creates the service with no users.
func NewUsersService(debugLogger framework.Logger) *UsersService {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	u := &UsersService{
		users:       make(map[string]*userRecord),
		byEmail:     make(map[string]*userRecord),
		byDocument:  make(map[string]*userRecord),
		validate:    validator.New(),
		debugLogger: debugLogger,
	}

	router := newRouter(
		func(w http.ResponseWriter, r *http.Request) { writeError(w, http.StatusNotFound, "Ruta no encontrada") },
		func(w http.ResponseWriter, r *http.Request) { writeError(w, http.StatusMethodNotAllowed, "Método no permitido") },
	)
	router.HandleFunc("/users/register", u.serveRegister).Methods("POST")
	router.HandleFunc("/users/getById/{id}", u.serveGetByID).Methods("GET")
	router.HandleFunc("/users/getByEmail/{email}", u.serveGetByEmail).Methods("GET")
	router.HandleFunc("/users/autenticate/", u.serveAuthenticate).Methods("POST")
	u.handler = router

	return u
}

func (u *UsersService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.handler.ServeHTTP(w, r)
}

// UserCount returns the number of registered users.
func (u *UsersService) UserCount() int {
	u.lock.RLock()
	defer u.lock.RUnlock()
	return len(u.users)
}

// decodeInto reads a JSON object into target, which must then pass struct validation. It returns
// the object as read.
func (u *UsersService) decodeInto(w http.ResponseWriter, r *http.Request, target interface{}) (ldvalue.Value, bool) {
	body, err := readObject(r)
	if err == nil {
		err = json.Unmarshal([]byte(body.JSONString()), target)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Datos inválidos: "+err.Error())
		return ldvalue.Null(), false
	}
	if err := u.validate.Struct(target); err != nil {
		writeError(w, http.StatusBadRequest, "Datos inválidos: "+describeValidationError(err))
		return ldvalue.Null(), false
	}
	return body, true
}

func describeValidationError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Field()+" ("+fe.Tag()+")")
	}
	return strings.Join(parts, ", ")
}

func (u *UsersService) serveRegister(w http.ResponseWriter, r *http.Request) {
	var login registeredUser
	body, ok := u.decodeInto(w, r, &login)
	if !ok {
		return
	}

	u.lock.Lock()
	defer u.lock.Unlock()
	_, emailTaken := u.byEmail[strings.ToLower(login.Email)]
	_, documentTaken := u.byDocument[login.NumberDocument]
	if emailTaken || documentTaken {
		writeError(w, http.StatusConflict, "El usuario ya existe")
		return
	}
	// 24 hex digits, like a MongoDB ObjectId
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	record := &userRecord{id: id, data: body, login: login}
	u.users[id] = record
	u.byEmail[strings.ToLower(login.Email)] = record
	u.byDocument[login.NumberDocument] = record
	u.debugLogger.Printf("Registered user %s (%s)", id, login.Email)

	writeJSON(w, http.StatusCreated, ldvalue.ObjectBuild().
		Set("_id", ldvalue.String(id)).
		Set("message", ldvalue.String("Usuario registrado")).
		Build())
}

// publicView is a user without the password.
func (rec *userRecord) publicView() ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for k, v := range rec.data.AsValueMap().AsMap() {
		if k != "hashPassword" {
			b.Set(k, v)
		}
	}
	b.Set("_id", ldvalue.String(rec.id))
	return b.Build()
}

func (u *UsersService) serveGetByID(w http.ResponseWriter, r *http.Request) {
	u.lock.RLock()
	rec, ok := u.users[mux.Vars(r)["id"]]
	u.lock.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, rec.publicView())
}

func (u *UsersService) serveGetByEmail(w http.ResponseWriter, r *http.Request) {
	u.lock.RLock()
	rec, ok := u.byEmail[strings.ToLower(mux.Vars(r)["email"])]
	u.lock.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, rec.publicView())
}

func (u *UsersService) serveAuthenticate(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if _, ok := u.decodeInto(w, r, &creds); !ok {
		return
	}
	u.lock.RLock()
	rec, ok := u.byEmail[strings.ToLower(creds.Email)]
	u.lock.RUnlock()
	if !ok || rec.login.HashPassword != creds.HashPassword {
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}
	writeJSON(w, http.StatusOK, rec.publicView())
}
