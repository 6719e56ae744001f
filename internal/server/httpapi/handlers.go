package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/dmitrijs2005/gophaccount/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies; every payload here is a few fields.
const maxBodyBytes = 64 << 10

// AccountService is the business layer the handlers call.
type AccountService interface {
	AccountFinder
	Create(ctx context.Context, in services.CreateAccountInput) (*models.AccountView, error)
	ChangePassword(ctx context.Context, accountID int64, in services.ChangePasswordInput) error
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Whoami(ctx context.Context, accountID int64) (*models.AccountView, error)
	List(ctx context.Context) ([]models.AccountView, error)
	Get(ctx context.Context, id int64) (*models.AccountView, error)
	Update(ctx context.Context, id int64, in services.UpdateAccountInput) (*models.AccountView, error)
	Delete(ctx context.Context, id int64) error
}

// Handler serves the account API.
type Handler struct {
	accounts    AccountService
	log         logging.Logger
	environment string
}

// NewHandler builds a Handler. environment is reported by the health probe.
func NewHandler(accounts AccountService, log logging.Logger, environment string) *Handler {
	return &Handler{accounts: accounts, log: log.With("module", "http_handler"), environment: environment}
}

type userResponse struct {
	User *models.AccountView `json:"user"`
}

type usersResponse struct {
	Users []models.AccountView `json:"users"`
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type updatedResponse struct {
	Message string              `json:"message"`
	User    *models.AccountView `json:"user"`
}

type loginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt string              `json:"expiresAt"`
	User      *models.AccountView `json:"user"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
}

// decodeBody reads a JSON object into dst. An empty body, "null" or "{}"
// is reported as common.ErrorMissingInput by the service's own field checks;
// only syntactically broken input fails here.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func routeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
	}
	return p, ok
}

// Health reports liveness and the deployment environment.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "UP", Environment: h.environment})
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	res, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		User:      res.Account,
	})
}

// ChangePassword replaces the caller's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var in services.ChangePasswordInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), p.AccountID, in); err != nil {
		if errors.Is(err, common.ErrorStaleToken) {
			writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	writeMessage(w, http.StatusCreated, "password changed")
}

// Whoami returns the caller's own account.
func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	view, err := h.accounts.Whoami(r.Context(), p.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorStaleToken) {
			writeMessage(w, http.StatusNotFound, common.ErrorStaleToken.Error())
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: view})
}

// ListUsers returns every account.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	views, err := h.accounts.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: views})
}

// GetUser returns one account by route id.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	view, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: view})
}

// CreateUser creates an account on behalf of an admin.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in services.CreateAccountInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	view, err := h.accounts.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{Message: "user created", ID: view.ID})
}

// UpdateUser changes email and/or role of an account.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	var in services.UpdateAccountInput
	if err := decodeBody(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	view, err := h.accounts.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, updatedResponse{Message: "user updated", User: view})
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
