package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/ContentForge/internal/domain/contentmodel"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/service"
)

const readinessTimeout = 3 * time.Second

// Pinger is a dependency whose reachability is reported by /health/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Broker reports the connection state of the message broker.
type Broker interface {
	IsConnected() bool
}

// Handlers holds the HTTP handlers and their service dependencies.
type Handlers struct {
	Environments  *service.EnvironmentService
	Aliases       *service.AliasService
	ContentModels *service.ContentModelService
	Installer     *service.Installer
	DB            Pinger
	Broker        Broker // nil when running without NATS
}

func tenantRef(r *http.Request) tenant.Ref {
	return middleware.TenantFromContext(r.Context())
}

func envOwner(e *environment.Environment) tenant.Ref { return e.CreatedBy }

func aliasOwner(a *environment.Alias) tenant.Ref { return a.CreatedBy }

func modelOwner(m *contentmodel.Model) tenant.Ref { return m.CreatedBy }

func (h *Handlers) environments() resource[environment.Environment] {
	return resource[environment.Environment]{
		permission: permission.ManageSetting,
		get:        h.Environments.Get,
		owner:      envOwner,
	}
}

func (h *Handlers) aliases() resource[environment.Alias] {
	return resource[environment.Alias]{
		permission: permission.ManageSetting,
		get:        h.Aliases.Get,
		owner:      aliasOwner,
	}
}

// --- Environments ---

// environmentWithAliases is a list item when include=aliases is requested.
type environmentWithAliases struct {
	environment.Environment
	Aliases []environment.Alias `json:"aliases"`
}

// ListEnvironments handles GET /api/v1/environments.
// Query: filter (expression), sort (name|slug|createdOn, "-" for descending),
// include=aliases.
func (h *Handlers) ListEnvironments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	grant, err := service.Authorize(ctx, permission.ManageSetting, service.AccessRead)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	withAliases := q.Get("include") == "aliases"

	var envs []environment.Environment
	var aliases []environment.Alias
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		envs, err = h.Environments.List(gctx)
		return err
	})
	if withAliases {
		g.Go(func() error {
			var err error
			aliases, err = h.Aliases.List(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	envs, err = environment.ListQuery{Filter: q.Get("filter"), Sort: q.Get("sort")}.Apply(envs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	envs = service.FilterOwned(grant, envs, envOwner)

	if !withAliases {
		writeJSON(w, http.StatusOK, envs)
		return
	}
	aliases = service.FilterOwned(grant, aliases, aliasOwner)
	items := make([]environmentWithAliases, 0, len(envs))
	for i := range envs {
		item := environmentWithAliases{Environment: envs[i], Aliases: []environment.Alias{}}
		for j := range aliases {
			if aliases[j].EnvironmentID == envs[i].ID {
				item.Aliases = append(item.Aliases, aliases[j])
			}
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

// GetEnvironment handles GET /api/v1/environments/{id}.
func (h *Handlers) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	handleGet(h.environments())(w, r)
}

// CreateEnvironment handles POST /api/v1/environments. When the content copy
// fails the created environment is still returned next to the error.
func (h *Handlers) CreateEnvironment(w http.ResponseWriter, r *http.Request) {
	if _, err := service.Authorize(r.Context(), permission.ManageSetting, service.AccessCreate); err != nil {
		writeDomainError(w, r, err)
		return
	}
	req, ok := readJSON[environment.CreateRequest](w, r)
	if !ok {
		return
	}
	env, err := h.Environments.Create(r.Context(), req, tenantRef(r), false)
	switch {
	case err != nil && env != nil:
		writePartial(w, r, env, err)
	case err != nil:
		writeDomainError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, env)
	}
}

// UpdateEnvironment handles PUT /api/v1/environments/{id}.
func (h *Handlers) UpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.environments(), h.Environments.Update)(w, r)
}

// DeleteEnvironment handles DELETE /api/v1/environments/{id}.
func (h *Handlers) DeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.environments(), h.Environments.Delete)(w, r)
}

// CopyEnvironment handles POST /api/v1/environments/{id}/copy and re-runs the
// content copy from the environment's source.
func (h *Handlers) CopyEnvironment(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.environments().load(w, r, service.AccessCreate); !ok {
		return
	}
	env, err := h.Environments.RetryCopy(r.Context(), urlParam(r, "id"))
	switch {
	case err != nil && env != nil:
		writePartial(w, r, env, err)
	case err != nil:
		writeDomainError(w, r, err)
	default:
		writeJSON(w, http.StatusAccepted, env)
	}
}

// --- Content models ---

// ListContentModels handles GET /api/v1/environments/{id}/content-models.
func (h *Handlers) ListContentModels(w http.ResponseWriter, r *http.Request) {
	grant, err := service.Authorize(r.Context(), permission.ManageContentModel, service.AccessRead)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	models, err := h.ContentModels.List(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	models = service.FilterOwned(grant, models, modelOwner)
	if models == nil {
		models = []contentmodel.Model{}
	}
	writeJSON(w, http.StatusOK, models)
}

// CreateContentModel handles POST /api/v1/environments/{id}/content-models.
func (h *Handlers) CreateContentModel(w http.ResponseWriter, r *http.Request) {
	envID := urlParam(r, "id")
	handleCreate(permission.ManageContentModel,
		func(ctx context.Context, req contentmodel.CreateRequest, createdBy tenant.Ref) (*contentmodel.Model, error) {
			return h.ContentModels.Create(ctx, envID, req, createdBy)
		})(w, r)
}

// DeleteContentModel handles DELETE /api/v1/environments/{id}/content-models/{modelID}.
// An own-scoped grant may only delete models its tenant created.
func (h *Handlers) DeleteContentModel(w http.ResponseWriter, r *http.Request) {
	grant, err := service.Authorize(r.Context(), permission.ManageContentModel, service.AccessDelete)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	envID, modelID := urlParam(r, "id"), urlParam(r, "modelID")
	model, err := h.ContentModels.Get(r.Context(), envID, modelID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := grant.CheckOwner(modelOwner(model)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.ContentModels.Delete(r.Context(), envID, modelID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// --- Aliases ---

// ListAliases handles GET /api/v1/environment-aliases.
func (h *Handlers) ListAliases(w http.ResponseWriter, r *http.Request) {
	handleList(h.aliases(), h.Aliases.List)(w, r)
}

// GetAlias handles GET /api/v1/environment-aliases/{id}.
func (h *Handlers) GetAlias(w http.ResponseWriter, r *http.Request) {
	handleGet(h.aliases())(w, r)
}

// CreateAlias handles POST /api/v1/environment-aliases.
func (h *Handlers) CreateAlias(w http.ResponseWriter, r *http.Request) {
	handleCreate(permission.ManageSetting, h.Aliases.Create)(w, r)
}

// UpdateAlias handles PUT /api/v1/environment-aliases/{id}.
func (h *Handlers) UpdateAlias(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.aliases(), h.Aliases.Update)(w, r)
}

// DeleteAlias handles DELETE /api/v1/environment-aliases/{id}.
func (h *Handlers) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.aliases(), h.Aliases.Delete)(w, r)
}

// --- Install ---

// Install handles POST /api/v1/install.
func (h *Handlers) Install(w http.ResponseWriter, r *http.Request) {
	if _, err := service.Authorize(r.Context(), permission.ManageSetting, service.AccessCreate); err != nil {
		writeDomainError(w, r, err)
		return
	}
	inst, err := h.Installer.Install(r.Context(), tenantRef(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

// --- Health ---

// Health handles GET /health. It only reports that the process serves requests.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready and checks the database and the broker.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"postgres": "ok"}
	if h.Broker != nil {
		checks["nats"] = "ok"
	}

	var g errgroup.Group
	var dbErr error
	g.Go(func() error {
		if h.DB == nil {
			return nil
		}
		dbErr = h.DB.Ping(ctx)
		return dbErr
	})
	natsUp := true
	if h.Broker != nil {
		g.Go(func() error {
			natsUp = h.Broker.IsConnected()
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	if dbErr != nil {
		checks["postgres"] = dbErr.Error()
		status = http.StatusServiceUnavailable
	}
	if !natsUp {
		checks["nats"] = "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}
