package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DD-DeCaF/metabolic-ninja/internal/auth"
	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/modelstorage"
	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/warehouse"
	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/internal/messaging"
	"github.com/DD-DeCaF/metabolic-ninja/internal/metrics"
	"github.com/DD-DeCaF/metabolic-ninja/internal/products"
	"github.com/DD-DeCaF/metabolic-ninja/pkg/api"
)

type BackendService struct {
	db           *gorm.DB
	publisher    messaging.Publisher
	modelStorage *modelstorage.Client
	warehouse    *warehouse.Client
	products     *products.Service
}

func NewBackendService(db *gorm.DB, pub messaging.Publisher, models *modelstorage.Client, organisms *warehouse.Client, prods *products.Service) *BackendService {
	return &BackendService{db: db, publisher: pub, modelStorage: models, warehouse: organisms, products: prods}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Route("/predictions", func(r chi.Router) {
		r.Post("/", RestHandler(s.CreatePrediction))
		r.Get("/", RestHandler(s.ListPredictions))
		r.Get("/{id}", RestHandler(s.GetPrediction))
	})
	r.Get("/products", RestHandler(s.ListProducts))
}

func (s *BackendService) CreatePrediction(r *http.Request) (any, error) {
	req, err := ParseRequest[api.PredictionJobRequest](r)
	if err != nil {
		return nil, err
	}

	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !*req.BiGG && !*req.Rhea {
		return nil, CodedErrorf(http.StatusBadRequest, "at least one of bigg and rhea must be enabled")
	}

	ctx := r.Context()
	claims := auth.FromContext(ctx)

	if req.ProjectID != nil && !claims.CanWrite(*req.ProjectID) {
		if !claims.Authenticated {
			return nil, CodedErrorf(http.StatusUnauthorized, "authorization required to submit jobs to project %d", *req.ProjectID)
		}
		return nil, CodedErrorf(http.StatusForbidden, "insufficient permissions to submit jobs to project %d", *req.ProjectID)
	}

	// Verify the request by loading the model from the model-storage
	// service, with the caller's own credentials.
	authorization := r.Header.Get("Authorization")
	model, err := s.modelStorage.GetModel(ctx, *req.ModelID, authorization)
	if err != nil {
		return nil, upstreamError(err)
	}
	organism, err := s.warehouse.GetOrganism(ctx, *req.OrganismID, authorization)
	if err != nil {
		return nil, upstreamError(err)
	}

	job := database.DesignJob{
		ProjectId:      req.ProjectID,
		OrganismId:     *req.OrganismID,
		ModelId:        *req.ModelID,
		ProductName:    *req.ProductName,
		MaxPredictions: *req.MaxPredictions,
		Aerobic:        *req.Aerobic,
		TaskId:         uuid.New(),
		Status:         database.JobPending,
		Created:        time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		slog.Error("error creating design job", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create job entry")
	}

	payload := messaging.DesignTaskPayload{
		JobID:          job.Id,
		ProjectID:      job.ProjectId,
		ModelID:        job.ModelId,
		Model:          *model,
		OrganismID:     job.OrganismId,
		OrganismName:   organism.Name,
		ProductName:    job.ProductName,
		MaxPredictions: job.MaxPredictions,
		Aerobic:        job.Aerobic,
		BiGG:           *req.BiGG,
		Rhea:           *req.Rhea,
		UserName:       claims.Name,
		UserEmail:      claims.Email,
	}
	if err := s.publisher.PublishDesignTask(ctx, payload); err != nil {
		// The job row is the source of truth: record the failure rather
		// than leaving a forever-PENDING row behind.
		slog.Error("error publishing design task", "job_id", job.Id, "error", err)
		if dberr := database.SaveJobFailure(ctx, s.db, job.Id, "queue", "the job could not be queued"); dberr != nil {
			slog.Error("error recording failed publish", "job_id", job.Id, "error", dberr)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue design job")
	}

	metrics.JobsSubmitted.Inc()
	slog.Info("accepted design job", "job_id", job.Id, "product", job.ProductName, "organism", organism.Name)
	return Accepted(convertJobDetail(job)), nil
}

type listPredictionsQuery struct {
	ProjectID *int64 `schema:"project_id"`
}

func (s *BackendService) ListPredictions(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listPredictionsQuery](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()
	claims := auth.FromContext(ctx)

	query := s.db.WithContext(ctx).Order("id")
	if readable := claims.ReadableProjects(); len(readable) > 0 {
		query = query.Where("project_id IS NULL OR project_id IN ?", readable)
	} else {
		query = query.Where("project_id IS NULL")
	}
	if params.ProjectID != nil {
		query = query.Where("project_id = ?", *params.ProjectID)
	}

	var jobs []database.DesignJob
	if err := query.Find(&jobs).Error; err != nil {
		slog.Error("error listing design jobs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving job records")
	}

	return convertJobs(jobs), nil
}

func (s *BackendService) GetPrediction(r *http.Request) (any, error) {
	jobId, err := URLParamInt(r, "id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var job database.DesignJob
	if err := s.db.WithContext(ctx).First(&job, jobId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "no prediction job with id %d", jobId)
		}
		slog.Error("error getting design job", "job_id", jobId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving job record")
	}

	claims := auth.FromContext(ctx)
	if job.ProjectId != nil && !claims.CanRead(*job.ProjectId) {
		if !claims.Authenticated {
			return nil, CodedErrorf(http.StatusUnauthorized, "authorization required to view this job")
		}
		return nil, CodedErrorf(http.StatusForbidden, "insufficient permissions to view this job")
	}

	if !database.Terminal(job.Status) {
		return Accepted(convertJobDetail(job)), nil
	}
	return convertJobDetail(job), nil
}

func (s *BackendService) ListProducts(r *http.Request) (any, error) {
	listing, err := s.products.List(r.Context())
	if err != nil {
		slog.Error("error listing products", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "product list is unavailable")
	}
	return listing, nil
}

// upstreamError maps client errors from the platform services onto response
// codes: the caller's credentials and the referenced resources are theirs to
// fix, anything else is a gateway problem.
func upstreamError(err error) error {
	switch {
	case errors.Is(err, modelstorage.ErrUnauthorized) || errors.Is(err, warehouse.ErrUnauthorized):
		return CodedError(http.StatusUnauthorized, err)
	case errors.Is(err, modelstorage.ErrForbidden) || errors.Is(err, warehouse.ErrForbidden):
		return CodedError(http.StatusForbidden, err)
	case errors.Is(err, modelstorage.ErrNotFound) || errors.Is(err, warehouse.ErrNotFound):
		return CodedError(http.StatusNotFound, err)
	}
	return CodedError(http.StatusBadGateway, err)
}
