//go:build integration
// +build integration

// The build tag 'integration' separates the tests that need Docker from the
// unit tests.
// Run unit tests with: go test ./...
// Run integration tests with: go test -tags=integration ./...

package integrationtests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/internal/engine"
	"github.com/DD-DeCaF/metabolic-ninja/internal/universal"
	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
	"github.com/DD-DeCaF/metabolic-ninja/plugin/shared"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func setupRabbitMQContainer(t *testing.T, ctx context.Context) string {
	rabbitmqContainer, err := rabbitmq.Run(ctx, "rabbitmq:3.8-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")

	t.Cleanup(func() {
		err := rabbitmqContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate RabbitMQ container")
	})

	connStr, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get RabbitMQ AMQP URL")

	return connStr
}

func createDB(t *testing.T, ctx context.Context) *gorm.DB {
	uri := setupPostgresContainer(t, ctx)
	db, err := database.NewDatabase(uri)
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

// universalDir writes minimal universal reaction databases so the repository
// has something to load. The fake engine does not consult them.
func universalDir(t *testing.T) string {
	dir := t.TempDir()
	content := []byte(`{
		"id": "universal",
		"metabolites": [
			{"id": "vnl_p", "name": "Vanillin"},
			{"id": "btd_p", "name": "(R,R)-2,3-Butanediol"}
		],
		"reactions": []
	}`)
	for _, source := range []universal.Source{universal.BiGG, universal.BiGGRhea} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, string(source)+".json"), content, 0o644))
	}
	return dir
}

// fakeEngine stands in for the plugin binary, which needs a linear
// programming toolchain that is not available in tests. It predicts one
// vanillin pathway with one flux distribution design each.
type fakeEngine struct{}

func (fakeEngine) FindProduct(ctx context.Context, productName string, source *pathway.Model) (pathway.Metabolite, error) {
	return pathway.Metabolite{ID: "vnl_p_c", Name: productName}, nil
}

func (fakeEngine) PredictPathways(ctx context.Context, productID string, model, source *pathway.Model, maxPredictions int) ([]pathway.Pathway, error) {
	return []pathway.Pathway{{
		Reactions: []pathway.Reaction{{
			ID:          "VANSYN",
			Name:        "vanillin synthase",
			Metabolites: map[string]float64{"b_p_c": -1, "vnl_p_c": 1},
		}},
		Adapters: []pathway.Reaction{{
			ID:          "adapter_b_p_c",
			Metabolites: map[string]float64{"glc__D_c": -1, "b_p_c": 1},
		}},
		Product: pathway.Reaction{
			ID:          "DM_vnl_p_c",
			Metabolites: map[string]float64{"vnl_p_c": -1},
		},
		Metabolites: []pathway.Metabolite{
			{ID: "b_p_c", Name: "vanillin precursor"},
			{ID: "vnl_p_c", Name: "vanillin"},
		},
	}}, nil
}

func (fakeEngine) ProductionFlux(ctx context.Context, model *pathway.Model, p pathway.Pathway) (map[string]float64, error) {
	return map[string]float64{"VANSYN": 2.5, "DM_vnl_p_c": 2.5, "GAPD": 1.1}, nil
}

func (fakeEngine) DifferentialFVA(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error) {
	return []shared.Design{{
		Targets: []shared.FluxTarget{{ID: "GAPD", FoldChange: 2.5, Value: 8.2}},
		Yield:   sql.NullFloat64{Float64: 0.4, Valid: true},
		Product: sql.NullFloat64{Float64: 2.5, Valid: true},
		Biomass: sql.NullFloat64{Float64: 0.9, Valid: true},
	}}, nil
}

func (fakeEngine) OptGene(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error) {
	return nil, nil
}

func (fakeEngine) CofactorSwap(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error) {
	return []shared.Design{{
		Targets: []shared.FluxTarget{{ID: "GAPD"}},
		Yield:   sql.NullFloat64{Float64: 0.5, Valid: true},
		Product: sql.NullFloat64{Float64: 3.1, Valid: true},
		Biomass: sql.NullFloat64{Float64: 0.9, Valid: true},
	}}, nil
}

func (fakeEngine) Release() {}

type fakeLoader struct{}

func (fakeLoader) Load() (engine.Engine, error) {
	return fakeEngine{}, nil
}

// serializedModel is what the model-storage double serves: a small but
// complete metabolic model with a swappable co-factor pair on GAPD.
const serializedModel = `{
	"model_serialized": {
		"id": "iJO1366",
		"metabolites": [
			{"id": "glc__D_c", "name": "D-Glucose", "formula": "C6H12O6"},
			{"id": "o2_e", "name": "O2", "formula": "O2"},
			{"id": "nad_c", "name": "NAD", "formula": "C21H26N7O14P2"},
			{"id": "nadh_c", "name": "NADH", "formula": "C21H27N7O14P2"},
			{"id": "nadp_c", "name": "NADP", "formula": "C21H25N7O17P3"},
			{"id": "nadph_c", "name": "NADPH", "formula": "C21H26N7O17P3"}
		],
		"reactions": [
			{"id": "GAPD", "name": "Glyceraldehyde-3-phosphate dehydrogenase", "metabolites": {"nad_c": -1, "nadh_c": 1}, "lower_bound": -1000, "upper_bound": 1000, "gene_reaction_rule": "b1779"},
			{"id": "EX_glc__D_e", "name": "D-Glucose exchange", "metabolites": {"glc__D_c": -1}, "lower_bound": -10, "upper_bound": 1000, "gene_reaction_rule": ""},
			{"id": "EX_o2_e", "name": "O2 exchange", "metabolites": {"o2_e": -1}, "lower_bound": -1000, "upper_bound": 1000, "gene_reaction_rule": ""},
			{"id": "BIOMASS_Ec_iJO1366_core", "name": "Biomass", "metabolites": {"glc__D_c": -1}, "lower_bound": 0, "upper_bound": 1000, "gene_reaction_rule": ""}
		]
	},
	"default_biomass_reaction": "BIOMASS_Ec_iJO1366_core"
}`

func stubModelStorage(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, serializedModel)
	}))
	t.Cleanup(server.Close)
	return server
}

func stubWarehouse(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 2, "name": "Escherichia coli"}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func httpRequest(api http.Handler, method, endpoint string, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		requestBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(requestBody)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK && rr.Code != http.StatusAccepted {
		return fmt.Errorf("expected status code 200 or 202, got %d: %v", rr.Code, rr.Body.String())
	}

	if dest != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
