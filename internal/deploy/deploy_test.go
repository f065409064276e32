package deploy

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func loadManifests(t *testing.T, env Environment) *Manifests {
	t.Helper()
	manifests, err := LoadManifests(filepath.Join("..", "..", "deployments", env.Manifest))
	require.NoError(t, err)
	return manifests
}

func stagingEnv(t *testing.T) Environment {
	t.Helper()
	env, ok := EnvironmentForBranch("devel")
	require.True(t, ok)
	return env
}

func container(t *testing.T, containers []corev1.Container, name string) *corev1.Container {
	t.Helper()
	for i := range containers {
		if containers[i].Name == name {
			return &containers[i]
		}
	}
	t.Fatalf("no container named %s", name)
	return nil
}

func clusterSecret(manifests *Manifests, env Environment) *corev1.Secret {
	data := make(map[string][]byte)
	for _, key := range manifests.SecretKeys() {
		data[key] = []byte("credential")
	}
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: env.Secret, Namespace: "default"},
		Data:       data,
	}
}

func TestEnvironmentForBranch(t *testing.T) {
	env, ok := EnvironmentForBranch("master")
	require.True(t, ok)
	assert.Equal(t, "production", env.Name)
	assert.Equal(t, "production.yml", env.Manifest)

	env, ok = EnvironmentForBranch("devel")
	require.True(t, ok)
	assert.Equal(t, "staging", env.Name)
	assert.Equal(t, "metabolic-ninja-staging", env.Secret)

	_, ok = EnvironmentForBranch("feature/faster-fva")
	assert.False(t, ok)
}

func TestLoadManifests(t *testing.T) {
	manifests := loadManifests(t, stagingEnv(t))

	require.NotNil(t, manifests.Web)
	require.NotNil(t, manifests.Worker)
	assert.Equal(t, "metabolic-ninja-staging", manifests.Web.Name)
	assert.Equal(t, "metabolic-ninja-staging-worker", manifests.Worker.Name)
	assert.Len(t, manifests.Services, 2)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja", manifests.AppRepository())
	assert.Equal(t, []string{
		"FLOWER_PASSWORD",
		"FLOWER_USERNAME",
		"POSTGRES_PASS",
		"POSTGRES_USERNAME",
		"SECRET_KEY",
		"SENDGRID_API_KEY",
		"SENTRY_DSN",
	}, manifests.SecretKeys())
}

func TestManifestsAreValid(t *testing.T) {
	for _, env := range Environments {
		t.Run(env.Name, func(t *testing.T) {
			manifests := loadManifests(t, env)
			assert.NoError(t, manifests.Validate(env))
		})
	}
}

func TestSplitImage(t *testing.T) {
	tests := []struct {
		image      string
		repository string
		tag        string
	}{
		{"gcr.io/dd-decaf-cfbf6/metabolic-ninja:devel", "gcr.io/dd-decaf-cfbf6/metabolic-ninja", "devel"},
		{"redis:5.0-alpine", "redis", "5.0-alpine"},
		{"localhost:5000/app", "localhost:5000/app", ""},
		{"app", "app", ""},
	}
	for _, tt := range tests {
		repository, tag := splitImage(tt.image)
		assert.Equal(t, tt.repository, repository, tt.image)
		assert.Equal(t, tt.tag, tag, tt.image)
	}
}

func TestSetImageTag(t *testing.T) {
	manifests := loadManifests(t, stagingEnv(t))
	manifests.SetImageTag("abc123")

	web := manifests.Web.Spec.Template.Spec
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:abc123", container(t, web.Containers, "web").Image)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:abc123", container(t, web.InitContainers, "migrate").Image)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:abc123", container(t, web.Containers, "diskmonitor").Image)
	assert.Equal(t, "rabbitmq:3.8-management", container(t, web.Containers, "broker").Image)
	assert.Equal(t, "redis:5.0-alpine", container(t, web.Containers, "cache").Image)

	worker := manifests.Worker.Spec.Template.Spec
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:abc123", container(t, worker.Containers, "worker").Image)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, m *Manifests)
		want   string
	}{
		{
			name:   "missing worker deployment",
			mutate: func(t *testing.T, m *Manifests) { m.Worker = nil },
			want:   "no worker deployment",
		},
		{
			name: "scaled to zero",
			mutate: func(t *testing.T, m *Manifests) {
				zero := int32(0)
				m.Web.Spec.Replicas = &zero
			},
			want: "scaled to 0 replicas",
		},
		{
			name: "untagged image",
			mutate: func(t *testing.T, m *Manifests) {
				container(t, m.Web.Spec.Template.Spec.Containers, "web").Image = "gcr.io/dd-decaf-cfbf6/metabolic-ninja"
			},
			want: "untagged image",
		},
		{
			name: "missing resource limits",
			mutate: func(t *testing.T, m *Manifests) {
				container(t, m.Worker.Spec.Template.Spec.Containers, "worker").Resources = corev1.ResourceRequirements{}
			},
			want: "no cpu and memory limits",
		},
		{
			name: "foreign secret",
			mutate: func(t *testing.T, m *Manifests) {
				worker := container(t, m.Worker.Spec.Template.Spec.Containers, "worker")
				for i := range worker.Env {
					if worker.Env[i].Name == "SENDGRID_API_KEY" {
						worker.Env[i].ValueFrom.SecretKeyRef.Name = "somebody-elses-secret"
					}
				}
			},
			want: "expected metabolic-ninja-staging",
		},
		{
			name: "environment mismatch",
			mutate: func(t *testing.T, m *Manifests) {
				web := container(t, m.Web.Spec.Template.Spec.Containers, "web")
				for i := range web.Env {
					if web.Env[i].Name == "ENVIRONMENT" {
						web.Env[i].Value = "production"
					}
				}
			},
			want: "ENVIRONMENT=production",
		},
		{
			name: "missing migration init container",
			mutate: func(t *testing.T, m *Manifests) {
				m.Web.Spec.Template.Spec.InitContainers = nil
			},
			want: "init container named migrate",
		},
		{
			name: "missing readiness probe",
			mutate: func(t *testing.T, m *Manifests) {
				container(t, m.Web.Spec.Template.Spec.Containers, "web").ReadinessProbe = nil
			},
			want: "readiness probe",
		},
		{
			name: "grace period below the job timeout",
			mutate: func(t *testing.T, m *Manifests) {
				hour := int64(3600)
				m.Worker.Spec.Template.Spec.TerminationGracePeriodSeconds = &hour
			},
			want: "termination grace period",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := stagingEnv(t)
			manifests := loadManifests(t, env)
			tt.mutate(t, manifests)
			assert.ErrorContains(t, manifests.Validate(env), tt.want)
		})
	}
}

func TestRolloutApply(t *testing.T) {
	env := stagingEnv(t)
	manifests := loadManifests(t, env)

	running := loadManifests(t, env)
	running.SetImageTag("old")
	running.Web.Namespace = "default"
	running.Worker.Namespace = "default"
	cluster := fake.NewSimpleClientset(clusterSecret(manifests, env), running.Web, running.Worker)

	rollout := NewRollout(cluster, "default")
	rollout.interval = time.Millisecond
	rollout.timeout = time.Second
	require.NoError(t, rollout.Apply(context.Background(), manifests, env, "f00ba7"))

	web, err := cluster.AppsV1().Deployments("default").Get(context.Background(), manifests.Web.Name, metav1.GetOptions{})
	require.NoError(t, err)
	spec := web.Spec.Template.Spec
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:f00ba7", container(t, spec.Containers, "web").Image)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:f00ba7", container(t, spec.InitContainers, "migrate").Image)
	assert.Equal(t, "rabbitmq:3.8-management", container(t, spec.Containers, "broker").Image)

	worker, err := cluster.AppsV1().Deployments("default").Get(context.Background(), manifests.Worker.Name, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:f00ba7", container(t, worker.Spec.Template.Spec.Containers, "worker").Image)
}

func TestRolloutCreatesAbsentWorker(t *testing.T) {
	env := stagingEnv(t)
	manifests := loadManifests(t, env)

	running := loadManifests(t, env)
	running.SetImageTag("old")
	running.Web.Namespace = "default"
	cluster := fake.NewSimpleClientset(clusterSecret(manifests, env), running.Web)

	rollout := NewRollout(cluster, "default")
	rollout.interval = time.Millisecond
	rollout.timeout = time.Second
	require.NoError(t, rollout.Apply(context.Background(), manifests, env, "f00ba7"))

	worker, err := cluster.AppsV1().Deployments("default").Get(context.Background(), manifests.Worker.Name, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:f00ba7", container(t, worker.Spec.Template.Spec.Containers, "worker").Image)
}

func TestRolloutMissingSecretKey(t *testing.T) {
	env := stagingEnv(t)
	manifests := loadManifests(t, env)

	secret := clusterSecret(manifests, env)
	delete(secret.Data, "SENDGRID_API_KEY")
	running := loadManifests(t, env)
	running.SetImageTag("old")
	running.Web.Namespace = "default"
	running.Worker.Namespace = "default"
	cluster := fake.NewSimpleClientset(secret, running.Web, running.Worker)

	rollout := NewRollout(cluster, "default")
	rollout.interval = time.Millisecond
	rollout.timeout = time.Second
	err := rollout.Apply(context.Background(), manifests, env, "f00ba7")
	assert.ErrorContains(t, err, "missing key SENDGRID_API_KEY")

	// The preflight check must run before anything is replaced.
	worker, err := cluster.AppsV1().Deployments("default").Get(context.Background(), manifests.Worker.Name, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gcr.io/dd-decaf-cfbf6/metabolic-ninja:old", container(t, worker.Spec.Template.Spec.Containers, "worker").Image)
}
