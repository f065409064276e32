// Package deploy rolls the service out to the DD-DeCaF Kubernetes cluster.
// A deployment environment is selected by the branch being built; the
// manifests for it live under deployments/ and are validated before any
// cluster object is touched.
package deploy

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/kubernetes/scheme"
)

// Environment describes one deployable target of the cluster.
type Environment struct {
	// Name doubles as the ENVIRONMENT setting inside the containers.
	Name string
	// Branch whose builds are rolled out to this environment.
	Branch string
	// Manifest is the file name under the manifest directory.
	Manifest string
	// Secret holding the credentials referenced by the manifests.
	Secret string
}

// Environments lists every deployable target. Builds of any other branch are
// not rolled out anywhere.
var Environments = []Environment{
	{
		Name:     "production",
		Branch:   "master",
		Manifest: "production.yml",
		Secret:   "metabolic-ninja-production",
	},
	{
		Name:     "staging",
		Branch:   "devel",
		Manifest: "staging.yml",
		Secret:   "metabolic-ninja-staging",
	},
}

// EnvironmentForBranch returns the environment deployed from the given
// branch, if any.
func EnvironmentForBranch(branch string) (Environment, bool) {
	for _, env := range Environments {
		if env.Branch == branch {
			return env, true
		}
	}
	return Environment{}, false
}

// Manifests holds the decoded cluster objects of one environment. The web
// deployment carries the public pod (api, broker, cache and disk monitor)
// and the worker deployment carries the long running design jobs.
type Manifests struct {
	Web      *appsv1.Deployment
	Worker   *appsv1.Deployment
	Services []*corev1.Service
}

// LoadManifests decodes every document in the given manifest file. The two
// deployments are told apart by their role label.
func LoadManifests(path string) (*Manifests, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest file: %w", err)
	}
	defer file.Close()

	manifests := &Manifests{}
	reader := yaml.NewYAMLReader(bufio.NewReader(file))
	decoder := scheme.Codecs.UniversalDeserializer()
	for {
		document, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest document: %w", err)
		}
		if len(bytes.TrimSpace(document)) == 0 {
			continue
		}
		object, kind, err := decoder.Decode(document, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("decode manifest document: %w", err)
		}
		switch typed := object.(type) {
		case *appsv1.Deployment:
			switch role := typed.Labels["role"]; role {
			case "web":
				if manifests.Web != nil {
					return nil, fmt.Errorf("%s declares more than one web deployment", path)
				}
				manifests.Web = typed
			case "worker":
				if manifests.Worker != nil {
					return nil, fmt.Errorf("%s declares more than one worker deployment", path)
				}
				manifests.Worker = typed
			default:
				return nil, fmt.Errorf("deployment %s must carry a role label of web or worker, got %q", typed.Name, role)
			}
		case *corev1.Service:
			manifests.Services = append(manifests.Services, typed)
		default:
			return nil, fmt.Errorf("unexpected %s manifest in %s", kind.Kind, path)
		}
	}
	return manifests, nil
}

// AppRepository returns the image repository the service itself is built
// into, as opposed to the stock broker and cache images running alongside
// it. The worker pod runs nothing else, so its first container is
// authoritative.
func (m *Manifests) AppRepository() string {
	if m.Worker == nil || len(m.Worker.Spec.Template.Spec.Containers) == 0 {
		return ""
	}
	repository, _ := splitImage(m.Worker.Spec.Template.Spec.Containers[0].Image)
	return repository
}

// SetImageTag points every container running the service image at the given
// tag. Containers from other repositories are left alone.
func (m *Manifests) SetImageTag(tag string) {
	repository := m.AppRepository()
	if repository == "" {
		return
	}
	for _, deployment := range []*appsv1.Deployment{m.Web, m.Worker} {
		if deployment == nil {
			continue
		}
		spec := &deployment.Spec.Template.Spec
		retagContainers(spec.InitContainers, repository, tag)
		retagContainers(spec.Containers, repository, tag)
	}
}

func retagContainers(containers []corev1.Container, repository, tag string) {
	for i := range containers {
		if candidate, _ := splitImage(containers[i].Image); candidate == repository {
			containers[i].Image = repository + ":" + tag
		}
	}
}

// SecretKeys returns the sorted set of secret keys the manifests reference,
// so a rollout can verify they exist before replacing anything.
func (m *Manifests) SecretKeys() []string {
	seen := make(map[string]bool)
	for _, deployment := range []*appsv1.Deployment{m.Web, m.Worker} {
		if deployment == nil {
			continue
		}
		spec := deployment.Spec.Template.Spec
		for _, container := range spec.InitContainers {
			collectSecretKeys(seen, container)
		}
		for _, container := range spec.Containers {
			collectSecretKeys(seen, container)
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func collectSecretKeys(seen map[string]bool, container corev1.Container) {
	for _, env := range container.Env {
		if env.ValueFrom != nil && env.ValueFrom.SecretKeyRef != nil {
			seen[env.ValueFrom.SecretKeyRef.Key] = true
		}
	}
}

// splitImage separates an image reference into repository and tag. The tag
// is empty when the reference does not carry one. A colon in the registry
// host, as in localhost:5000/app, is not a tag separator.
func splitImage(image string) (repository, tag string) {
	slash := strings.LastIndex(image, "/")
	colon := strings.LastIndex(image, ":")
	if colon > slash {
		return image[:colon], image[colon+1:]
	}
	return image, ""
}
