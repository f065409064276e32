package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// NewClient connects to the cluster. An explicit kubeconfig path wins over
// the usual loading rules, which in turn fall back to the in-cluster
// service account when no config file is around.
func NewClient(kubeconfig string) (kubernetes.Interface, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubernetes config: %w", err)
	}
	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("connect to cluster: %w", err)
	}
	return client, nil
}

// Rollout replaces one environment's running build with a new image tag.
type Rollout struct {
	client    kubernetes.Interface
	namespace string
	interval  time.Duration
	timeout   time.Duration
}

func NewRollout(client kubernetes.Interface, namespace string) *Rollout {
	return &Rollout{
		client:    client,
		namespace: namespace,
		interval:  5 * time.Second,
		// Winding down the worker can legitimately take the full two
		// hour grace period when a job is in flight.
		timeout: 3 * time.Hour,
	}
}

// Apply rolls the given tag out. The worker deployment is deleted and waited
// out first so no job runs against the old schema while the web pod's init
// container migrates the database, then the web deployment is patched to the
// new tag and the worker is re-created from the manifest.
func (r *Rollout) Apply(ctx context.Context, manifests *Manifests, env Environment, tag string) error {
	if err := r.checkSecret(ctx, env.Secret, manifests.SecretKeys()); err != nil {
		return err
	}
	manifests.SetImageTag(tag)
	slog.Info("rolling out", "environment", env.Name, "image", manifests.AppRepository()+":"+tag)

	if err := r.deleteWorker(ctx, manifests.Worker.Name); err != nil {
		return err
	}
	if err := r.patchWebImages(ctx, manifests.Web); err != nil {
		return err
	}
	if _, err := r.client.AppsV1().Deployments(r.namespace).Create(ctx, manifests.Worker, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("create worker deployment %s: %w", manifests.Worker.Name, err)
	}
	slog.Info("rollout complete", "environment", env.Name)
	return nil
}

// checkSecret verifies that every key the manifests reference exists before
// anything is replaced, so a missing credential cannot take the service
// down halfway through a rollout.
func (r *Rollout) checkSecret(ctx context.Context, name string, keys []string) error {
	secret, err := r.client.CoreV1().Secrets(r.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("read secret %s: %w", name, err)
	}
	for _, key := range keys {
		if _, ok := secret.Data[key]; !ok {
			return fmt.Errorf("secret %s is missing key %s", name, key)
		}
	}
	return nil
}

// deleteWorker removes the worker deployment and waits until it is gone.
// Foreground propagation keeps the deployment object around until its pods
// have terminated, and the pods keep their grace period so running jobs can
// finish.
func (r *Rollout) deleteWorker(ctx context.Context, name string) error {
	foreground := metav1.DeletePropagationForeground
	err := r.client.AppsV1().Deployments(r.namespace).Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &foreground,
	})
	if k8serrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete worker deployment %s: %w", name, err)
	}

	slog.Info("waiting for worker deployment to wind down", "deployment", name)
	err = wait.PollUntilContextTimeout(ctx, r.interval, r.timeout, true, func(ctx context.Context) (bool, error) {
		_, err := r.client.AppsV1().Deployments(r.namespace).Get(ctx, name, metav1.GetOptions{})
		if k8serrors.IsNotFound(err) {
			return true, nil
		}
		return false, err
	})
	if err != nil {
		return fmt.Errorf("worker deployment %s did not wind down: %w", name, err)
	}
	return nil
}

type containerImage struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// patchWebImages updates the web deployment in place rather than re-creating
// it, so the api stays up throughout the rollout. The strategic merge patch
// matches containers by name and touches nothing but their images.
func (r *Rollout) patchWebImages(ctx context.Context, web *appsv1.Deployment) error {
	spec := web.Spec.Template.Spec
	containers := make([]containerImage, 0, len(spec.Containers))
	for _, container := range spec.Containers {
		containers = append(containers, containerImage{Name: container.Name, Image: container.Image})
	}
	initContainers := make([]containerImage, 0, len(spec.InitContainers))
	for _, container := range spec.InitContainers {
		initContainers = append(initContainers, containerImage{Name: container.Name, Image: container.Image})
	}
	patch, err := json.Marshal(map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"spec": map[string]any{
					"containers":     containers,
					"initContainers": initContainers,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("encode web deployment patch: %w", err)
	}
	if _, err := r.client.AppsV1().Deployments(r.namespace).Patch(ctx, web.Name, types.StrategicMergePatchType, patch, metav1.PatchOptions{}); err != nil {
		return fmt.Errorf("patch web deployment %s: %w", web.Name, err)
	}
	return nil
}
