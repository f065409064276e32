package deploy

import (
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// Design jobs may run for two hours; the worker pod must be allowed at least
// that long to wind down, or a rollout would abort in-flight optimizations.
const minimumWorkerGrace = 2 * time.Hour

const webPort = 8000

// Validate checks the manifests against the conventions a rollout relies
// on. It returns the first problem found.
func (m *Manifests) Validate(env Environment) error {
	if m.Web == nil {
		return fmt.Errorf("%s manifests declare no web deployment", env.Name)
	}
	if m.Worker == nil {
		return fmt.Errorf("%s manifests declare no worker deployment", env.Name)
	}
	for _, deployment := range []*appsv1.Deployment{m.Web, m.Worker} {
		if err := validateDeployment(deployment, env); err != nil {
			return err
		}
	}

	web := m.Web.Spec.Template.Spec
	if _, ok := findContainer(web.InitContainers, "migrate"); !ok {
		return fmt.Errorf("web deployment %s must run schema migrations in an init container named migrate", m.Web.Name)
	}
	server, ok := findContainer(web.Containers, "web")
	if !ok {
		return fmt.Errorf("web deployment %s has no container named web", m.Web.Name)
	}
	probe := server.ReadinessProbe
	if probe == nil || probe.HTTPGet == nil || probe.HTTPGet.Port.IntValue() != webPort {
		return fmt.Errorf("container web in deployment %s needs an HTTP readiness probe on port %d", m.Web.Name, webPort)
	}

	grace := m.Worker.Spec.Template.Spec.TerminationGracePeriodSeconds
	if grace == nil || time.Duration(*grace)*time.Second <= minimumWorkerGrace {
		return fmt.Errorf("worker deployment %s needs a termination grace period above the two hour job timeout", m.Worker.Name)
	}
	return nil
}

func validateDeployment(deployment *appsv1.Deployment, env Environment) error {
	if replicas := deployment.Spec.Replicas; replicas != nil && *replicas < 1 {
		return fmt.Errorf("deployment %s is scaled to %d replicas", deployment.Name, *replicas)
	}
	spec := deployment.Spec.Template.Spec
	for _, container := range spec.InitContainers {
		if err := validateContainer(container, deployment.Name, env); err != nil {
			return err
		}
	}
	for _, container := range spec.Containers {
		if err := validateContainer(container, deployment.Name, env); err != nil {
			return err
		}
	}
	return nil
}

func validateContainer(container corev1.Container, deployment string, env Environment) error {
	if _, tag := splitImage(container.Image); tag == "" {
		return fmt.Errorf("container %s in deployment %s runs an untagged image %q", container.Name, deployment, container.Image)
	}
	limits := container.Resources.Limits
	if limits.Cpu().IsZero() || limits.Memory().IsZero() {
		return fmt.Errorf("container %s in deployment %s declares no cpu and memory limits", container.Name, deployment)
	}
	for _, variable := range container.Env {
		if variable.ValueFrom != nil && variable.ValueFrom.SecretKeyRef != nil {
			ref := variable.ValueFrom.SecretKeyRef
			if ref.Name != env.Secret {
				return fmt.Errorf("container %s in deployment %s reads %s from secret %s, expected %s", container.Name, deployment, variable.Name, ref.Name, env.Secret)
			}
			if ref.Key == "" {
				return fmt.Errorf("container %s in deployment %s reads %s from an empty secret key", container.Name, deployment, variable.Name)
			}
		}
		if variable.Name == "ENVIRONMENT" && variable.Value != env.Name {
			return fmt.Errorf("container %s in deployment %s runs with ENVIRONMENT=%s in the %s manifests", container.Name, deployment, variable.Value, env.Name)
		}
	}
	return nil
}

func findContainer(containers []corev1.Container, name string) (corev1.Container, bool) {
	for _, container := range containers {
		if container.Name == name {
			return container, true
		}
	}
	return corev1.Container{}, false
}
