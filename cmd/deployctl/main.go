package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DD-DeCaF/metabolic-ninja/internal/deploy"
)

func main() {
	root := &cobra.Command{
		Use:          "deployctl",
		Short:        "Validate and roll out the Kubernetes deployments",
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCommand(), newRolloutCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newValidateCommand() *cobra.Command {
	var manifestDir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every environment's manifests against the rollout conventions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, env := range deploy.Environments {
				manifests, err := deploy.LoadManifests(filepath.Join(manifestDir, env.Manifest))
				if err != nil {
					return err
				}
				if err := manifests.Validate(env); err != nil {
					return err
				}
				fmt.Printf("%s: ok\n", env.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestDir, "manifest-dir", "deployments", "directory holding the environment manifests")
	return cmd
}

func newRolloutCommand() *cobra.Command {
	var (
		branch      string
		tag         string
		manifestDir string
		namespace   string
		kubeconfig  string
	)
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Roll a build out to the environment deployed from its branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, ok := deploy.EnvironmentForBranch(branch)
			if !ok {
				slog.Info("branch does not deploy anywhere, nothing to do", "branch", branch)
				return nil
			}
			manifests, err := deploy.LoadManifests(filepath.Join(manifestDir, env.Manifest))
			if err != nil {
				return err
			}
			if err := manifests.Validate(env); err != nil {
				return err
			}
			client, err := deploy.NewClient(kubeconfig)
			if err != nil {
				return err
			}
			return deploy.NewRollout(client, namespace).Apply(cmd.Context(), manifests, env, tag)
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", "branch the image was built from")
	cmd.Flags().StringVar(&tag, "tag", "", "image tag to roll out")
	cmd.Flags().StringVar(&manifestDir, "manifest-dir", "deployments", "directory holding the environment manifests")
	cmd.Flags().StringVar(&namespace, "namespace", "default", "cluster namespace to deploy into")
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "path to a kubeconfig file, defaults to the usual loading rules")
	_ = cmd.MarkFlagRequired("branch")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}
