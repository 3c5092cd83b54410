/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
	"github.com/deckhouse/sentinel-role-labeler/internal/kubeclient"
	"github.com/deckhouse/sentinel-role-labeler/internal/labeler"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
	"github.com/deckhouse/sentinel-role-labeler/internal/members"
)

func newRunCommand(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the labeling loop until terminated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd, opts)
		},
	}
}

func runLoop(cmd *cobra.Command, opts *config.Options) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	log.Info(fmt.Sprintf("Go Version:%s ", goruntime.Version()))
	log.Info(fmt.Sprintf("OS/Arch:Go OS/Arch:%s/%s ", goruntime.GOOS, goruntime.GOARCH))
	if opts.DryRun {
		log.Info("dry-run mode, labels will not be changed")
	}

	err := run(ctx, log, opts)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled) {
		log.Info("gracefully shutdown")
		return nil
	}
	log.Error(err, "exited unexpectedly")
	return err
}

func run(ctx context.Context, log *logger.Logger, opts *config.Options) error {
	// The derived Context is canceled the first time a function passed to eg.Go
	// returns a non-nil error or the first time Wait returns
	eg, ctx := errgroup.WithContext(ctx)

	kConfig, err := kubeclient.RestConfig(opts)
	if err != nil {
		return fmt.Errorf("reading kubernetes configuration: %w", err)
	}
	log.Info("read Kubernetes config")

	mgr, err := kubeclient.NewManager(ctx, kConfig, log.WithName("manager"), opts)
	if err != nil {
		return err
	}

	resolver, err := newResolver(opts, log)
	if err != nil {
		return err
	}

	// the API reader bypasses the cache, every cycle sees the live pod set
	lister := members.NewLister(mgr.GetAPIReader(), log.WithName("members"), opts.Namespace, opts.PodSelector, opts.RoleLabelKey())
	rec := labeler.NewReconciler(mgr.GetClient(), lister, resolver, log.WithName("reconciler"), opts)
	loop := labeler.NewLoop(rec, log.WithName("loop"), opts)

	if err := mgr.Add(loop); err != nil {
		return fmt.Errorf("adding labeling loop: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", loop.ReadyzCheck); err != nil {
		return fmt.Errorf("AddReadyzCheck: %w", err)
	}

	log.Info("starting manager",
		"namespace", opts.Namespace,
		"selector", opts.PodSelector,
		"sentinel", opts.SentinelAddress(),
		"label", opts.RoleLabelKey(),
		"leaderElection", opts.LeaderElection)

	eg.Go(func() error {
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("starting manager: %w", err)
		}
		return ctx.Err()
	})

	return eg.Wait()
}
