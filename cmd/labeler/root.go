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
	"fmt"

	"github.com/spf13/cobra"
	crlog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
	"github.com/deckhouse/sentinel-role-labeler/internal/sentinel"
)

func newRootCommand() *cobra.Command {
	opts := config.NewDefaultOptions()

	root := &cobra.Command{
		Use:           "sentinel-role-labeler",
		Short:         "Labels store pods with the role Sentinel reports for them",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.LoadEnvFile(cmd.Flags()); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			log, err := newLogger(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(logger.WithLogger(cmd.Context(), log))
			return nil
		},
		// without a subcommand the binary behaves like "run"
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd, opts)
		},
	}
	opts.AddFlags(root.PersistentFlags())

	root.AddCommand(newRunCommand(opts), newResolveCommand(opts))

	return root
}

func newLogger(opts *config.Options) (*logger.Logger, error) {
	level, err := opts.LogVerbosity()
	if err != nil {
		return nil, ctlerrors.ErrInvalidConfigf("%s: %w", config.LogLevelEnv, err)
	}
	log, err := logger.NewLogger(level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	crlog.SetLogger(log.GetLogger())
	return log, nil
}

func newResolver(opts *config.Options, log *logger.Logger) (*sentinel.Resolver, error) {
	oracle, err := sentinel.NewOracle(opts)
	if err != nil {
		return nil, err
	}
	return sentinel.NewResolver(
		oracle,
		log.WithName("resolver"),
		opts.SentinelAddress(),
		opts.ClusterName,
		opts.PasswordEnv,
		opts.PollInterval(),
	), nil
}
