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

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

func newResolveCommand(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Ask Sentinel once and print the pod name of the current master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, err := newResolver(opts, logger.FromContext(cmd.Context()))
			if err != nil {
				return err
			}

			master, err := resolver.Resolve(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), master)
			return err
		},
	}
}
